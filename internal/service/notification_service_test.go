package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"quorum/internal/models"
	"quorum/internal/notifications"
	"quorum/internal/repository"
	"quorum/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishUser(ctx context.Context, ev notifications.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func TestNotify_StoresAndPublishes(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	pub := new(MockPublisher)
	pub.On("PublishUser", mock.Anything, mock.MatchedBy(func(ev notifications.Event) bool {
		return ev.UserID == 7 && ev.Link == "/questions/1" && ev.ID != 0
	})).Return(nil).Once()

	svc := NewNotificationService(repository.NewNotificationRepository(db), pub)
	require.NoError(t, svc.Notify(context.Background(), 7, "New comment on Q", "/questions/1"))
	pub.AssertExpectations(t)

	list, err := svc.List(context.Background(), 7, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "New comment on Q", list[0].Content)
}

func TestNotify_PublishFailureIsNotFatal(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	pub := new(MockPublisher)
	pub.On("PublishUser", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := NewNotificationService(repository.NewNotificationRepository(db), pub)
	require.NoError(t, svc.Notify(context.Background(), 7, "hello", "/questions/2"))

	var n int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestNotify_ReachesRedisSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	notifier := notifications.NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := notifier.SubscribeUser(ctx, 42)
	require.NoError(t, err)

	svc := NewNotificationService(repository.NewNotificationRepository(testutil.NewSQLiteDB(t)), notifier)
	require.NoError(t, svc.Notify(ctx, 42, "You were mentioned in a comment", "/questions/1"))

	select {
	case ev := <-events:
		assert.Equal(t, uint(42), ev.UserID)
		assert.Equal(t, "/questions/1", ev.Link)
		assert.NotZero(t, ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification received")
	}
}

func TestMarkRead(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, 7, "hello", "/questions/1"))
	list, err := svc.List(ctx, 7, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	_, err = svc.MarkRead(ctx, 8, id)
	assertAppErrorCode(t, err, models.CodeNotAuthorized)

	n, err := svc.MarkRead(ctx, 7, id)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	unread, err := svc.List(ctx, 7, true, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	_, err = svc.MarkRead(ctx, 7, 999)
	assertAppErrorCode(t, err, models.CodeNotFound)
}
