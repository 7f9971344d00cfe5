package repository

import (
	"context"
	"testing"

	"quorum/internal/cache"
	"quorum/internal/models"
	"quorum/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCachedUser(t *testing.T) (UserRepository, *models.User) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	user := &models.User{Username: "moderator", Email: "moderator@example.com", Password: "x", IsModerator: true}
	require.NoError(t, db.Create(user).Error)

	repo := NewUserRepository(db)
	cached, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, cached.IsModerator)
	require.True(t, mr.Exists(cache.UserKey(user.ID)))
	return repo, user
}

func TestUserRepository_UpdateRolesInvalidatesCache(t *testing.T) {
	repo, user := withCachedUser(t)
	ctx := context.Background()

	require.NoError(t, repo.UpdateRoles(ctx, user.ID, false, false))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsModerator)
	assert.False(t, got.Capabilities().Has(models.CapModerate))
}

func TestUserRepository_UpdateRolesUnknownUser(t *testing.T) {
	repo, _ := withCachedUser(t)

	err := repo.UpdateRoles(context.Background(), 9999, true, false)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}

func TestUserRepository_GetFreshIgnoresStaleCache(t *testing.T) {
	repo, user := withCachedUser(t)
	ctx := context.Background()

	// Demote behind the cache's back, as an out-of-band edit would.
	impl := repo.(*userRepository)
	require.NoError(t, impl.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_moderator", false).Error)

	stale, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stale.IsModerator)

	fresh, err := repo.GetFresh(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, fresh.IsModerator)
}
