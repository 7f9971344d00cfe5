package service

import (
	"context"
	"log/slog"

	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/notifications"
	"quorum/internal/repository"
)

// Publisher fans a stored notification out to live subscribers.
type Publisher interface {
	PublishUser(ctx context.Context, ev notifications.Event) error
}

// NotificationService is the inbox of every user: it stores notifications and
// announces them over pub/sub.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
}

func NewNotificationService(repo repository.NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

// Notify enqueues a notification for userID. A failed publish is logged; the
// stored row is the source of truth.
func (s *NotificationService) Notify(ctx context.Context, userID uint, content, link string) error {
	n := &models.Notification{UserID: userID, Content: content, Link: link}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.publisher != nil {
		err := s.publisher.PublishUser(ctx, notifications.Event{
			ID:        n.ID,
			UserID:    n.UserID,
			Content:   n.Content,
			Link:      n.Link,
			CreatedAt: n.CreatedAt,
		})
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification",
				slog.Uint64("notification_id", uint64(n.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// List returns a page of userID's notifications, newest first. A limit outside 1..100 means 50.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead flags one of the caller's own notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, models.NewNotAuthorizedError("You can only update your own notifications")
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, n.ID); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}
