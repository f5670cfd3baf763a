package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/database/notifications"
	"github.com/mrlokans/booktrack/internal/entities"
)

var ErrNotificationNotFound = apperrors.NotFound("Notification not found")

// NotificationPage is one page of a user's inbox.
type NotificationPage struct {
	Notifications []entities.Notification
	UnreadCount   int64
}

// NotificationService gives a user access to their own inbox only.
type NotificationService struct {
	notifications *notifications.Repository
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{notifications: notifications.NewRepository(db)}
}

// List returns a filtered page of the actor's notifications and the unread total.
func (s *NotificationService) List(ctx context.Context, actor Actor, filter string, limit, offset int) (*NotificationPage, error) {
	list, err := s.notifications.List(ctx, actor.UserID, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notifications.UnreadCount(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return &NotificationPage{Notifications: list, UnreadCount: unread}, nil
}

func (s *NotificationService) Get(ctx context.Context, actor Actor, id uint) (*entities.Notification, error) {
	n, err := s.notifications.Get(ctx, actor.UserID, id)
	if err != nil {
		return nil, notFound(err, ErrNotificationNotFound)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id uint) error {
	return notFound(s.notifications.MarkRead(ctx, actor.UserID, id), ErrNotificationNotFound)
}

// Update applies a read-flag or priority patch.
func (s *NotificationService) Update(ctx context.Context, actor Actor, id uint, p notifications.Patch) error {
	if p.IsEmpty() {
		return ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return notFound(s.notifications.Update(ctx, actor.UserID, id, p), ErrNotificationNotFound)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	return s.notifications.MarkAllRead(ctx, actor.UserID)
}

func (s *NotificationService) Delete(ctx context.Context, actor Actor, id uint) error {
	return notFound(s.notifications.Delete(ctx, actor.UserID, id), ErrNotificationNotFound)
}

func (s *NotificationService) Clear(ctx context.Context, actor Actor) (int64, error) {
	return s.notifications.DeleteAll(ctx, actor.UserID)
}
