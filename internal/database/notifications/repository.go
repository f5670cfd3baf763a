// Package notifications provides database operations for user inboxes.
//
// Every read and write is scoped to the owning user, so a caller can never
// touch another user's notifications by guessing ids.
package notifications

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/entities"
)

// Filter values accepted by List.
const (
	FilterAll    = "all"
	FilterUnread = "unread"
)

var ErrInvalidPriority = apperrors.Validation("Invalid priority value")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Patch is a partial notification update.
type Patch struct {
	IsRead   *bool                          `json:"is_read"`
	Priority *entities.NotificationPriority `json:"priority"`
}

func (p Patch) Validate() error {
	if p.Priority != nil && !p.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.IsRead != nil {
		cols["is_read"] = *p.IsRead
	}
	if p.Priority != nil {
		cols["priority"] = *p.Priority
	}
	return cols
}

func (p Patch) IsEmpty() bool {
	return p.IsRead == nil && p.Priority == nil
}

func (r *Repository) Create(ctx context.Context, n *entities.Notification) error {
	if n.Priority == "" {
		n.Priority = entities.PriorityMedium
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// List returns a user's notifications newest first. filter is "all",
// "unread" or a notification type; anything else behaves like "all".
func (r *Repository) List(ctx context.Context, userID uint, filter string, limit, offset int) ([]entities.Notification, error) {
	query := r.db.WithContext(ctx).Preload("Book").Where("user_id = ?", userID)
	switch {
	case filter == FilterUnread:
		query = query.Where("is_read = ?", false)
	case entities.NotificationType(filter).Valid():
		query = query.Where("type = ?", filter)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var list []entities.Notification
	err := query.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// Get returns one of the user's notifications.
func (r *Repository) Get(ctx context.Context, userID, id uint) (*entities.Notification, error) {
	var n entities.Notification
	err := r.db.WithContext(ctx).Preload("Book").
		Where("id = ? AND user_id = ?", id, userID).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Update applies a patch to one of the user's notifications.
func (r *Repository) Update(ctx context.Context, userID, id uint, p Patch) error {
	result := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(p.Columns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRead marks one notification read.
func (r *Repository) MarkRead(ctx context.Context, userID, id uint) error {
	read := true
	return r.Update(ctx, userID, id, Patch{IsRead: &read})
}

// MarkAllRead marks every unread notification of the user read.
func (r *Repository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *Repository) Delete(ctx context.Context, userID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAll clears the user's inbox.
func (r *Repository) DeleteAll(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entities.Notification{})
	return result.RowsAffected, result.Error
}

// ExistsSince reports whether a notification of the given type about a book
// was already sent to the user at or after since.
func (r *Repository) ExistsSince(ctx context.Context, userID, bookID uint, typ entities.NotificationType, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND book_id = ? AND type = ? AND created_at >= ?", userID, bookID, typ, since).
		Count(&count).Error
	return count > 0, err
}
