// Package reservations provides database operations for book holds.
//
// Pending reservations form a per-book queue ordered by reserved date;
// OldestPending returns its head. A reservation past its expiry date has
// lapsed: it keeps its stored status but no longer holds a claim, so the
// queries taking a now argument skip it.
package reservations

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/entities"
)

var activeStatuses = []entities.ReservationStatus{
	entities.ReservationStatusPending,
	entities.ReservationStatusAvailable,
}

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

func (r *Repository) Create(ctx context.Context, res *entities.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// GetByID loads a reservation with its book and owner.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Reservation, error) {
	var res entities.Reservation
	err := r.db.WithContext(ctx).Preload("Book").Preload("User").First(&res, id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ActiveFor returns the user's unexpired pending or available reservation
// of a book.
func (r *Repository) ActiveFor(ctx context.Context, userID, bookID uint, now time.Time) (*entities.Reservation, error) {
	var res entities.Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND status IN ? AND expiry_date >= ?", userID, bookID, activeStatuses, now).
		Order("id DESC").
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// OldestPending returns the head of the book's waiting queue, skipping
// lapsed reservations.
func (r *Repository) OldestPending(ctx context.Context, bookID uint, now time.Time) (*entities.Reservation, error) {
	var res entities.Reservation
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND status = ? AND expiry_date >= ?", bookID, entities.ReservationStatusPending, now).
		Order("reserved_date ASC, id ASC").
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CountActiveForBook counts unexpired pending and available reservations of a book.
func (r *Repository) CountActiveForBook(ctx context.Context, bookID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Reservation{}).
		Where("book_id = ? AND status IN ? AND expiry_date >= ?", bookID, activeStatuses, now).
		Count(&count).Error
	return count, err
}

// HasReadyHold reports whether someone holds an unexpired available
// reservation of the book.
func (r *Repository) HasReadyHold(ctx context.Context, bookID uint, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Reservation{}).
		Where("book_id = ? AND status = ? AND expiry_date >= ?", bookID, entities.ReservationStatusAvailable, now).
		Count(&count).Error
	return count > 0, err
}

// Promote makes a reservation ready for pickup until expiry.
func (r *Repository) Promote(ctx context.Context, id uint, expiry time.Time) error {
	return r.db.WithContext(ctx).Model(&entities.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      entities.ReservationStatusAvailable,
			"expiry_date": expiry,
		}).Error
}

// Cancel marks an active reservation cancelled. It reports false when the
// reservation was not active.
func (r *Repository) Cancel(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Reservation{}).
		Where("id = ? AND status IN ?", id, activeStatuses).
		Update("status", entities.ReservationStatusCancelled)
	return result.RowsAffected > 0, result.Error
}

// CancelPendingFor cancels a user's pending reservations of a book.
func (r *Repository) CancelPendingFor(ctx context.Context, userID, bookID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.Reservation{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.ReservationStatusPending).
		Update("status", entities.ReservationStatusCancelled)
	return result.RowsAffected, result.Error
}

// Fulfil closes a user's available hold on a book once they borrow it.
func (r *Repository) Fulfil(ctx context.Context, userID, bookID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.Reservation{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.ReservationStatusAvailable).
		Update("status", entities.ReservationStatusCancelled)
	return result.RowsAffected, result.Error
}

// ListForUser returns a user's non-cancelled reservations newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]entities.Reservation, error) {
	var list []entities.Reservation
	err := r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ? AND status <> ?", userID, entities.ReservationStatusCancelled).
		Order("reserved_date DESC, id DESC").
		Find(&list).Error
	return list, err
}

// ListAll returns every reservation with book and owner, newest first.
func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]entities.Reservation, error) {
	query := r.db.WithContext(ctx).Preload("Book").Preload("User").Order("reserved_date DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var list []entities.Reservation
	err := query.Find(&list).Error
	return list, err
}
