// Package borrowings provides database operations for loans.
package borrowings

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/entities"
)

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

func (r *Repository) Create(ctx context.Context, b *entities.Borrowing) error {
	if b.Status == "" {
		b.Status = entities.BorrowingStatusBorrowed
	}
	return r.db.WithContext(ctx).Create(b).Error
}

// GetByID loads a borrowing with its book and borrower.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Borrowing, error) {
	var b entities.Borrowing
	err := r.db.WithContext(ctx).Preload("Book").Preload("User").First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// OpenFor returns the user's current loan of a book.
func (r *Repository) OpenFor(ctx context.Context, userID, bookID uint) (*entities.Borrowing, error) {
	var b entities.Borrowing
	err := r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.BorrowingStatusBorrowed).
		Order("borrowed_date ASC, id ASC").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// HasOpenForBook reports whether anyone currently has the book out.
func (r *Repository) HasOpenForBook(ctx context.Context, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Borrowing{}).
		Where("book_id = ? AND status = ?", bookID, entities.BorrowingStatusBorrowed).
		Count(&count).Error
	return count > 0, err
}

// MarkReturned closes an open loan. It reports false when the loan was
// already returned, so two concurrent returns cannot both succeed.
func (r *Repository) MarkReturned(ctx context.Context, id uint, returnDate time.Time, fine float64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Borrowing{}).
		Where("id = ? AND status = ?", id, entities.BorrowingStatusBorrowed).
		Updates(map[string]any{
			"status":      entities.BorrowingStatusReturned,
			"return_date": returnDate,
			"fine_amount": fine,
		})
	return result.RowsAffected > 0, result.Error
}

// ListForUser returns a user's loans newest first. status may be empty,
// borrowed, returned or overdue; overdue selects open loans due before today.
func (r *Repository) ListForUser(ctx context.Context, userID uint, status entities.BorrowingStatus, today time.Time) ([]entities.Borrowing, error) {
	query := r.db.WithContext(ctx).Preload("Book").Where("user_id = ?", userID)
	switch status {
	case entities.BorrowingStatusOverdue:
		query = query.Where("status = ? AND due_date < ?", entities.BorrowingStatusBorrowed, today)
	case entities.BorrowingStatusBorrowed, entities.BorrowingStatusReturned:
		query = query.Where("status = ?", status)
	}

	var list []entities.Borrowing
	err := query.Order("borrowed_date DESC, id DESC").Find(&list).Error
	return list, err
}

// ListAll returns every loan with book and borrower, newest first.
func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]entities.Borrowing, error) {
	query := r.db.WithContext(ctx).Preload("Book").Preload("User").Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var list []entities.Borrowing
	err := query.Find(&list).Error
	return list, err
}

// DueBy returns open loans with a due date on or before cutoff.
func (r *Repository) DueBy(ctx context.Context, cutoff time.Time) ([]entities.Borrowing, error) {
	var list []entities.Borrowing
	err := r.db.WithContext(ctx).Preload("Book").
		Where("status = ? AND due_date <= ?", entities.BorrowingStatusBorrowed, cutoff).
		Order("due_date ASC, id ASC").
		Find(&list).Error
	return list, err
}
