// Package bookmarks provides database operations for saved books.
//
// # Usage
//
//	repo := bookmarks.NewRepository(db)
//	saved, err := repo.ListForUser(ctx, userID)
package bookmarks

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/entities"
)

// Repository handles all bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookmarks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser returns a user's bookmarks with book and category, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]entities.Bookmark, error) {
	var list []entities.Bookmark
	err := r.db.WithContext(ctx).
		Preload("Book").Preload("Book.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// Exists reports whether the user already bookmarked the book.
func (r *Repository) Exists(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Bookmark{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, b *entities.Bookmark) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// Delete removes a bookmark. Returns gorm.ErrRecordNotFound when none existed.
func (r *Repository) Delete(ctx context.Context, userID, bookID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountForUser returns the number of bookmarks a user has.
func (r *Repository) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Bookmark{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
