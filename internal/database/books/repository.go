// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(ctx, 123)
//	found, err := repo.Search(ctx, books.Query{Text: "dune", Limit: 20})
package books

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/entities"
)

// Page sizes for List and Search.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Repository handles all book and category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Query describes a catalog search. Empty fields are not filtered on.
type Query struct {
	Text         string
	Category     string // category name, case-insensitive
	Availability entities.Availability
	Limit        int
	Offset       int
}

// ClampPage normalizes a limit/offset pair to the catalog defaults.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	if book.Availability == "" {
		book.Availability = entities.AvailabilityAvailable
	}
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Category").First(book, book.ID).Error
}

// GetByID retrieves a book with its category.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).Preload("Category").First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns books newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]entities.Book, error) {
	return r.Search(ctx, Query{Limit: limit, Offset: offset})
}

// likeEscaper makes user text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches Text case-insensitively against title, author, isbn and description.
func (r *Repository) Search(ctx context.Context, q Query) ([]entities.Book, error) {
	limit, offset := ClampPage(q.Limit, q.Offset)
	query := r.db.WithContext(ctx).Model(&entities.Book{}).Preload("Category")

	if text := strings.TrimSpace(q.Text); text != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
		query = query.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\' OR `+
				`LOWER(isbn) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern,
		)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		query = query.Where("category_id IN (?)",
			r.db.Model(&entities.Category{}).Select("id").Where("LOWER(name) = ?", strings.ToLower(category)))
	}
	if q.Availability != "" {
		query = query.Where("availability = ?", q.Availability)
	}

	var list []entities.Book
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// Update applies a partial update. Returns gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) Update(ctx context.Context, id uint, p Patch) error {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Updates(p.Columns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetAvailability changes only the lending state of a book.
func (r *Repository) SetAvailability(ctx context.Context, id uint, a entities.Availability) error {
	return r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", id).
		Update("availability", a).Error
}

// MarkBorrowed flips a book to borrowed and bumps its borrow counters.
func (r *Repository) MarkBorrowed(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"availability":  entities.AvailabilityBorrowed,
			"last_borrowed": at,
			"total_borrows": gorm.Expr("total_borrows + 1"),
		}).Error
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// Categories returns all categories ordered by name.
func (r *Repository) Categories(ctx context.Context) ([]entities.Category, error) {
	var list []entities.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

// CategoryExists reports whether id names a category.
func (r *Repository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
