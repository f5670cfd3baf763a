package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/database/books"
	"github.com/mrlokans/booktrack/internal/entities"
)

var (
	ErrAdminRequired   = apperrors.Forbidden("Admin access required")
	ErrAccessDenied    = apperrors.Forbidden("Access denied")
	ErrNoFields        = apperrors.Validation("No fields to update")
	ErrUnknownCategory = apperrors.Validation("Category does not exist")
)

// CatalogService manages the book catalog.
type CatalogService struct {
	books *books.Repository
	audit *audit.Service
}

// NewCatalogService creates a CatalogService over db.
func NewCatalogService(db *gorm.DB, auditService *audit.Service) *CatalogService {
	return &CatalogService{
		books: books.NewRepository(db),
		audit: auditService,
	}
}

func (s *CatalogService) List(ctx context.Context, limit, offset int) ([]entities.Book, error) {
	return s.books.List(ctx, limit, offset)
}

func (s *CatalogService) Search(ctx context.Context, q books.Query) ([]entities.Book, error) {
	if q.Availability != "" && !q.Availability.Valid() {
		return nil, books.ErrInvalidAvailability
	}
	return s.books.Search(ctx, q)
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrBookNotFound)
	}
	return book, nil
}

// Categories lists the catalog categories.
func (s *CatalogService) Categories(ctx context.Context) ([]entities.Category, error) {
	return s.books.Categories(ctx)
}

// Create adds a book. Only catalog staff may write to the catalog.
func (s *CatalogService) Create(ctx context.Context, actor Actor, p books.Patch) (*entities.Book, error) {
	if !auth.Can(actor.Role, auth.CatalogStaff...) {
		return nil, ErrAdminRequired
	}
	if err := p.ValidateCreate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}

	book := p.NewBook()
	if err := s.books.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.audit.LogAsync(audit.Event{
		UserID: actor.UserID,
		Action: "Book added: " + book.Title,
		Level:  entities.LogLevelSuccess,
		IP:     actor.IP,
	})
	return book, nil
}

// Update applies a partial update to a book.
func (s *CatalogService) Update(ctx context.Context, actor Actor, id uint, p books.Patch) (*entities.Book, error) {
	if !auth.Can(actor.Role, auth.CatalogStaff...) {
		return nil, ErrAdminRequired
	}
	if p.IsEmpty() {
		return nil, ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}

	if err := s.books.Update(ctx, id, p); err != nil {
		return nil, notFound(err, ErrBookNotFound)
	}
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrBookNotFound)
	}

	s.audit.LogAsync(audit.Event{
		UserID: actor.UserID,
		Action: "Book updated: " + book.Title,
		Level:  entities.LogLevelInfo,
		IP:     actor.IP,
	})
	return book, nil
}

// Delete removes a book and everything that references it.
func (s *CatalogService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !auth.Can(actor.Role, auth.CatalogStaff...) {
		return ErrAdminRequired
	}
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrBookNotFound)
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return notFound(err, ErrBookNotFound)
	}

	s.audit.LogAsync(audit.Event{
		UserID: actor.UserID,
		Action: "Book deleted: " + book.Title,
		Level:  entities.LogLevelWarning,
		IP:     actor.IP,
	})
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := s.books.CategoryExists(ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !ok {
		return ErrUnknownCategory
	}
	return nil
}
