package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/database/bookmarks"
	"github.com/mrlokans/booktrack/internal/database/books"
	"github.com/mrlokans/booktrack/internal/entities"
)

var (
	ErrBookmarkExists   = apperrors.Conflict("Book already bookmarked")
	ErrBookmarkNotFound = apperrors.NotFound("Bookmark not found")
)

// BookmarkService manages a reader's wishlist.
type BookmarkService struct {
	bookmarks *bookmarks.Repository
	books     *books.Repository
	audit     *audit.Service
}

func NewBookmarkService(db *gorm.DB, auditService *audit.Service) *BookmarkService {
	return &BookmarkService{
		bookmarks: bookmarks.NewRepository(db),
		books:     books.NewRepository(db),
		audit:     auditService,
	}
}

// List returns the actor's bookmarks with their books, newest first.
func (s *BookmarkService) List(ctx context.Context, actor Actor) ([]entities.Bookmark, error) {
	return s.bookmarks.ListForUser(ctx, actor.UserID)
}

// Add bookmarks a book for the actor.
func (s *BookmarkService) Add(ctx context.Context, actor Actor, bookID uint) (*entities.Bookmark, error) {
	if bookID == 0 {
		return nil, ErrBookIDRequired
	}
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, notFound(err, ErrBookNotFound)
	}

	exists, err := s.bookmarks.Exists(ctx, actor.UserID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookmark: %w", err)
	}
	if exists {
		return nil, ErrBookmarkExists
	}

	bookmark := &entities.Bookmark{UserID: actor.UserID, BookID: bookID}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		// A concurrent insert can still trip the unique index.
		if isDuplicateKey(err) {
			return nil, ErrBookmarkExists
		}
		return nil, fmt.Errorf("failed to create bookmark: %w", err)
	}

	s.audit.LogAsync(audit.Event{
		UserID: actor.UserID,
		Action: "Book bookmarked: " + book.Title,
		Level:  entities.LogLevelInfo,
		IP:     actor.IP,
	})
	return bookmark, nil
}

// Remove deletes the actor's bookmark of a book.
func (s *BookmarkService) Remove(ctx context.Context, actor Actor, bookID uint) error {
	if bookID == 0 {
		return ErrBookIDRequired
	}
	if err := s.bookmarks.Delete(ctx, actor.UserID, bookID); err != nil {
		return notFound(err, ErrBookmarkNotFound)
	}

	title := fmt.Sprintf("book #%d", bookID)
	if book, err := s.books.GetByID(ctx, bookID); err == nil {
		title = book.Title
	}
	s.audit.LogAsync(audit.Event{
		UserID: actor.UserID,
		Action: "Bookmark removed: " + title,
		Level:  entities.LogLevelInfo,
		IP:     actor.IP,
	})
	return nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
