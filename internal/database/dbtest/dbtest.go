// Package dbtest opens throwaway databases and seeds fixtures for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database"
	"github.com/mrlokans/booktrack/internal/entities"
)

// Open creates a migrated SQLite database in the test's temp dir.
// The database is closed when the test finishes.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "booktrack_test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

// User inserts an active account with the given email and role.
func User(t *testing.T, db *gorm.DB, email string, role entities.UserRole) *entities.User {
	t.Helper()
	user := &entities.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Status:       entities.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Book inserts an available book.
func Book(t *testing.T, db *gorm.DB, title, author string) *entities.Book {
	t.Helper()
	book := &entities.Book{
		Title:        title,
		Author:       author,
		Availability: entities.AvailabilityAvailable,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

// Category returns a seeded category by name.
func Category(t *testing.T, db *gorm.DB, name string) *entities.Category {
	t.Helper()
	var category entities.Category
	require.NoError(t, db.Where("name = ?", name).First(&category).Error)
	return &category
}
