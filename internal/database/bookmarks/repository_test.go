package bookmarks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/database/dbtest"
	"github.com/mrlokans/booktrack/internal/entities"
)

func TestRepository_Bookmarks(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := dbtest.User(t, db, "b@example.com", entities.RoleUser)
	first := dbtest.Book(t, db, "First", "A")
	second := dbtest.Book(t, db, "Second", "B")
	require.NoError(t, db.Model(second).Update("category_id", dbtest.Category(t, db, "History").ID).Error)

	t.Run("add", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &entities.Bookmark{UserID: user.ID, BookID: first.ID}))
		require.NoError(t, repo.Create(ctx, &entities.Bookmark{UserID: user.ID, BookID: second.ID}))

		exists, err := repo.Exists(ctx, user.ID, first.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate rejected by unique index", func(t *testing.T) {
		err := repo.Create(ctx, &entities.Bookmark{UserID: user.ID, BookID: first.ID})
		assert.Error(t, err)
	})

	t.Run("list newest first with category", func(t *testing.T) {
		list, err := repo.ListForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Second", list[0].Book.Title)
		assert.Equal(t, "History", list[0].Book.CategoryName())

		count, err := repo.CountForUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, user.ID, first.ID))
		assert.ErrorIs(t, repo.Delete(ctx, user.ID, first.ID), gorm.ErrRecordNotFound)
	})
}
