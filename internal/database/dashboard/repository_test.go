package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booktrack/internal/database/dbtest"
	"github.com/mrlokans/booktrack/internal/entities"
)

func TestRepository_UserStats(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	user := dbtest.User(t, db, "dash@example.com", entities.RoleUser)
	other := dbtest.User(t, db, "else@example.com", entities.RoleUser)
	reading := dbtest.Book(t, db, "Reading", "A")
	late := dbtest.Book(t, db, "Late", "A")
	done := dbtest.Book(t, db, "Done", "A")
	wanted := dbtest.Book(t, db, "Wanted", "A")

	require.NoError(t, db.Create(&[]entities.Borrowing{
		{UserID: user.ID, BookID: reading.ID, BorrowedDate: today.AddDate(0, 0, -1), DueDate: today.AddDate(0, 0, 13), Status: entities.BorrowingStatusBorrowed},
		{UserID: user.ID, BookID: late.ID, BorrowedDate: today.AddDate(0, 0, -20), DueDate: today.AddDate(0, 0, -6), Status: entities.BorrowingStatusBorrowed},
		{UserID: user.ID, BookID: done.ID, BorrowedDate: today.AddDate(0, 0, -60), DueDate: today.AddDate(0, 0, -46), Status: entities.BorrowingStatusReturned},
		{UserID: other.ID, BookID: done.ID, BorrowedDate: today, DueDate: today.AddDate(0, 0, 14), Status: entities.BorrowingStatusBorrowed},
	}).Error)
	require.NoError(t, db.Create(&[]entities.Reservation{
		{UserID: user.ID, BookID: wanted.ID, ReservedDate: now.Add(-time.Hour), ExpiryDate: now.AddDate(0, 0, 7), Status: entities.ReservationStatusPending},
		{UserID: user.ID, BookID: late.ID, ReservedDate: now, ExpiryDate: now.AddDate(0, 0, 7), Status: entities.ReservationStatusCancelled},
	}).Error)
	require.NoError(t, db.Create(&entities.Bookmark{UserID: user.ID, BookID: wanted.ID}).Error)

	stats, err := repo.UserStats(context.Background(), user.ID, today, now)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalBooks)
	assert.Equal(t, int64(2), stats.ReadingBooks)
	assert.Equal(t, int64(1), stats.CompletedBooks)
	assert.Equal(t, int64(1), stats.WishlistBooks)
	assert.Equal(t, int64(1), stats.OverdueCount)

	require.Len(t, stats.RecentActivity, 3, "60-day-old loan and cancelled hold are excluded")
	assert.Equal(t, "reservation", stats.RecentActivity[0].Type)
	assert.Equal(t, "Reserved Wanted", stats.RecentActivity[0].Description)
	assert.Equal(t, "Borrowed Reading", stats.RecentActivity[1].Description)
	assert.Equal(t, "Late", stats.RecentActivity[2].Title)
}

func TestRepository_AdminStats(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	active := dbtest.User(t, db, "active@example.com", entities.RoleUser)
	require.NoError(t, db.Model(active).Update("last_login", now.Add(-time.Hour)).Error)
	dormant := dbtest.User(t, db, "dormant@example.com", entities.RoleUser)
	require.NoError(t, db.Model(dormant).Update("last_login", now.AddDate(0, 0, -90)).Error)
	dbtest.User(t, db, "staff@example.com", entities.RoleLibraryAdmin)

	fiction := dbtest.Category(t, db, "Fiction")
	b1 := dbtest.Book(t, db, "F1", "A")
	b2 := dbtest.Book(t, db, "F2", "A")
	require.NoError(t, db.Model(&entities.Book{}).Where("id IN ?", []uint{b1.ID, b2.ID}).Update("category_id", fiction.ID).Error)

	require.NoError(t, db.Create(&entities.Borrowing{
		UserID: active.ID, BookID: b1.ID, BorrowedDate: today.AddDate(0, 0, -20), DueDate: today.AddDate(0, 0, -6),
		Status: entities.BorrowingStatusBorrowed,
	}).Error)
	require.NoError(t, db.Create(&entities.Reservation{
		UserID: dormant.ID, BookID: b1.ID, ReservedDate: now, ExpiryDate: now.AddDate(0, 0, 7),
		Status: entities.ReservationStatusPending,
	}).Error)
	require.NoError(t, db.Create(&entities.SystemLog{Action: "System started", Level: entities.LogLevelInfo}).Error)

	stats, err := repo.AdminStats(context.Background(), today, now)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.ActiveUsers)
	assert.Equal(t, int64(2), stats.TotalBooks)
	assert.Equal(t, int64(1), stats.ActiveBorrowings)
	assert.Equal(t, int64(1), stats.PendingRequests)
	assert.Equal(t, int64(1), stats.OverdueBooks)
	require.Len(t, stats.SystemActivity, 1)
	assert.Nil(t, stats.SystemActivity[0].User)

	require.Len(t, stats.Categories, 8)
	assert.Equal(t, CategoryCount{Name: "Fiction", Count: 2}, stats.Categories[0])
	assert.Equal(t, int64(0), stats.Categories[1].Count)
}
