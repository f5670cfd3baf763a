package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database/borrowings"
	"github.com/mrlokans/booktrack/internal/database/dbtest"
	"github.com/mrlokans/booktrack/internal/database/logs"
	"github.com/mrlokans/booktrack/internal/entities"
)

var testNow = time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)

func testLibraryConfig() config.Library {
	return config.Library{
		LoanDays:        14,
		ReservationDays: 7,
		DailyFine:       1.00,
		AtomicWrites:    true,
		ReservedPickup:  true,
	}
}

func setupCirculation(t *testing.T, cfg config.Library) (*CirculationService, *gorm.DB, *time.Time) {
	t.Helper()
	db := dbtest.Open(t)
	svc := NewCirculationService(db, cfg, audit.NewService(logs.NewRepository(db)))
	now := testNow
	svc.SetClock(func() time.Time { return now })
	return svc, db, &now
}

func reload[T any](t *testing.T, db *gorm.DB, id uint) T {
	t.Helper()
	var v T
	require.NoError(t, db.First(&v, id).Error)
	return v
}

func notificationTitles(t *testing.T, db *gorm.DB, userID uint) []string {
	t.Helper()
	var titles []string
	require.NoError(t, db.Model(&entities.Notification{}).Where("user_id = ?", userID).Order("id").Pluck("title", &titles).Error)
	return titles
}

func TestBorrow_AvailableBook(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	res, err := svc.Borrow(ctx, Actor{UserID: user.ID, Role: user.Role}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 24, 0, 0, 0, 0, time.UTC), res.DueDate)

	stored := reload[entities.Book](t, db, book.ID)
	assert.Equal(t, entities.AvailabilityBorrowed, stored.Availability)
	assert.Equal(t, 1, stored.TotalBorrows)
	require.NotNil(t, stored.LastBorrowed)

	b := reload[entities.Borrowing](t, db, res.BorrowingID)
	assert.Equal(t, entities.BorrowingStatusBorrowed, b.Status)
	assert.Equal(t, user.ID, b.UserID)

	assert.Equal(t, []string{"Book Borrowed"}, notificationTitles(t, db, user.ID))

	var logged int64
	db.Model(&entities.SystemLog{}).Where("action = ?", "Book borrowed: Dune").Count(&logged)
	assert.Equal(t, int64(1), logged)
}

func TestBorrow_Failures(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")
	actor := Actor{UserID: user.ID, Role: user.Role}

	_, err := svc.Borrow(ctx, actor, 0, 0)
	assert.ErrorIs(t, err, ErrBookIDRequired)

	_, err = svc.Borrow(ctx, actor, 9999, 0)
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.Borrow(ctx, actor, book.ID, 0)
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, Actor{UserID: other.ID}, book.ID, 0)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	// Force the book back on the shelf to reach the duplicate check.
	require.NoError(t, db.Model(&entities.Book{}).Where("id = ?", book.ID).Update("availability", entities.AvailabilityAvailable).Error)
	_, err = svc.Borrow(ctx, actor, book.ID, 0)
	assert.ErrorIs(t, err, ErrDuplicateBorrow)
}

func TestBorrow_CancelsOwnPendingReservation(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	pending := &entities.Reservation{UserID: user.ID, BookID: book.ID, ReservedDate: testNow, ExpiryDate: testNow.AddDate(0, 0, 7), Status: entities.ReservationStatusPending}
	require.NoError(t, db.Create(pending).Error)

	_, err := svc.Borrow(ctx, Actor{UserID: user.ID}, book.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, entities.ReservationStatusCancelled, reload[entities.Reservation](t, db, pending.ID).Status)
}

func TestReturn_FineAndAvailability(t *testing.T) {
	svc, db, now := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")
	actor := Actor{UserID: user.ID, Role: user.Role}

	borrowed, err := svc.Borrow(ctx, actor, book.ID, 14)
	require.NoError(t, err)

	*now = now.AddDate(0, 0, 17)
	res, err := svc.ReturnByBorrowing(ctx, actor, borrowed.BorrowingID)
	require.NoError(t, err)
	assert.InDelta(t, 3.00, res.FineAmount, 0.001)
	assert.Zero(t, res.PromotedReservationID)

	b := reload[entities.Borrowing](t, db, borrowed.BorrowingID)
	assert.Equal(t, entities.BorrowingStatusReturned, b.Status)
	require.NotNil(t, b.ReturnDate)
	assert.Equal(t, entities.AvailabilityAvailable, reload[entities.Book](t, db, book.ID).Availability)

	_, err = svc.ReturnByBorrowing(ctx, actor, borrowed.BorrowingID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)

	_, err = svc.ReturnByBook(ctx, actor, book.ID)
	assert.ErrorIs(t, err, ErrBorrowingNotFound)
}

func TestReturn_Authorization(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	owner := dbtest.User(t, db, "owner@example.com", entities.RoleUser)
	stranger := dbtest.User(t, db, "stranger@example.com", entities.RoleUser)
	librarian := dbtest.User(t, db, "librarian@example.com", entities.RoleLibraryAdmin)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	borrowed, err := svc.Borrow(ctx, Actor{UserID: owner.ID}, book.ID, 0)
	require.NoError(t, err)

	_, err = svc.ReturnByBorrowing(ctx, Actor{UserID: stranger.ID, Role: entities.RoleUser}, borrowed.BorrowingID)
	assert.ErrorIs(t, err, ErrBorrowingNotFound)

	_, err = svc.ReturnByBorrowing(ctx, Actor{UserID: librarian.ID, Role: entities.RoleLibraryAdmin}, borrowed.BorrowingID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Book Borrowed", "Book Returned"}, notificationTitles(t, db, owner.ID))
}

func TestReturn_PromotesOldestPendingReservation(t *testing.T) {
	svc, db, now := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	first := dbtest.User(t, db, "first@example.com", entities.RoleUser)
	second := dbtest.User(t, db, "second@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)

	r1, err := svc.Reserve(ctx, Actor{UserID: first.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationStatusPending, r1.Status)
	*now = now.Add(time.Hour)
	r2, err := svc.Reserve(ctx, Actor{UserID: second.ID}, book.ID, 0)
	require.NoError(t, err)

	*now = now.AddDate(0, 0, 2)
	res, err := svc.ReturnByBook(ctx, Actor{UserID: borrower.ID}, book.ID)
	require.NoError(t, err)
	assert.Equal(t, r1.ReservationID, res.PromotedReservationID)
	assert.Zero(t, res.FineAmount)

	assert.Equal(t, entities.AvailabilityReserved, reload[entities.Book](t, db, book.ID).Availability)
	promoted := reload[entities.Reservation](t, db, r1.ReservationID)
	assert.Equal(t, entities.ReservationStatusAvailable, promoted.Status)
	assert.True(t, promoted.ExpiryDate.Equal(now.AddDate(0, 0, 7)))
	assert.Equal(t, entities.ReservationStatusPending, reload[entities.Reservation](t, db, r2.ReservationID).Status)
	assert.Contains(t, notificationTitles(t, db, first.ID), "Reserved Book Available")
}

func TestReserve(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")
	actor := Actor{UserID: user.ID}

	res, err := svc.Reserve(ctx, actor, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationStatusAvailable, res.Status)
	assert.True(t, res.ExpiryDate.Equal(testNow.AddDate(0, 0, 7)))
	assert.Equal(t, entities.AvailabilityReserved, reload[entities.Book](t, db, book.ID).Availability)
	assert.Equal(t, []string{"Reserved Book Ready"}, notificationTitles(t, db, user.ID))

	_, err = svc.Reserve(ctx, actor, book.ID, 0)
	assert.ErrorIs(t, err, ErrDuplicateReservation)

	_, err = svc.Reserve(ctx, actor, 4242, 0)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestReserve_WhileBorrowingIt(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: user.ID}, book.ID, 0)
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, Actor{UserID: user.ID}, book.ID, 0)
	assert.ErrorIs(t, err, ErrDuplicateBorrow)
}

func TestCancelReservation_Availability(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	a := dbtest.User(t, db, "a@example.com", entities.RoleUser)
	b := dbtest.User(t, db, "b@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)
	ra, err := svc.Reserve(ctx, Actor{UserID: a.ID}, book.ID, 0)
	require.NoError(t, err)
	rb, err := svc.Reserve(ctx, Actor{UserID: b.ID}, book.ID, 0)
	require.NoError(t, err)
	_, err = svc.ReturnByBook(ctx, Actor{UserID: borrower.ID}, book.ID)
	require.NoError(t, err)

	// a now holds the copy; b waits.
	require.NoError(t, svc.CancelReservation(ctx, Actor{UserID: a.ID}, ra.ReservationID))
	assert.Equal(t, entities.AvailabilityReserved, reload[entities.Book](t, db, book.ID).Availability,
		"cancelling a non-last reservation keeps the book reserved")
	assert.Equal(t, entities.ReservationStatusAvailable, reload[entities.Reservation](t, db, rb.ReservationID).Status)
	assert.Contains(t, notificationTitles(t, db, b.ID), "Reserved Book Available")

	require.NoError(t, svc.CancelReservation(ctx, Actor{UserID: b.ID}, rb.ReservationID))
	assert.Equal(t, entities.AvailabilityAvailable, reload[entities.Book](t, db, book.ID).Availability)

	err = svc.CancelReservation(ctx, Actor{UserID: b.ID}, rb.ReservationID)
	assert.ErrorIs(t, err, ErrReservationInactive)
}

func TestCancelReservation_WhileOnLoanKeepsBorrowed(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	waiter := dbtest.User(t, db, "waiter@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)
	res, err := svc.Reserve(ctx, Actor{UserID: waiter.ID}, book.ID, 0)
	require.NoError(t, err)

	require.NoError(t, svc.CancelReservation(ctx, Actor{UserID: waiter.ID}, res.ReservationID))
	assert.Equal(t, entities.AvailabilityBorrowed, reload[entities.Book](t, db, book.ID).Availability)
}

func TestCancelReservation_Authorization(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	owner := dbtest.User(t, db, "owner@example.com", entities.RoleUser)
	stranger := dbtest.User(t, db, "stranger@example.com", entities.RoleUser)
	moderator := dbtest.User(t, db, "mod@example.com", entities.RoleLibraryModerator)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	res, err := svc.Reserve(ctx, Actor{UserID: owner.ID}, book.ID, 0)
	require.NoError(t, err)

	err = svc.CancelReservation(ctx, Actor{UserID: stranger.ID, Role: entities.RoleUser}, res.ReservationID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	err = svc.CancelReservation(ctx, Actor{UserID: moderator.ID, Role: entities.RoleLibraryModerator}, res.ReservationID)
	assert.NoError(t, err)
}

func TestBorrow_ReservedPickup(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	holder := dbtest.User(t, db, "holder@example.com", entities.RoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	res, err := svc.Reserve(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, Actor{UserID: other.ID}, book.ID, 0)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	_, err = svc.Borrow(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationStatusCancelled, reload[entities.Reservation](t, db, res.ReservationID).Status)
	assert.Equal(t, entities.AvailabilityBorrowed, reload[entities.Book](t, db, book.ID).Availability)
}

func TestBorrow_ReservedWithoutPickupIsUnavailable(t *testing.T) {
	cfg := testLibraryConfig()
	cfg.ReservedPickup = false
	svc, db, now := setupCirculation(t, cfg)
	ctx := context.Background()
	holder := dbtest.User(t, db, "holder@example.com", entities.RoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Reserve(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	// Once the hold lapses the copy is back on the shelf for anyone.
	*now = now.AddDate(0, 0, 8)
	_, err = svc.Borrow(ctx, Actor{UserID: other.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.AvailabilityBorrowed, reload[entities.Book](t, db, book.ID).Availability)
}

func TestReturn_PromotedHolderCanBorrow(t *testing.T) {
	svc, db, now := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	holder := dbtest.User(t, db, "holder@example.com", entities.RoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)
	hold, err := svc.Reserve(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	require.NoError(t, err)
	_, err = svc.ReturnByBook(ctx, Actor{UserID: borrower.ID}, book.ID)
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, Actor{UserID: other.ID}, book.ID, 0)
	assert.ErrorIs(t, err, ErrBookUnavailable, "the copy is held for the promoted reservation")

	*now = now.AddDate(0, 0, 2)
	_, err = svc.Borrow(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.AvailabilityBorrowed, reload[entities.Book](t, db, book.ID).Availability)
	assert.Equal(t, entities.ReservationStatusCancelled, reload[entities.Reservation](t, db, hold.ReservationID).Status)
}

func TestReturn_UncollectedHoldLapses(t *testing.T) {
	svc, db, now := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	holder := dbtest.User(t, db, "holder@example.com", entities.RoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)
	hold, err := svc.Reserve(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	require.NoError(t, err)
	_, err = svc.ReturnByBook(ctx, Actor{UserID: borrower.ID}, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.AvailabilityReserved, reload[entities.Book](t, db, book.ID).Availability)

	*now = now.AddDate(0, 0, 60)
	_, err = svc.Borrow(ctx, Actor{UserID: other.ID}, book.ID, 0)
	require.NoError(t, err, "a hold nobody collected no longer blocks the copy")
	assert.Equal(t, entities.AvailabilityBorrowed, reload[entities.Book](t, db, book.ID).Availability)

	lapsed := reload[entities.Reservation](t, db, hold.ReservationID)
	assert.Equal(t, entities.ReservationStatusExpired, lapsed.EffectiveStatus(svc.Now()))
}

func TestBorrow_LapsedHoldPassesToNextInLine(t *testing.T) {
	svc, db, now := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	holder := dbtest.User(t, db, "holder@example.com", entities.RoleUser)
	waiter := dbtest.User(t, db, "waiter@example.com", entities.RoleUser)
	other := dbtest.User(t, db, "other@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Reserve(ctx, Actor{UserID: holder.ID}, book.ID, 0)
	require.NoError(t, err)
	*now = now.AddDate(0, 0, 5)
	waiting, err := svc.Reserve(ctx, Actor{UserID: waiter.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationStatusPending, waiting.Status)

	// The holder's window closes on day 7; the waiter's runs until day 12.
	*now = now.AddDate(0, 0, 3)
	_, err = svc.Borrow(ctx, Actor{UserID: other.ID}, book.ID, 0)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	assert.Equal(t, entities.AvailabilityReserved, reload[entities.Book](t, db, book.ID).Availability)
	promoted := reload[entities.Reservation](t, db, waiting.ReservationID)
	assert.Equal(t, entities.ReservationStatusAvailable, promoted.Status, "the release survives the failed borrow")
	assert.Contains(t, notificationTitles(t, db, waiter.ID), "Reserved Book Available")

	_, err = svc.Borrow(ctx, Actor{UserID: waiter.ID}, book.ID, 0)
	require.NoError(t, err)
}

func TestReturn_WithoutPickupPutsBookBackOnShelf(t *testing.T) {
	cfg := testLibraryConfig()
	cfg.ReservedPickup = false
	svc, db, _ := setupCirculation(t, cfg)
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	waiter := dbtest.User(t, db, "waiter@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)
	waiting, err := svc.Reserve(ctx, Actor{UserID: waiter.ID}, book.ID, 0)
	require.NoError(t, err)

	res, err := svc.ReturnByBook(ctx, Actor{UserID: borrower.ID}, book.ID)
	require.NoError(t, err)
	assert.Zero(t, res.PromotedReservationID)
	assert.Equal(t, entities.AvailabilityAvailable, reload[entities.Book](t, db, book.ID).Availability)
	assert.Equal(t, entities.ReservationStatusPending, reload[entities.Reservation](t, db, waiting.ReservationID).Status)
	assert.Contains(t, notificationTitles(t, db, waiter.ID), "Reserved Book Available")

	_, err = svc.Borrow(ctx, Actor{UserID: waiter.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationStatusCancelled, reload[entities.Reservation](t, db, waiting.ReservationID).Status)
}

func TestReturn_SkipsExpiredPendingReservation(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	stale := dbtest.User(t, db, "stale@example.com", entities.RoleUser)
	fresh := dbtest.User(t, db, "fresh@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)

	expired := &entities.Reservation{UserID: stale.ID, BookID: book.ID, ReservedDate: testNow.AddDate(0, 0, -10), ExpiryDate: testNow.AddDate(0, 0, -3), Status: entities.ReservationStatusPending}
	require.NoError(t, db.Create(expired).Error)
	valid, err := svc.Reserve(ctx, Actor{UserID: fresh.ID}, book.ID, 0)
	require.NoError(t, err)

	res, err := svc.ReturnByBook(ctx, Actor{UserID: borrower.ID}, book.ID)
	require.NoError(t, err)
	assert.Equal(t, valid.ReservationID, res.PromotedReservationID)
	assert.Equal(t, entities.ReservationStatusPending, reload[entities.Reservation](t, db, expired.ID).Status)
	assert.Empty(t, notificationTitles(t, db, stale.ID))
	assert.Contains(t, notificationTitles(t, db, fresh.ID), "Reserved Book Available")
}

func TestReserve_AfterOwnReservationLapsed(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	borrower := dbtest.User(t, db, "borrower@example.com", entities.RoleUser)
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	_, err := svc.Borrow(ctx, Actor{UserID: borrower.ID}, book.ID, 0)
	require.NoError(t, err)
	expired := &entities.Reservation{UserID: user.ID, BookID: book.ID, ReservedDate: testNow.AddDate(0, 0, -10), ExpiryDate: testNow.AddDate(0, 0, -3), Status: entities.ReservationStatusPending}
	require.NoError(t, db.Create(expired).Error)

	res, err := svc.Reserve(ctx, Actor{UserID: user.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.ReservationStatusPending, res.Status)

	_, err = svc.Reserve(ctx, Actor{UserID: user.ID}, book.ID, 0)
	assert.ErrorIs(t, err, ErrDuplicateReservation)

	err = svc.CancelReservation(ctx, Actor{UserID: user.ID}, expired.ID)
	assert.ErrorIs(t, err, ErrReservationInactive)
}

func TestAtomicWritesRollBack(t *testing.T) {
	svc, db, _ := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	// Dropping the notifications table makes the last step of the chain fail.
	require.NoError(t, db.Migrator().DropTable(&entities.Notification{}))

	_, err := svc.Borrow(ctx, Actor{UserID: user.ID}, book.ID, 0)
	require.Error(t, err)

	var count int64
	db.Model(&entities.Borrowing{}).Count(&count)
	assert.Zero(t, count, "borrowing insert should roll back")
	assert.Equal(t, entities.AvailabilityAvailable, reload[entities.Book](t, db, book.ID).Availability)
}

func TestNonAtomicWritesKeepPartialState(t *testing.T) {
	cfg := testLibraryConfig()
	cfg.AtomicWrites = false
	svc, db, _ := setupCirculation(t, cfg)
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")

	require.NoError(t, db.Migrator().DropTable(&entities.Notification{}))

	_, err := svc.Borrow(ctx, Actor{UserID: user.ID}, book.ID, 0)
	require.Error(t, err)

	var count int64
	db.Model(&entities.Borrowing{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, entities.AvailabilityBorrowed, reload[entities.Book](t, db, book.ID).Availability)
}

func TestOverdueScenario(t *testing.T) {
	svc, db, now := setupCirculation(t, testLibraryConfig())
	ctx := context.Background()
	user := dbtest.User(t, db, "reader@example.com", entities.RoleUser)
	book := dbtest.Book(t, db, "Dune", "Frank Herbert")
	repo := borrowings.NewRepository(db)

	res, err := svc.Borrow(ctx, Actor{UserID: user.ID}, book.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, svc.Today().AddDate(0, 0, 14), res.DueDate)

	list, err := repo.ListForUser(ctx, user.ID, "", svc.Today())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entities.BorrowingStatusBorrowed, list[0].EffectiveStatus(svc.Today()))

	*now = res.DueDate.AddDate(0, 0, 1).Add(9 * time.Hour)
	list, err = repo.ListForUser(ctx, user.ID, entities.BorrowingStatusOverdue, svc.Today())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entities.BorrowingStatusOverdue, list[0].EffectiveStatus(svc.Today()))
}

func TestCalculateFine(t *testing.T) {
	due := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		returned time.Time
		rate     float64
		want     float64
	}{
		{"before due", due.AddDate(0, 0, -2), 1, 0},
		{"on due date", due.Add(20 * time.Hour), 1, 0},
		{"one day late", due.AddDate(0, 0, 1), 1, 1},
		{"ten days late", due.AddDate(0, 0, 10).Add(23 * time.Hour), 1, 10},
		{"custom rate", due.AddDate(0, 0, 3), 0.25, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateFine(due, tt.returned, tt.rate), 0.0001)
		})
	}
}
