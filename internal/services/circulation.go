package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database/books"
	"github.com/mrlokans/booktrack/internal/database/borrowings"
	"github.com/mrlokans/booktrack/internal/database/notifications"
	"github.com/mrlokans/booktrack/internal/database/reservations"
	"github.com/mrlokans/booktrack/internal/entities"
)

const dateLayout = "2006-01-02"

var (
	ErrBookIDRequired       = apperrors.Validation("Book ID is required")
	ErrReturnTargetRequired = apperrors.Validation("Borrowing ID or Book ID is required")
	ErrBookNotFound         = apperrors.NotFound("Book not found")
	ErrBookUnavailable      = apperrors.Validation("Book is not available for borrowing")
	ErrDuplicateBorrow      = apperrors.Validation("You already have this book borrowed")
	ErrBorrowingNotFound    = apperrors.NotFound("Borrowing record not found")
	ErrAlreadyReturned      = apperrors.Conflict("Book has already been returned")
	ErrDuplicateReservation = apperrors.Conflict("You already have a pending reservation for this book")
	ErrReservationNotFound  = apperrors.NotFound("Reservation not found")
	ErrReservationInactive  = apperrors.Conflict("Reservation is no longer active")
)

// circulationRepos groups the stores one circulation flow writes to, all
// bound to the same handle.
type circulationRepos struct {
	books         *books.Repository
	borrowings    *borrowings.Repository
	reservations  *reservations.Repository
	notifications *notifications.Repository
	audit         *audit.Service
}

func (r circulationRepos) withTx(tx *gorm.DB) circulationRepos {
	return circulationRepos{
		books:         r.books.WithTx(tx),
		borrowings:    r.borrowings.WithTx(tx),
		reservations:  r.reservations.WithTx(tx),
		notifications: r.notifications.WithTx(tx),
		audit:         r.audit.WithTx(tx),
	}
}

// CirculationService runs the borrow, return, reserve and cancel flows.
type CirculationService struct {
	db     *gorm.DB
	repos  circulationRepos
	config config.Library
	now    func() time.Time
}

// NewCirculationService creates a CirculationService over db.
func NewCirculationService(db *gorm.DB, cfg config.Library, auditService *audit.Service) *CirculationService {
	return &CirculationService{
		db: db,
		repos: circulationRepos{
			books:         books.NewRepository(db),
			borrowings:    borrowings.NewRepository(db),
			reservations:  reservations.NewRepository(db),
			notifications: notifications.NewRepository(db),
			audit:         auditService,
		},
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *CirculationService) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the service clock's current time.
func (s *CirculationService) Now() time.Time {
	return s.now()
}

// Today returns the current UTC date at midnight.
func (s *CirculationService) Today() time.Time {
	return startOfDay(s.now())
}

// withinTx runs fn in one transaction when atomic writes are enabled, and
// statement by statement on the shared handle otherwise.
func (s *CirculationService) withinTx(ctx context.Context, fn func(r circulationRepos) error) error {
	if !s.config.AtomicWrites {
		return fn(s.repos)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.repos.withTx(tx))
	})
}

// Borrow lends a book to the actor for dueDays days (the configured loan
// period when dueDays is not positive).
func (s *CirculationService) Borrow(ctx context.Context, actor Actor, bookID uint, dueDays int) (*BorrowResult, error) {
	if bookID == 0 {
		return nil, ErrBookIDRequired
	}
	if dueDays <= 0 {
		dueDays = s.config.LoanDays
	}

	now := s.now()
	today := startOfDay(now)
	result := &BorrowResult{DueDate: today.AddDate(0, 0, dueDays)}

	if err := s.releaseLapsed(ctx, bookID, now); err != nil {
		return nil, err
	}

	err := s.withinTx(ctx, func(r circulationRepos) error {
		book, err := r.books.GetByID(ctx, bookID)
		if err != nil {
			return notFound(err, ErrBookNotFound)
		}
		pickup := false
		if book.Availability != entities.AvailabilityAvailable {
			pickup, err = s.canPickUp(ctx, r, actor.UserID, book, now)
			if err != nil {
				return err
			}
			if !pickup {
				return ErrBookUnavailable
			}
		}

		if _, err := r.borrowings.OpenFor(ctx, actor.UserID, bookID); err == nil {
			return ErrDuplicateBorrow
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check open borrowing: %w", err)
		}

		borrowing := &entities.Borrowing{
			UserID:       actor.UserID,
			BookID:       bookID,
			BorrowedDate: today,
			DueDate:      result.DueDate,
			Status:       entities.BorrowingStatusBorrowed,
		}
		if err := r.borrowings.Create(ctx, borrowing); err != nil {
			return fmt.Errorf("failed to create borrowing: %w", err)
		}
		if err := r.books.MarkBorrowed(ctx, bookID, now); err != nil {
			return fmt.Errorf("failed to update book availability: %w", err)
		}
		if _, err := r.reservations.CancelPendingFor(ctx, actor.UserID, bookID); err != nil {
			return fmt.Errorf("failed to cancel pending reservations: %w", err)
		}
		if pickup {
			if _, err := r.reservations.Fulfil(ctx, actor.UserID, bookID); err != nil {
				return fmt.Errorf("failed to close pickup reservation: %w", err)
			}
		}

		if err := r.audit.Log(ctx, audit.Event{
			UserID: actor.UserID,
			Action: "Book borrowed: " + book.Title,
			Level:  entities.LogLevelSuccess,
			IP:     actor.IP,
		}); err != nil {
			return fmt.Errorf("failed to log borrow: %w", err)
		}
		if err := r.notifications.Create(ctx, &entities.Notification{
			UserID:   actor.UserID,
			Type:     entities.NotificationSystem,
			Title:    "Book Borrowed",
			Message:  fmt.Sprintf("You have successfully borrowed '%s'. Due date: %s", book.Title, result.DueDate.Format(dateLayout)),
			BookID:   &bookID,
			Priority: entities.PriorityMedium,
		}); err != nil {
			return fmt.Errorf("failed to notify borrower: %w", err)
		}

		result.BorrowingID = borrowing.ID
		result.BookTitle = book.Title
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// canPickUp reports whether the actor holds the ready reservation of a
// reserved book and pickup borrowing is enabled.
func (s *CirculationService) canPickUp(ctx context.Context, r circulationRepos, userID uint, book *entities.Book, now time.Time) (bool, error) {
	if !s.config.ReservedPickup || book.Availability != entities.AvailabilityReserved {
		return false, nil
	}
	res, err := r.reservations.ActiveFor(ctx, userID, book.ID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check reservation: %w", err)
	}
	return res.Status == entities.ReservationStatusAvailable, nil
}

// ReturnByBorrowing returns a loan by its id. Only the borrower or an
// administrator may do so.
func (s *CirculationService) ReturnByBorrowing(ctx context.Context, actor Actor, borrowingID uint) (*ReturnResult, error) {
	if borrowingID == 0 {
		return nil, ErrReturnTargetRequired
	}
	return s.returnBook(ctx, actor, func(r circulationRepos) (*entities.Borrowing, error) {
		b, err := r.borrowings.GetByID(ctx, borrowingID)
		if err != nil {
			return nil, notFound(err, ErrBorrowingNotFound)
		}
		if b.UserID != actor.UserID && !auth.Can(actor.Role, auth.Administrators...) {
			return nil, ErrBorrowingNotFound
		}
		return b, nil
	})
}

// ReturnByBook returns the actor's open loan of a book.
func (s *CirculationService) ReturnByBook(ctx context.Context, actor Actor, bookID uint) (*ReturnResult, error) {
	if bookID == 0 {
		return nil, ErrReturnTargetRequired
	}
	return s.returnBook(ctx, actor, func(r circulationRepos) (*entities.Borrowing, error) {
		b, err := r.borrowings.OpenFor(ctx, actor.UserID, bookID)
		if err != nil {
			return nil, notFound(err, ErrBorrowingNotFound)
		}
		return b, nil
	})
}

func (s *CirculationService) returnBook(ctx context.Context, actor Actor, find func(r circulationRepos) (*entities.Borrowing, error)) (*ReturnResult, error) {
	now := s.now()
	today := startOfDay(now)
	result := &ReturnResult{}

	err := s.withinTx(ctx, func(r circulationRepos) error {
		borrowing, err := find(r)
		if err != nil {
			return err
		}
		if borrowing.Status == entities.BorrowingStatusReturned {
			return ErrAlreadyReturned
		}

		fine := CalculateFine(borrowing.DueDate, today, s.config.DailyFine)
		ok, err := r.borrowings.MarkReturned(ctx, borrowing.ID, today, fine)
		if err != nil {
			return fmt.Errorf("failed to mark borrowing returned: %w", err)
		}
		if !ok {
			return ErrAlreadyReturned
		}

		book, err := r.books.GetByID(ctx, borrowing.BookID)
		if err != nil {
			return fmt.Errorf("failed to load returned book: %w", err)
		}

		promoted, err := s.handOff(ctx, r, book, now)
		if err != nil {
			return err
		}
		if promoted != nil {
			result.PromotedReservationID = promoted.ID
		}

		if err := r.audit.Log(ctx, audit.Event{
			UserID: actor.UserID,
			Action: "Book returned: " + book.Title,
			Level:  entities.LogLevelSuccess,
			IP:     actor.IP,
		}); err != nil {
			return fmt.Errorf("failed to log return: %w", err)
		}
		bookID := book.ID
		if err := r.notifications.Create(ctx, &entities.Notification{
			UserID:   borrowing.UserID,
			Type:     entities.NotificationSystem,
			Title:    "Book Returned",
			Message:  fmt.Sprintf("You have successfully returned '%s'.", book.Title),
			BookID:   &bookID,
			Priority: entities.PriorityMedium,
		}); err != nil {
			return fmt.Errorf("failed to notify borrower: %w", err)
		}

		result.BorrowingID = borrowing.ID
		result.FineAmount = fine
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// handOff puts a freed copy at the disposal of the waiting queue. With
// pickup enabled the oldest unexpired pending reservation becomes available
// with a fresh pickup window and the book is reserved for its holder.
// Otherwise the book goes back on the shelf and the head of the queue is
// only told about it. It returns the promoted reservation, or nil.
func (s *CirculationService) handOff(ctx context.Context, r circulationRepos, book *entities.Book, now time.Time) (*entities.Reservation, error) {
	next, err := r.reservations.OldestPending(ctx, book.ID, now)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		next = nil
	case err != nil:
		return nil, fmt.Errorf("failed to find pending reservation: %w", err)
	}

	bookID := book.ID
	if next == nil || !s.config.ReservedPickup {
		if err := r.books.SetAvailability(ctx, book.ID, entities.AvailabilityAvailable); err != nil {
			return nil, fmt.Errorf("failed to update book availability: %w", err)
		}
		book.Availability = entities.AvailabilityAvailable
		if next == nil {
			return nil, nil
		}
		if err := r.notifications.Create(ctx, &entities.Notification{
			UserID:   next.UserID,
			Type:     entities.NotificationAvailable,
			Title:    "Reserved Book Available",
			Message:  fmt.Sprintf("The book '%s' you reserved is now available for pickup.", book.Title),
			BookID:   &bookID,
			Priority: entities.PriorityHigh,
		}); err != nil {
			return nil, fmt.Errorf("failed to notify reservation holder: %w", err)
		}
		return nil, nil
	}

	expiry := now.AddDate(0, 0, s.config.ReservationDays)
	if err := r.reservations.Promote(ctx, next.ID, expiry); err != nil {
		return nil, fmt.Errorf("failed to promote reservation: %w", err)
	}
	if err := r.books.SetAvailability(ctx, book.ID, entities.AvailabilityReserved); err != nil {
		return nil, fmt.Errorf("failed to update book availability: %w", err)
	}
	book.Availability = entities.AvailabilityReserved

	if err := r.notifications.Create(ctx, &entities.Notification{
		UserID:   next.UserID,
		Type:     entities.NotificationAvailable,
		Title:    "Reserved Book Available",
		Message:  fmt.Sprintf("The book '%s' you reserved is now available for pickup.", book.Title),
		BookID:   &bookID,
		Priority: entities.PriorityHigh,
	}); err != nil {
		return nil, fmt.Errorf("failed to notify reservation holder: %w", err)
	}
	next.Status = entities.ReservationStatusAvailable
	next.ExpiryDate = expiry
	return next, nil
}

// releaseLapsed commits the release of a lapsed hold on its own, so a
// borrow or reserve that fails afterwards does not undo it.
func (s *CirculationService) releaseLapsed(ctx context.Context, bookID uint, now time.Time) error {
	return s.withinTx(ctx, func(r circulationRepos) error {
		book, err := r.books.GetByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load book: %w", err)
		}
		return s.releaseLapsedHold(ctx, r, book, now)
	})
}

// releaseLapsedHold frees a reserved book whose pickup window closed
// without a borrow. The copy is handed to the next unexpired reservation,
// or back to the shelf.
func (s *CirculationService) releaseLapsedHold(ctx context.Context, r circulationRepos, book *entities.Book, now time.Time) error {
	if book.Availability != entities.AvailabilityReserved {
		return nil
	}
	ready, err := r.reservations.HasReadyHold(ctx, book.ID, now)
	if err != nil {
		return fmt.Errorf("failed to check pickup holds: %w", err)
	}
	if ready {
		return nil
	}
	onLoan, err := r.borrowings.HasOpenForBook(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("failed to check open borrowings: %w", err)
	}
	if onLoan {
		return nil
	}
	_, err = s.handOff(ctx, r, book, now)
	return err
}

// Reserve places a hold on a book for expiryDays days (the configured
// reservation period when expiryDays is not positive).
func (s *CirculationService) Reserve(ctx context.Context, actor Actor, bookID uint, expiryDays int) (*ReserveResult, error) {
	if bookID == 0 {
		return nil, ErrBookIDRequired
	}
	if expiryDays <= 0 {
		expiryDays = s.config.ReservationDays
	}

	now := s.now()
	result := &ReserveResult{ExpiryDate: now.AddDate(0, 0, expiryDays)}

	if err := s.releaseLapsed(ctx, bookID, now); err != nil {
		return nil, err
	}

	err := s.withinTx(ctx, func(r circulationRepos) error {
		book, err := r.books.GetByID(ctx, bookID)
		if err != nil {
			return notFound(err, ErrBookNotFound)
		}

		if _, err := r.borrowings.OpenFor(ctx, actor.UserID, bookID); err == nil {
			return ErrDuplicateBorrow
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check open borrowing: %w", err)
		}

		if _, err := r.reservations.ActiveFor(ctx, actor.UserID, bookID, now); err == nil {
			return ErrDuplicateReservation
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing reservation: %w", err)
		}

		status := entities.ReservationStatusPending
		if book.Availability == entities.AvailabilityAvailable {
			status = entities.ReservationStatusAvailable
		}

		res := &entities.Reservation{
			UserID:       actor.UserID,
			BookID:       bookID,
			ReservedDate: now,
			ExpiryDate:   result.ExpiryDate,
			Status:       status,
		}
		if err := r.reservations.Create(ctx, res); err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		notification := &entities.Notification{
			UserID: actor.UserID,
			BookID: &bookID,
		}
		if status == entities.ReservationStatusAvailable {
			if err := r.books.SetAvailability(ctx, bookID, entities.AvailabilityReserved); err != nil {
				return fmt.Errorf("failed to update book availability: %w", err)
			}
			notification.Type = entities.NotificationAvailable
			notification.Title = "Reserved Book Ready"
			notification.Message = fmt.Sprintf("The book '%s' is reserved for you. Please pick it up by %s.",
				book.Title, result.ExpiryDate.Format(dateLayout))
			notification.Priority = entities.PriorityHigh
		} else {
			notification.Type = entities.NotificationSystem
			notification.Title = "Book Reserved"
			notification.Message = fmt.Sprintf("You have reserved '%s'. You will be notified when it becomes available.", book.Title)
			notification.Priority = entities.PriorityMedium
		}

		if err := r.audit.Log(ctx, audit.Event{
			UserID: actor.UserID,
			Action: "Book reserved: " + book.Title,
			Level:  entities.LogLevelInfo,
			IP:     actor.IP,
		}); err != nil {
			return fmt.Errorf("failed to log reservation: %w", err)
		}
		if err := r.notifications.Create(ctx, notification); err != nil {
			return fmt.Errorf("failed to notify reserver: %w", err)
		}

		result.ReservationID = res.ID
		result.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelReservation cancels a hold. Only its owner or catalog staff may.
func (s *CirculationService) CancelReservation(ctx context.Context, actor Actor, reservationID uint) error {
	if reservationID == 0 {
		return apperrors.Validation("Reservation ID is required")
	}
	now := s.now()

	return s.withinTx(ctx, func(r circulationRepos) error {
		res, err := r.reservations.GetByID(ctx, reservationID)
		if err != nil {
			return notFound(err, ErrReservationNotFound)
		}
		if res.UserID != actor.UserID && !auth.Can(actor.Role, auth.CatalogStaff...) {
			return ErrReservationNotFound
		}
		if !res.IsActiveAt(now) {
			return ErrReservationInactive
		}

		ok, err := r.reservations.Cancel(ctx, res.ID)
		if err != nil {
			return fmt.Errorf("failed to cancel reservation: %w", err)
		}
		if !ok {
			return ErrReservationInactive
		}

		book, err := r.books.GetByID(ctx, res.BookID)
		if err != nil {
			return fmt.Errorf("failed to load reserved book: %w", err)
		}

		onLoan, err := r.borrowings.HasOpenForBook(ctx, book.ID)
		if err != nil {
			return fmt.Errorf("failed to check open borrowings: %w", err)
		}

		// A released pickup hold passes to the next in line while the copy is on the shelf.
		if res.Status == entities.ReservationStatusAvailable && !onLoan {
			if _, err := s.handOff(ctx, r, book, now); err != nil {
				return err
			}
			return s.logCancel(ctx, r, actor, book.Title)
		}

		remaining, err := r.reservations.CountActiveForBook(ctx, book.ID, now)
		if err != nil {
			return fmt.Errorf("failed to count reservations: %w", err)
		}
		if remaining == 0 && !onLoan && book.Availability != entities.AvailabilityAvailable {
			if err := r.books.SetAvailability(ctx, book.ID, entities.AvailabilityAvailable); err != nil {
				return fmt.Errorf("failed to update book availability: %w", err)
			}
		}

		return s.logCancel(ctx, r, actor, book.Title)
	})
}

func (s *CirculationService) logCancel(ctx context.Context, r circulationRepos, actor Actor, title string) error {
	if err := r.audit.Log(ctx, audit.Event{
		UserID: actor.UserID,
		Action: "Reservation cancelled: " + title,
		Level:  entities.LogLevelInfo,
		IP:     actor.IP,
	}); err != nil {
		return fmt.Errorf("failed to log cancellation: %w", err)
	}
	return nil
}

// CalculateFine charges dailyRate for every whole day between due and returned.
func CalculateFine(due, returned time.Time, dailyRate float64) float64 {
	days := math.Floor(startOfDay(returned).Sub(startOfDay(due)).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return math.Round(days*dailyRate*100) / 100
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// notFound maps gorm's missing-row error to target.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
