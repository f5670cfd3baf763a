package services

import (
	"context"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/entities"
)

// MyBorrowings lists the actor's loans. status narrows to borrowed, returned
// or overdue; any other value lists everything.
func (s *CirculationService) MyBorrowings(ctx context.Context, actor Actor, status entities.BorrowingStatus) ([]entities.Borrowing, error) {
	switch status {
	case entities.BorrowingStatusBorrowed, entities.BorrowingStatusReturned, entities.BorrowingStatusOverdue:
	default:
		status = ""
	}
	return s.repos.borrowings.ListForUser(ctx, actor.UserID, status, s.Today())
}

// GetBorrowing returns a loan visible to the actor. Other users' loans look
// missing to non-administrators.
func (s *CirculationService) GetBorrowing(ctx context.Context, actor Actor, id uint) (*entities.Borrowing, error) {
	b, err := s.repos.borrowings.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrBorrowingNotFound)
	}
	if b.UserID != actor.UserID && !auth.Can(actor.Role, auth.Administrators...) {
		return nil, ErrBorrowingNotFound
	}
	return b, nil
}

// AllBorrowings lists every loan for administrators.
func (s *CirculationService) AllBorrowings(ctx context.Context, actor Actor, limit, offset int) ([]entities.Borrowing, error) {
	if !auth.Can(actor.Role, auth.Administrators...) {
		return nil, ErrAdminRequired
	}
	return s.repos.borrowings.ListAll(ctx, limit, offset)
}

// MyReservations lists the actor's non-cancelled reservations.
func (s *CirculationService) MyReservations(ctx context.Context, actor Actor) ([]entities.Reservation, error) {
	return s.repos.reservations.ListForUser(ctx, actor.UserID)
}

// GetReservation returns a reservation visible to the actor.
func (s *CirculationService) GetReservation(ctx context.Context, actor Actor, id uint) (*entities.Reservation, error) {
	res, err := s.repos.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReservationNotFound)
	}
	if res.UserID != actor.UserID && !auth.Can(actor.Role, auth.CatalogStaff...) {
		return nil, ErrReservationNotFound
	}
	return res, nil
}

// AllReservations lists every reservation for catalog staff.
func (s *CirculationService) AllReservations(ctx context.Context, actor Actor, limit, offset int) ([]entities.Reservation, error) {
	if !auth.Can(actor.Role, auth.CatalogStaff...) {
		return nil, ErrAdminRequired
	}
	return s.repos.reservations.ListAll(ctx, limit, offset)
}
