package services

import (
	"time"

	"github.com/mrlokans/booktrack/internal/entities"
)

// Actor identifies who performs a circulation operation.
type Actor struct {
	UserID uint
	Role   entities.UserRole
	IP     string
}

// BorrowResult is the outcome of a successful borrow.
type BorrowResult struct {
	BorrowingID uint
	DueDate     time.Time
	BookTitle   string
}

// ReturnResult is the outcome of a successful return.
type ReturnResult struct {
	BorrowingID uint
	FineAmount  float64
	// PromotedReservationID is set when a waiting hold became ready for pickup.
	PromotedReservationID uint
}

// ReserveResult is the outcome of a successful reservation.
type ReserveResult struct {
	ReservationID uint
	ExpiryDate    time.Time
	Status        entities.ReservationStatus
}
