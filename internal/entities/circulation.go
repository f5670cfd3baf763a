package entities

import "time"

type BorrowingStatus string

const (
	BorrowingStatusBorrowed BorrowingStatus = "borrowed"
	BorrowingStatusReturned BorrowingStatus = "returned"
	// BorrowingStatusOverdue is derived at read time and never stored.
	BorrowingStatusOverdue BorrowingStatus = "overdue"
)

type Borrowing struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	User         *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BookID       uint            `gorm:"index;not null" json:"book_id"`
	Book         *Book           `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	BorrowedDate time.Time       `gorm:"index;not null" json:"borrowed_date"`
	DueDate      time.Time       `gorm:"index;not null" json:"due_date"`
	ReturnDate   *time.Time      `json:"return_date"`
	Status       BorrowingStatus `gorm:"index;size:20;not null;default:borrowed" json:"status"`
	FineAmount   float64         `gorm:"default:0" json:"fine_amount"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Borrowing) TableName() string {
	return "borrowings"
}

// EffectiveStatus reports overdue for open borrowings whose due date lies before today.
func (b *Borrowing) EffectiveStatus(today time.Time) BorrowingStatus {
	if b.Status == BorrowingStatusBorrowed && b.DueDate.Before(today) {
		return BorrowingStatusOverdue
	}
	return b.Status
}

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusAvailable ReservationStatus = "available"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	// ReservationStatusExpired is derived at read time and never stored.
	ReservationStatusExpired ReservationStatus = "expired"
)

type Reservation struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       uint              `gorm:"index;not null" json:"user_id"`
	User         *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BookID       uint              `gorm:"index;not null" json:"book_id"`
	Book         *Book             `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	ReservedDate time.Time         `gorm:"index;not null" json:"reserved_date"`
	ExpiryDate   time.Time         `gorm:"not null" json:"expiry_date"`
	Status       ReservationStatus `gorm:"index;size:20;not null;default:pending" json:"status"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// EffectiveStatus reports expired for pending or available reservations
// past their expiry.
func (r *Reservation) EffectiveStatus(now time.Time) ReservationStatus {
	if r.IsActive() && r.ExpiryDate.Before(now) {
		return ReservationStatusExpired
	}
	return r.Status
}

// IsActive is true for stored pending or available rows, expired or not.
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusAvailable
}

// IsActiveAt is true while the reservation still holds a claim on the book.
func (r *Reservation) IsActiveAt(now time.Time) bool {
	return r.IsActive() && !r.ExpiryDate.Before(now)
}
