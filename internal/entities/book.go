package entities

import "time"

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBorrowed  Availability = "borrowed"
	AvailabilityReserved  Availability = "reserved"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityBorrowed, AvailabilityReserved:
		return true
	}
	return false
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Book struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"index;size:512;not null" json:"title"`
	Author       string       `gorm:"index;size:256;not null" json:"author"`
	ISBN         string       `gorm:"index;size:20" json:"isbn"`
	CategoryID   *uint        `gorm:"index" json:"category_id"`
	Category     *Category    `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Genre        string       `gorm:"size:100" json:"genre"`
	Description  string       `gorm:"type:text" json:"description"`
	CoverImage   string       `gorm:"size:2048" json:"cover_image"`
	Publisher    string       `gorm:"size:256" json:"publisher"`
	PublishYear  *int         `json:"publish_year"`
	Pages        *int         `json:"pages"`
	Language     string       `gorm:"size:50" json:"language"`
	Location     string       `gorm:"size:100" json:"location"`
	CallNumber   string       `gorm:"size:50" json:"call_number"`
	Availability Availability `gorm:"index;size:20;not null;default:available" json:"availability"`
	Rating       float64      `gorm:"default:0" json:"rating"`
	TotalReviews int          `gorm:"default:0" json:"total_reviews"`
	TotalBorrows int          `gorm:"default:0" json:"total_borrows"`
	LastBorrowed *time.Time   `json:"last_borrowed"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// CategoryName returns the joined category name or "" when uncategorised.
func (b *Book) CategoryName() string {
	if b.Category == nil {
		return ""
	}
	return b.Category.Name
}
