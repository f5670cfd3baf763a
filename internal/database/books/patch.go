package books

import (
	"strings"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/entities"
)

var (
	ErrTitleAuthorRequired = apperrors.Validation("Title and author are required")
	ErrInvalidAvailability = apperrors.Validation("Invalid availability value")
	ErrInvalidNumber       = apperrors.Validation("Publish year and pages must not be negative")
)

// Patch carries the writable book fields. It is decoded straight from
// request bodies for both create and update; nil means "not provided".
type Patch struct {
	Title        *string                `json:"title"`
	Author       *string                `json:"author"`
	ISBN         *string                `json:"isbn"`
	CategoryID   *uint                  `json:"category_id"`
	Genre        *string                `json:"genre"`
	Description  *string                `json:"description"`
	CoverImage   *string                `json:"cover_image"`
	Publisher    *string                `json:"publisher"`
	PublishYear  *int                   `json:"publish_year"`
	Pages        *int                   `json:"pages"`
	Language     *string                `json:"language"`
	Location     *string                `json:"location"`
	CallNumber   *string                `json:"call_number"`
	Availability *entities.Availability `json:"availability"`
}

// Validate rejects bad values among the provided fields.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleAuthorRequired
	}
	if p.Author != nil && strings.TrimSpace(*p.Author) == "" {
		return ErrTitleAuthorRequired
	}
	if p.Availability != nil && !p.Availability.Valid() {
		return ErrInvalidAvailability
	}
	if (p.PublishYear != nil && *p.PublishYear < 0) || (p.Pages != nil && *p.Pages < 0) {
		return ErrInvalidNumber
	}
	return nil
}

// ValidateCreate additionally requires title and author.
func (p Patch) ValidateCreate() error {
	if p.Title == nil || p.Author == nil {
		return ErrTitleAuthorRequired
	}
	return p.Validate()
}

// Columns maps the provided fields to column names.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	str := func(name string, v *string) {
		if v != nil {
			cols[name] = strings.TrimSpace(*v)
		}
	}
	str("title", p.Title)
	str("author", p.Author)
	str("isbn", p.ISBN)
	str("genre", p.Genre)
	str("description", p.Description)
	str("cover_image", p.CoverImage)
	str("publisher", p.Publisher)
	str("language", p.Language)
	str("location", p.Location)
	str("call_number", p.CallNumber)
	if p.CategoryID != nil {
		cols["category_id"] = *p.CategoryID
	}
	if p.PublishYear != nil {
		cols["publish_year"] = *p.PublishYear
	}
	if p.Pages != nil {
		cols["pages"] = *p.Pages
	}
	if p.Availability != nil {
		cols["availability"] = *p.Availability
	}
	return cols
}

func (p Patch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// NewBook builds an unsaved book from a create request.
func (p Patch) NewBook() *entities.Book {
	val := func(v *string) string {
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	}
	book := &entities.Book{
		Title:        val(p.Title),
		Author:       val(p.Author),
		ISBN:         val(p.ISBN),
		CategoryID:   p.CategoryID,
		Genre:        val(p.Genre),
		Description:  val(p.Description),
		CoverImage:   val(p.CoverImage),
		Publisher:    val(p.Publisher),
		PublishYear:  p.PublishYear,
		Pages:        p.Pages,
		Language:     val(p.Language),
		Location:     val(p.Location),
		CallNumber:   val(p.CallNumber),
		Availability: entities.AvailabilityAvailable,
	}
	if p.Availability != nil {
		book.Availability = *p.Availability
	}
	return book
}
