package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/entities"
)

// JSON shapes returned by the API. Derived statuses are computed here from
// the request clock and never stored.

type bookView struct {
	ID           uint                  `json:"id"`
	Title        string                `json:"title"`
	Author       string                `json:"author"`
	ISBN         string                `json:"isbn"`
	Category     string                `json:"category"`
	CategoryID   *uint                 `json:"category_id"`
	Genre        string                `json:"genre"`
	Description  string                `json:"description"`
	Cover        string                `json:"cover"`
	Publisher    string                `json:"publisher"`
	PublishYear  *int                  `json:"publish_year"`
	Pages        *int                  `json:"pages"`
	Language     string                `json:"language"`
	Location     string                `json:"location"`
	CallNumber   string                `json:"call_number"`
	Availability entities.Availability `json:"availability"`
	Rating       float64               `json:"rating"`
	Reviews      int                   `json:"reviews"`
	TotalBorrows int                   `json:"total_borrows"`
	AddedDate    string                `json:"added_date"`
	LastBorrowed *time.Time            `json:"last_borrowed"`
	CreatedAt    time.Time             `json:"created_at"`
}

func newBookView(b *entities.Book) bookView {
	return bookView{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		ISBN:         b.ISBN,
		Category:     b.CategoryName(),
		CategoryID:   b.CategoryID,
		Genre:        b.Genre,
		Description:  b.Description,
		Cover:        b.CoverImage,
		Publisher:    b.Publisher,
		PublishYear:  b.PublishYear,
		Pages:        b.Pages,
		Language:     b.Language,
		Location:     b.Location,
		CallNumber:   b.CallNumber,
		Availability: b.Availability,
		Rating:       b.Rating,
		Reviews:      b.TotalReviews,
		TotalBorrows: b.TotalBorrows,
		AddedDate:    b.CreatedAt.Format(dateLayout),
		LastBorrowed: b.LastBorrowed,
		CreatedAt:    b.CreatedAt,
	}
}

func newBookViews(list []entities.Book) []bookView {
	out := make([]bookView, 0, len(list))
	for i := range list {
		out = append(out, newBookView(&list[i]))
	}
	return out
}

type borrowingView struct {
	ID            uint                     `json:"id"`
	BookID        uint                     `json:"book_id"`
	Title         string                   `json:"title"`
	Author        string                   `json:"author"`
	ISBN          string                   `json:"isbn"`
	CoverImage    string                   `json:"cover_image"`
	BorrowedDate  string                   `json:"borrowed_date"`
	DueDate       string                   `json:"due_date"`
	ReturnDate    *string                  `json:"return_date"`
	Status        entities.BorrowingStatus `json:"status"`
	FineAmount    float64                  `json:"fine_amount"`
	UserID        uint                     `json:"user_id,omitempty"`
	BorrowerName  string                   `json:"borrower_name,omitempty"`
	BorrowerEmail string                   `json:"borrower_email,omitempty"`
}

func newBorrowingView(b *entities.Borrowing, today time.Time, withBorrower bool) borrowingView {
	v := borrowingView{
		ID:           b.ID,
		BookID:       b.BookID,
		BorrowedDate: b.BorrowedDate.Format(dateLayout),
		DueDate:      b.DueDate.Format(dateLayout),
		Status:       b.EffectiveStatus(today),
		FineAmount:   b.FineAmount,
	}
	if b.ReturnDate != nil {
		d := b.ReturnDate.Format(dateLayout)
		v.ReturnDate = &d
	}
	if b.Book != nil {
		v.Title = b.Book.Title
		v.Author = b.Book.Author
		v.ISBN = b.Book.ISBN
		v.CoverImage = b.Book.CoverImage
	}
	if withBorrower {
		v.UserID = b.UserID
		if b.User != nil {
			v.BorrowerName = b.User.FullName()
			v.BorrowerEmail = b.User.Email
		}
	}
	return v
}

func newBorrowingViews(list []entities.Borrowing, today time.Time, withBorrower bool) []borrowingView {
	out := make([]borrowingView, 0, len(list))
	for i := range list {
		out = append(out, newBorrowingView(&list[i], today, withBorrower))
	}
	return out
}

type reservationView struct {
	ID           uint                       `json:"id"`
	BookID       uint                       `json:"book_id"`
	Title        string                     `json:"title"`
	Author       string                     `json:"author"`
	CoverImage   string                     `json:"cover_image"`
	Availability entities.Availability      `json:"availability,omitempty"`
	ReservedDate string                     `json:"reserved_date"`
	ExpiryDate   string                     `json:"expiry_date"`
	Status       entities.ReservationStatus `json:"status"`
	UserID       uint                       `json:"user_id,omitempty"`
	UserName     string                     `json:"user_name,omitempty"`
	UserEmail    string                     `json:"user_email,omitempty"`
}

func newReservationView(r *entities.Reservation, now time.Time, withOwner bool) reservationView {
	v := reservationView{
		ID:           r.ID,
		BookID:       r.BookID,
		ReservedDate: r.ReservedDate.Format(dateLayout),
		ExpiryDate:   r.ExpiryDate.Format(dateLayout),
		Status:       r.EffectiveStatus(now),
	}
	if r.Book != nil {
		v.Title = r.Book.Title
		v.Author = r.Book.Author
		v.CoverImage = r.Book.CoverImage
		v.Availability = r.Book.Availability
	}
	if withOwner {
		v.UserID = r.UserID
		if r.User != nil {
			v.UserName = r.User.FullName()
			v.UserEmail = r.User.Email
		}
	}
	return v
}

func newReservationViews(list []entities.Reservation, now time.Time, withOwner bool) []reservationView {
	out := make([]reservationView, 0, len(list))
	for i := range list {
		out = append(out, newReservationView(&list[i], now, withOwner))
	}
	return out
}

type bookmarkView struct {
	ID           uint                  `json:"id"`
	BookID       uint                  `json:"book_id"`
	Title        string                `json:"title"`
	Author       string                `json:"author"`
	ISBN         string                `json:"isbn"`
	Category     string                `json:"category"`
	CoverImage   string                `json:"cover_image"`
	Availability entities.Availability `json:"availability"`
	Rating       float64               `json:"rating"`
	CreatedAt    time.Time             `json:"created_at"`
}

func newBookmarkViews(list []entities.Bookmark) []bookmarkView {
	out := make([]bookmarkView, 0, len(list))
	for _, b := range list {
		v := bookmarkView{ID: b.ID, BookID: b.BookID, CreatedAt: b.CreatedAt}
		if b.Book != nil {
			v.Title = b.Book.Title
			v.Author = b.Book.Author
			v.ISBN = b.Book.ISBN
			v.Category = b.Book.CategoryName()
			v.CoverImage = b.Book.CoverImage
			v.Availability = b.Book.Availability
			v.Rating = b.Book.Rating
		}
		out = append(out, v)
	}
	return out
}

type notificationView struct {
	ID        uint                          `json:"id"`
	Type      entities.NotificationType     `json:"type"`
	Title     string                        `json:"title"`
	Message   string                        `json:"message"`
	BookID    *uint                         `json:"book_id"`
	BookTitle string                        `json:"book_title"`
	IsRead    bool                          `json:"is_read"`
	Priority  entities.NotificationPriority `json:"priority"`
	CreatedAt time.Time                     `json:"created_at"`
}

func newNotificationView(n *entities.Notification) notificationView {
	v := notificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		BookID:    n.BookID,
		IsRead:    n.IsRead,
		Priority:  n.Priority,
		CreatedAt: n.CreatedAt,
	}
	if n.Book != nil {
		v.BookTitle = n.Book.Title
	}
	return v
}

func newNotificationViews(list []entities.Notification) []notificationView {
	out := make([]notificationView, 0, len(list))
	for i := range list {
		out = append(out, newNotificationView(&list[i]))
	}
	return out
}

type logView struct {
	ID        uint              `json:"id"`
	UserID    *uint             `json:"user_id"`
	UserName  string            `json:"user_name"`
	UserEmail string            `json:"user_email"`
	Action    string            `json:"action"`
	Details   string            `json:"details"`
	Level     entities.LogLevel `json:"level"`
	IPAddress string            `json:"ip_address"`
	Timestamp string            `json:"timestamp"`
	CreatedAt time.Time         `json:"created_at"`
}

func newLogView(l *entities.SystemLog) logView {
	v := logView{
		ID:        l.ID,
		UserID:    l.UserID,
		UserName:  "System",
		Action:    l.Action,
		Details:   l.Details,
		Level:     l.Level,
		IPAddress: l.IPAddress,
		Timestamp: l.CreatedAt.Format("2006-01-02 15:04:05"),
		CreatedAt: l.CreatedAt,
	}
	if l.User != nil {
		v.UserName = l.User.FullName()
		v.UserEmail = l.User.Email
	}
	return v
}

func newLogViews(list []entities.SystemLog) []logView {
	out := make([]logView, 0, len(list))
	for i := range list {
		out = append(out, newLogView(&list[i]))
	}
	return out
}

type userView struct {
	ID           uint                `json:"id"`
	FirstName    string              `json:"first_name"`
	MiddleName   string              `json:"middle_name"`
	LastName     string              `json:"last_name"`
	Suffix       string              `json:"suffix"`
	FullName     string              `json:"full_name"`
	Email        string              `json:"email"`
	Role         entities.UserRole   `json:"role"`
	ProfileImage string              `json:"profile_image"`
	Phone        string              `json:"phone"`
	Address      string              `json:"address"`
	Status       entities.UserStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	LastLogin    *time.Time          `json:"last_login"`
}

func newUserView(u *entities.User) userView {
	return userView{
		ID:           u.ID,
		FirstName:    u.FirstName,
		MiddleName:   u.MiddleName,
		LastName:     u.LastName,
		Suffix:       u.Suffix,
		FullName:     u.FullName(),
		Email:        u.Email,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
		Phone:        u.Phone,
		Address:      u.Address,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
}

func newUserViews(list []entities.User) []userView {
	out := make([]userView, 0, len(list))
	for i := range list {
		out = append(out, newUserView(&list[i]))
	}
	return out
}

// listPayload is the common {items, count} shape of list endpoints.
func listPayload(key string, items any, count int) gin.H {
	return gin.H{key: items, "count": count}
}
