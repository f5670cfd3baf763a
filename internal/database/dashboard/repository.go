// Package dashboard runs the read-only aggregate queries behind the user
// and admin dashboards.
package dashboard

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/entities"
)

const (
	ActivityWindow = 30 * 24 * time.Hour
	activityLimit  = 10
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type Activity struct {
	Type        string    `json:"type"` // borrow or reservation
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	BookID      uint      `json:"book_id"`
	Description string    `json:"description"`
}

type UserStats struct {
	TotalBooks     int64      `json:"total_books"`
	ReadingBooks   int64      `json:"reading_books"`
	CompletedBooks int64      `json:"completed_books"`
	WishlistBooks  int64      `json:"wishlist_books"`
	OverdueCount   int64      `json:"overdue_count"`
	RecentActivity []Activity `json:"recent_activity"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type AdminStats struct {
	TotalUsers       int64
	ActiveUsers      int64
	TotalBooks       int64
	ActiveBorrowings int64
	PendingRequests  int64
	OverdueBooks     int64
	SystemActivity   []entities.SystemLog
	Categories       []CategoryCount
}

// counter collects the first error across a run of COUNT queries.
type counter struct {
	ctx context.Context
	db  *gorm.DB
	err error
}

func (c *counter) count(model any, dst *int64, where string, args ...any) {
	if c.err != nil {
		return
	}
	query := c.db.WithContext(c.ctx).Model(model)
	if where != "" {
		query = query.Where(where, args...)
	}
	c.err = query.Count(dst).Error
}

// UserStats summarizes one user's activity. today is the current UTC date
// and now the current instant.
func (r *Repository) UserStats(ctx context.Context, userID uint, today, now time.Time) (*UserStats, error) {
	stats := &UserStats{RecentActivity: []Activity{}}
	c := &counter{ctx: ctx, db: r.db}

	c.count(&entities.Book{}, &stats.TotalBooks, "")
	c.count(&entities.Borrowing{}, &stats.ReadingBooks, "user_id = ? AND status = ?", userID, entities.BorrowingStatusBorrowed)
	c.count(&entities.Borrowing{}, &stats.CompletedBooks, "user_id = ? AND status = ?", userID, entities.BorrowingStatusReturned)
	c.count(&entities.Bookmark{}, &stats.WishlistBooks, "user_id = ?", userID)
	c.count(&entities.Borrowing{}, &stats.OverdueCount, "user_id = ? AND status = ? AND due_date < ?",
		userID, entities.BorrowingStatusBorrowed, today)
	if c.err != nil {
		return nil, c.err
	}

	since := now.Add(-ActivityWindow)

	var loans []entities.Borrowing
	err := r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ? AND borrowed_date >= ?", userID, since).
		Order("borrowed_date DESC, id DESC").Limit(activityLimit).
		Find(&loans).Error
	if err != nil {
		return nil, err
	}

	var holds []entities.Reservation
	err = r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ? AND status <> ? AND reserved_date >= ?", userID, entities.ReservationStatusCancelled, since).
		Order("reserved_date DESC, id DESC").Limit(activityLimit).
		Find(&holds).Error
	if err != nil {
		return nil, err
	}

	for _, l := range loans {
		stats.RecentActivity = append(stats.RecentActivity, activity("borrow", "Borrowed ", l.BorrowedDate, l.BookID, l.Book))
	}
	for _, h := range holds {
		stats.RecentActivity = append(stats.RecentActivity, activity("reservation", "Reserved ", h.ReservedDate, h.BookID, h.Book))
	}
	sort.SliceStable(stats.RecentActivity, func(i, j int) bool {
		return stats.RecentActivity[i].Date.After(stats.RecentActivity[j].Date)
	})
	if len(stats.RecentActivity) > activityLimit {
		stats.RecentActivity = stats.RecentActivity[:activityLimit]
	}

	return stats, nil
}

func activity(kind, verb string, date time.Time, bookID uint, book *entities.Book) Activity {
	a := Activity{Type: kind, Date: date, BookID: bookID}
	if book != nil {
		a.Title = book.Title
		a.Description = verb + book.Title
	}
	return a
}

// AdminStats summarizes the whole library.
func (r *Repository) AdminStats(ctx context.Context, today, now time.Time) (*AdminStats, error) {
	stats := &AdminStats{}
	c := &counter{ctx: ctx, db: r.db}

	c.count(&entities.User{}, &stats.TotalUsers, "role = ?", entities.RoleUser)
	c.count(&entities.User{}, &stats.ActiveUsers, "role = ? AND last_login >= ?", entities.RoleUser, now.Add(-ActivityWindow))
	c.count(&entities.Book{}, &stats.TotalBooks, "")
	c.count(&entities.Borrowing{}, &stats.ActiveBorrowings, "status = ?", entities.BorrowingStatusBorrowed)
	c.count(&entities.Reservation{}, &stats.PendingRequests, "status = ?", entities.ReservationStatusPending)
	c.count(&entities.Borrowing{}, &stats.OverdueBooks, "status = ? AND due_date < ?", entities.BorrowingStatusBorrowed, today)
	if c.err != nil {
		return nil, c.err
	}

	err := r.db.WithContext(ctx).Preload("User").
		Order("created_at DESC, id DESC").Limit(activityLimit).
		Find(&stats.SystemActivity).Error
	if err != nil {
		return nil, err
	}

	stats.Categories = []CategoryCount{}
	err = r.db.WithContext(ctx).Table("categories").
		Select("categories.name AS name, COUNT(books.id) AS count").
		Joins("LEFT JOIN books ON books.category_id = categories.id").
		Group("categories.id, categories.name").
		Order("count DESC, categories.name ASC").
		Scan(&stats.Categories).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
