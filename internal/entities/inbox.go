package entities

import "time"

type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_bookmarks_user_book;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BookID    uint      `gorm:"uniqueIndex:idx_bookmarks_user_book;not null" json:"book_id"`
	Book      *Book     `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

type NotificationType string

const (
	NotificationSystem    NotificationType = "system"
	NotificationDue       NotificationType = "due"
	NotificationAvailable NotificationType = "available"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationSystem, NotificationDue, NotificationAvailable:
		return true
	}
	return false
}

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

func (p NotificationPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Notification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	UserID    uint                 `gorm:"index;not null" json:"user_id"`
	User      *User                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Type      NotificationType     `gorm:"index;size:20;not null" json:"type"`
	Title     string               `gorm:"size:255;not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	BookID    *uint                `gorm:"index" json:"book_id"`
	Book      *Book                `gorm:"foreignKey:BookID;constraint:OnDelete:SET NULL" json:"-"`
	IsRead    bool                 `gorm:"index;default:false" json:"is_read"`
	Priority  NotificationPriority `gorm:"size:10;not null;default:medium" json:"priority"`
	CreatedAt time.Time            `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
