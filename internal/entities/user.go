package entities

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleUser             UserRole = "user"
	RoleAdmin            UserRole = "admin"
	RoleLibraryAdmin     UserRole = "library_admin"
	RoleLibraryModerator UserRole = "library_moderator"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleLibraryAdmin, RoleLibraryModerator:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusInactive  UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusSuspended, UserStatusInactive:
		return true
	}
	return false
}

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	MiddleName   string     `gorm:"size:100" json:"middle_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Suffix       string     `gorm:"size:20" json:"suffix"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         UserRole   `gorm:"index;size:30;not null;default:user" json:"role"`
	Status       UserStatus `gorm:"index;size:20;not null;default:active" json:"status"`
	Phone        string     `gorm:"size:30" json:"phone"`
	Address      string     `gorm:"size:500" json:"address"`
	ProfileImage string     `gorm:"size:1024" json:"profile_image"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins the non-empty name parts with single spaces.
func (u *User) FullName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName, u.Suffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
