// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByEmail(ctx, "reader@example.com")
package users

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Status entities.UserStatus
	Role   entities.UserRole
	Limit  int
	Offset int
}

// ProfileUpdate is a partial update of a user row. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName    *string              `json:"first_name"`
	MiddleName   *string              `json:"middle_name"`
	LastName     *string              `json:"last_name"`
	Suffix       *string              `json:"suffix"`
	Phone        *string              `json:"phone"`
	Address      *string              `json:"address"`
	ProfileImage *string              `json:"profile_image"`
	Status       *entities.UserStatus `json:"status"`
	Role         *entities.UserRole   `json:"role"`
}

var (
	ErrNameRequired  = apperrors.Validation("First and last name cannot be empty")
	ErrInvalidStatus = apperrors.Validation("Invalid status value")
	ErrInvalidRole   = apperrors.Validation("Invalid role value")
)

// Validate checks field values before any query runs.
func (u ProfileUpdate) Validate() error {
	if u.FirstName != nil && strings.TrimSpace(*u.FirstName) == "" {
		return ErrNameRequired
	}
	if u.LastName != nil && strings.TrimSpace(*u.LastName) == "" {
		return ErrNameRequired
	}
	if u.Status != nil && !u.Status.Valid() {
		return ErrInvalidStatus
	}
	if u.Role != nil && !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// Columns maps the set fields to column names.
func (u ProfileUpdate) Columns() map[string]any {
	cols := make(map[string]any)
	setString := func(name string, v *string) {
		if v != nil {
			cols[name] = strings.TrimSpace(*v)
		}
	}
	setString("first_name", u.FirstName)
	setString("middle_name", u.MiddleName)
	setString("last_name", u.LastName)
	setString("suffix", u.Suffix)
	setString("phone", u.Phone)
	setString("address", u.Address)
	setString("profile_image", u.ProfileImage)
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.Role != nil {
		cols["role"] = *u.Role
	}
	return cols
}

// IsEmpty reports whether no field is set.
func (u ProfileUpdate) IsEmpty() bool {
	return len(u.Columns()) == 0
}

// Create inserts a new user. Email is stored lower-cased.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	user.Email = normalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether an account already uses email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

// List returns users newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]entities.User, error) {
	query := r.db.WithContext(ctx).Model(&entities.User{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var list []entities.User
	err := query.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// Update applies a profile update. Returns gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) Update(ctx context.Context, id uint, u ProfileUpdate) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Updates(u.Columns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// Delete removes a user; dependent rows go with it via foreign key cascades.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
