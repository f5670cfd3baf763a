package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database/users"
	"github.com/mrlokans/booktrack/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrCredentialsRequired = apperrors.Validation("Email and password are required")
	ErrInvalidCredentials  = apperrors.Unauthorized("Invalid email or password")
	ErrAccountInactive     = apperrors.Forbidden("Account is suspended or inactive")
	ErrRequiredFields      = apperrors.Validation("All required fields must be filled")
	ErrPasswordMismatch    = apperrors.Validation("Passwords do not match")
	ErrEmailInvalid        = apperrors.Validation("Invalid email format")
	ErrEmailTaken          = apperrors.Conflict("Email already registered")
	ErrInvalidRole         = apperrors.Validation("Invalid role")
	ErrNotAuthenticated    = apperrors.Unauthorized("Not authenticated")
	ErrSessionInvalid      = apperrors.Unauthorized("Session invalid")
	ErrAccountSuspended    = apperrors.Forbidden("Account is suspended")
	ErrCurrentPassword     = apperrors.Unauthorized("Current password is incorrect")
	ErrUserNotFound        = apperrors.NotFound("User not found")
)

// Registration is the input of a new account.
type Registration struct {
	FirstName       string `json:"firstName"`
	MiddleName      string `json:"middleName"`
	LastName        string `json:"lastName"`
	Suffix          string `json:"suffix"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r *Registration) trim() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.MiddleName = strings.TrimSpace(r.MiddleName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Suffix = strings.TrimSpace(r.Suffix)
	r.Email = strings.TrimSpace(r.Email)
}

// validate runs the checks in the order the client sees them.
func (r Registration) validate() error {
	if r.FirstName == "" || r.LastName == "" || r.Email == "" || r.Password == "" || r.ConfirmPassword == "" {
		return ErrRequiredFields
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if len(r.Email) > 254 || !emailPattern.MatchString(r.Email) {
		return ErrEmailInvalid
	}
	return nil
}

// Service handles authentication and account creation.
type Service struct {
	users         *users.Repository
	config        config.Auth
	now           func() time.Time
	checkPassword func(password, hash string) error

	dummyOnce sync.Once
	dummy     string
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:         repo,
		config:        cfg,
		now:           func() time.Time { return time.Now().UTC() },
		checkPassword: CheckPassword,
	}
}

// dummyHash is compared against when the email is unknown, so both failure
// paths pay for one bcrypt comparison at the configured cost.
func (s *Service) dummyHash() string {
	s.dummyOnce.Do(func() {
		secret, err := GenerateSessionSecret()
		if err != nil {
			secret = "booktrack-unknown-account"
		}
		hash, err := HashPassword(secret, s.config.BcryptCost)
		if err != nil {
			return
		}
		s.dummy = hash
	})
	return s.dummy
}

// Login verifies credentials and stamps last_login. Unknown emails and wrong
// passwords yield the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = s.checkPassword(password, s.dummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.checkPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	return user, nil
}

// Register creates a regular active account.
func (s *Service) Register(ctx context.Context, reg Registration) (*entities.User, error) {
	return s.create(ctx, reg, entities.RoleUser)
}

// CreateUser creates an account with any role. Used by the bootstrap CLI.
func (s *Service) CreateUser(ctx context.Context, reg Registration, role entities.UserRole) (*entities.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.create(ctx, reg, role)
}

func (s *Service) create(ctx context.Context, reg Registration, role entities.UserRole) (*entities.User, error) {
	reg.trim()
	if err := reg.validate(); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, reg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(reg.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		FirstName:    reg.FirstName,
		MiddleName:   reg.MiddleName,
		LastName:     reg.LastName,
		Suffix:       reg.Suffix,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       entities.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CheckSession resolves the user behind a session.
func (s *Service) CheckSession(ctx context.Context, userID uint) (*entities.User, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrAccountSuspended
	}
	return user, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(current, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return ErrCurrentPassword
		}
		return err
	}

	hash, err := HashPassword(next, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
