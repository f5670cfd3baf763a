package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/database/users"
	"github.com/mrlokans/booktrack/internal/entities"
)

var (
	ErrSelfDelete              = apperrors.Validation("Cannot delete your own account")
	ErrSelfRoleChange          = apperrors.Validation("Cannot change your own role")
	ErrCurrentPasswordRequired = apperrors.Validation("Current password is required")
	ErrPasswordChangeOthers    = apperrors.Forbidden("Cannot change another user's password")
)

// ProfileRequest is a profile edit, optionally with a password change.
type ProfileRequest struct {
	users.ProfileUpdate
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r ProfileRequest) changesPassword() bool {
	return r.NewPassword != "" || r.CurrentPassword != ""
}

// UserService manages accounts other than through login and registration.
type UserService struct {
	users *users.Repository
	auth  *auth.Service
	audit *audit.Service
}

func NewUserService(repo *users.Repository, authService *auth.Service, auditService *audit.Service) *UserService {
	return &UserService{users: repo, auth: authService, audit: auditService}
}

// Get returns a user. Only the user themselves and administrators may look.
func (s *UserService) Get(ctx context.Context, actor Actor, id uint) (*entities.User, error) {
	if id != actor.UserID && !auth.Can(actor.Role, auth.Administrators...) {
		return nil, ErrAccessDenied
	}
	return s.auth.GetUser(ctx, id)
}

// List returns accounts for administrators.
func (s *UserService) List(ctx context.Context, actor Actor, f users.Filter) ([]entities.User, error) {
	if !auth.Can(actor.Role, auth.Administrators...) {
		return nil, ErrAdminRequired
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, users.ErrInvalidStatus
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, users.ErrInvalidRole
	}
	return s.users.List(ctx, f)
}

// UpdateProfile edits the target account (the actor's own when targetID is 0).
// Administrators may edit others and set status; role changes apply to
// other accounts only. Passwords can only be changed by their owner.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, targetID uint, req ProfileRequest) (*entities.User, error) {
	if targetID == 0 {
		targetID = actor.UserID
	}
	self := targetID == actor.UserID
	isAdmin := auth.Can(actor.Role, auth.Administrators...)

	if !self && !isAdmin {
		return nil, ErrAccessDenied
	}
	if (req.Status != nil || req.Role != nil) && !isAdmin {
		return nil, ErrAccessDenied
	}
	if req.Role != nil && self {
		return nil, ErrSelfRoleChange
	}
	if req.ProfileUpdate.IsEmpty() && !req.changesPassword() {
		return nil, ErrNoFields
	}
	if err := req.ProfileUpdate.Validate(); err != nil {
		return nil, err
	}

	if req.changesPassword() {
		if !self {
			return nil, ErrPasswordChangeOthers
		}
		if strings.TrimSpace(req.CurrentPassword) == "" {
			return nil, ErrCurrentPasswordRequired
		}
		if err := auth.ValidatePassword(req.NewPassword); err != nil {
			return nil, err
		}
	}

	if _, err := s.auth.GetUser(ctx, targetID); err != nil {
		return nil, err
	}

	if req.changesPassword() {
		if err := s.auth.ChangePassword(ctx, targetID, req.CurrentPassword, req.NewPassword); err != nil {
			return nil, err
		}
	}
	if !req.ProfileUpdate.IsEmpty() {
		if err := s.users.Update(ctx, targetID, req.ProfileUpdate); err != nil {
			return nil, notFound(err, auth.ErrUserNotFound)
		}
	}

	details := ""
	if !self {
		details = fmt.Sprintf("user_id=%d", targetID)
	}
	s.audit.LogAsync(audit.Event{
		UserID:  actor.UserID,
		Action:  "Profile updated",
		Details: details,
		Level:   entities.LogLevelInfo,
		IP:      actor.IP,
	})
	return s.auth.GetUser(ctx, targetID)
}

// Delete removes an account and its dependent rows.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !auth.Can(actor.Role, auth.Administrators...) {
		return ErrAdminRequired
	}
	if id == actor.UserID {
		return ErrSelfDelete
	}
	user, err := s.auth.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound(err, auth.ErrUserNotFound)
	}

	s.audit.LogAsync(audit.Event{
		UserID: actor.UserID,
		Action: "User deleted: " + user.Email,
		Level:  entities.LogLevelWarning,
		IP:     actor.IP,
	})
	return nil
}
