package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database/dbtest"
	"github.com/mrlokans/booktrack/internal/database/users"
	"github.com/mrlokans/booktrack/internal/entities"
)

func setupUsers(t *testing.T) (*UserService, *auth.Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	repo := users.NewRepository(db)
	authService := auth.NewService(repo, config.Auth{BcryptCost: 4})
	return NewUserService(repo, authService, newAudit(db)), authService, db
}

func registerUser(t *testing.T, svc *auth.Service, email string, role entities.UserRole) *entities.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), auth.Registration{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, role)
	require.NoError(t, err)
	return user
}

func TestUsers_GetAccess(t *testing.T) {
	svc, authService, _ := setupUsers(t)
	ctx := context.Background()
	reader := registerUser(t, authService, "reader@example.com", entities.RoleUser)
	other := registerUser(t, authService, "other@example.com", entities.RoleUser)
	admin := registerUser(t, authService, "admin@example.com", entities.RoleAdmin)

	got, err := svc.Get(ctx, Actor{UserID: reader.ID, Role: reader.Role}, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", got.Email)

	_, err = svc.Get(ctx, Actor{UserID: reader.ID, Role: reader.Role}, other.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Get(ctx, Actor{UserID: admin.ID, Role: admin.Role}, other.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, Actor{UserID: admin.ID, Role: admin.Role}, 999)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = svc.List(ctx, Actor{UserID: reader.ID, Role: reader.Role}, users.Filter{})
	assert.ErrorIs(t, err, ErrAdminRequired)

	list, err := svc.List(ctx, Actor{UserID: admin.ID, Role: admin.Role}, users.Filter{Role: entities.RoleUser})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUsers_UpdateProfile(t *testing.T) {
	svc, authService, db := setupUsers(t)
	ctx := context.Background()
	reader := registerUser(t, authService, "reader@example.com", entities.RoleUser)
	other := registerUser(t, authService, "other@example.com", entities.RoleUser)
	admin := registerUser(t, authService, "admin@example.com", entities.RoleLibraryAdmin)
	self := Actor{UserID: reader.ID, Role: reader.Role}
	adminActor := Actor{UserID: admin.ID, Role: admin.Role}

	updated, err := svc.UpdateProfile(ctx, self, 0, ProfileRequest{ProfileUpdate: users.ProfileUpdate{Phone: ptr(" 555-0100 ")}})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Phone)
	eventuallyLogged(t, db, "Profile updated")

	tests := []struct {
		name   string
		actor  Actor
		target uint
		req    ProfileRequest
		want   error
	}{
		{"no fields", self, 0, ProfileRequest{}, ErrNoFields},
		{"other user as reader", self, other.ID, ProfileRequest{ProfileUpdate: users.ProfileUpdate{Phone: ptr("1")}}, ErrAccessDenied},
		{"status as reader", self, 0, ProfileRequest{ProfileUpdate: users.ProfileUpdate{Status: ptr(entities.UserStatusInactive)}}, ErrAccessDenied},
		{"own role as admin", adminActor, 0, ProfileRequest{ProfileUpdate: users.ProfileUpdate{Role: ptr(entities.RoleUser)}}, ErrSelfRoleChange},
		{"empty first name", self, 0, ProfileRequest{ProfileUpdate: users.ProfileUpdate{FirstName: ptr(" ")}}, users.ErrNameRequired},
		{"password without current", self, 0, ProfileRequest{NewPassword: "another1"}, ErrCurrentPasswordRequired},
		{"short new password", self, 0, ProfileRequest{CurrentPassword: "secret1", NewPassword: "abc"}, auth.ErrPasswordTooShort},
		{"wrong current password", self, 0, ProfileRequest{CurrentPassword: "nope", NewPassword: "another1"}, auth.ErrCurrentPassword},
		{"password of someone else", adminActor, other.ID, ProfileRequest{CurrentPassword: "secret1", NewPassword: "another1"}, ErrPasswordChangeOthers},
		{"missing user", adminActor, 999, ProfileRequest{ProfileUpdate: users.ProfileUpdate{Phone: ptr("1")}}, auth.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, tt.actor, tt.target, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	promoted, err := svc.UpdateProfile(ctx, adminActor, other.ID, ProfileRequest{ProfileUpdate: users.ProfileUpdate{
		Role:   ptr(entities.RoleLibraryModerator),
		Status: ptr(entities.UserStatusSuspended),
	}})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleLibraryModerator, promoted.Role)
	assert.Equal(t, entities.UserStatusSuspended, promoted.Status)

	_, err = svc.UpdateProfile(ctx, self, 0, ProfileRequest{CurrentPassword: "secret1", NewPassword: "another1"})
	require.NoError(t, err)
	_, err = authService.Login(ctx, "reader@example.com", "another1")
	assert.NoError(t, err)
}

func TestUsers_Delete(t *testing.T) {
	svc, authService, db := setupUsers(t)
	ctx := context.Background()
	reader := registerUser(t, authService, "reader@example.com", entities.RoleUser)
	admin := registerUser(t, authService, "admin@example.com", entities.RoleAdmin)
	adminActor := Actor{UserID: admin.ID, Role: admin.Role}

	assert.ErrorIs(t, svc.Delete(ctx, Actor{UserID: reader.ID, Role: reader.Role}, admin.ID), ErrAdminRequired)
	assert.ErrorIs(t, svc.Delete(ctx, adminActor, admin.ID), ErrSelfDelete)
	assert.ErrorIs(t, svc.Delete(ctx, adminActor, 999), auth.ErrUserNotFound)

	book := dbtest.Book(t, db, "Dune", "Frank Herbert")
	require.NoError(t, db.Create(&entities.Bookmark{UserID: reader.ID, BookID: book.ID}).Error)

	require.NoError(t, svc.Delete(ctx, adminActor, reader.ID))
	eventuallyLogged(t, db, "User deleted: reader@example.com")

	var bookmarks int64
	db.Model(&entities.Bookmark{}).Where("user_id = ?", reader.ID).Count(&bookmarks)
	assert.Zero(t, bookmarks)
}
