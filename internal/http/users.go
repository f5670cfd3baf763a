package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/database/users"
	"github.com/mrlokans/booktrack/internal/entities"
	"github.com/mrlokans/booktrack/internal/services"
)

const (
	defaultUserPage = 50
	maxUserPage     = 500
)

// UsersController serves /api/users.
type UsersController struct {
	users *services.UserService
}

func NewUsersController(userService *services.UserService) *UsersController {
	return &UsersController{users: userService}
}

func (uc *UsersController) Handle(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := queryID(c, "id")
	if !ok {
		return
	}
	action := c.Query("action")

	switch c.Request.Method {
	case http.MethodGet:
		switch {
		case action == "profile":
			uc.get(c, actor, actor.UserID)
		case action == "list":
			uc.list(c, actor)
		case id != 0:
			uc.get(c, actor, id)
		default:
			respondBadRequest(c, "User ID or action required")
		}
	case http.MethodPut:
		if action != "profile" {
			respondBadRequest(c, "Invalid action")
			return
		}
		var req services.ProfileRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := uc.users.UpdateProfile(c.Request.Context(), actor, id, req)
		if err != nil {
			writeError(c, err)
			return
		}
		respond(c, http.StatusOK, "Profile updated successfully", gin.H{"user": newUserView(user)})
	case http.MethodDelete:
		if id == 0 {
			respondBadRequest(c, "User ID required")
			return
		}
		if err := uc.users.Delete(c.Request.Context(), actor, id); err != nil {
			writeError(c, err)
			return
		}
		respondMessage(c, "User deleted successfully")
	default:
		respondMethodNotAllowed(c)
	}
}

func (uc *UsersController) get(c *gin.Context, actor services.Actor, id uint) {
	user, err := uc.users.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, gin.H{"user": newUserView(user)})
}

func (uc *UsersController) list(c *gin.Context, actor services.Actor) {
	limit, offset := parsePage(c, defaultUserPage, maxUserPage)
	list, err := uc.users.List(c.Request.Context(), actor, users.Filter{
		Status: entities.UserStatus(c.Query("status")),
		Role:   entities.UserRole(c.Query("role")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, listPayload("users", newUserViews(list), len(list)))
}
