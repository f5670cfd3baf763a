package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/database/notifications"
	"github.com/mrlokans/booktrack/internal/services"
)

const defaultNotificationPage = 50

// NotificationsController serves /api/notifications. Users only ever see
// their own inbox.
type NotificationsController struct {
	inbox *services.NotificationService
}

func NewNotificationsController(inbox *services.NotificationService) *NotificationsController {
	return &NotificationsController{inbox: inbox}
}

func (nc *NotificationsController) Handle(c *gin.Context) {
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
		if id != 0 {
			nc.get(c, actor, id)
			return
		}
		nc.list(c, actor)
	case http.MethodPut:
		switch {
		case action == "read-all":
			n, err := nc.inbox.MarkAllRead(c.Request.Context(), actor)
			if err != nil {
				writeError(c, err)
				return
			}
			respond(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": n})
		case id == 0:
			respondBadRequest(c, "Notification ID or action required")
		case action == "read":
			if err := nc.inbox.MarkRead(c.Request.Context(), actor, id); err != nil {
				writeError(c, err)
				return
			}
			respondMessage(c, "Notification marked as read")
		default:
			var patch notifications.Patch
			if !bindJSON(c, &patch) {
				return
			}
			if err := nc.inbox.Update(c.Request.Context(), actor, id, patch); err != nil {
				writeError(c, err)
				return
			}
			respondMessage(c, "Notification updated")
		}
	case http.MethodDelete:
		switch {
		case action == "clear-all":
			n, err := nc.inbox.Clear(c.Request.Context(), actor)
			if err != nil {
				writeError(c, err)
				return
			}
			respond(c, http.StatusOK, "All notifications cleared", gin.H{"deleted": n})
		case id == 0:
			respondBadRequest(c, "Notification ID or action required")
		default:
			if err := nc.inbox.Delete(c.Request.Context(), actor, id); err != nil {
				writeError(c, err)
				return
			}
			respondMessage(c, "Notification deleted")
		}
	default:
		respondMethodNotAllowed(c)
	}
}

func (nc *NotificationsController) list(c *gin.Context, actor services.Actor) {
	filter := c.DefaultQuery("filter", "all")
	limit, offset := parsePage(c, defaultNotificationPage, 0)

	page, err := nc.inbox.List(c.Request.Context(), actor, filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, gin.H{
		"notifications": newNotificationViews(page.Notifications),
		"count":         len(page.Notifications),
		"unread_count":  page.UnreadCount,
	})
}

func (nc *NotificationsController) get(c *gin.Context, actor services.Actor, id uint) {
	n, err := nc.inbox.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, gin.H{"notification": newNotificationView(n)})
}
