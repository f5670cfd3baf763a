package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/database/logs"
	"github.com/mrlokans/booktrack/internal/entities"
	"github.com/mrlokans/booktrack/internal/services"
)

// LogsController serves /api/logs for catalog staff.
type LogsController struct {
	logs *services.LogService
}

func NewLogsController(logService *services.LogService) *LogsController {
	return &LogsController{logs: logService}
}

func (lc *LogsController) Handle(c *gin.Context) {
	actor, ok := requireRole(c, "Admin access required", auth.CatalogStaff...)
	if !ok {
		return
	}
	id, ok := queryID(c, "id")
	if !ok {
		return
	}

	switch c.Request.Method {
	case http.MethodGet:
		if id != 0 {
			entry, err := lc.logs.Get(c.Request.Context(), actor, id)
			if err != nil {
				writeError(c, err)
				return
			}
			respondOK(c, gin.H{"log": newLogView(entry)})
			return
		}
		lc.list(c, actor)
	case http.MethodDelete:
		if id == 0 {
			respondBadRequest(c, "Log ID required")
			return
		}
		if err := lc.logs.Delete(c.Request.Context(), actor, id); err != nil {
			writeError(c, err)
			return
		}
		respondMessage(c, "Log deleted successfully")
	default:
		respondMethodNotAllowed(c)
	}
}

func (lc *LogsController) list(c *gin.Context, actor services.Actor) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	limit, offset := parsePage(c, logs.DefaultLimit, 0)

	entries, total, err := lc.logs.List(c.Request.Context(), actor, logs.Filter{
		Level:  entities.LogLevel(c.Query("level")),
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, gin.H{
		"logs":  newLogViews(entries),
		"count": len(entries),
		"total": total,
	})
}
