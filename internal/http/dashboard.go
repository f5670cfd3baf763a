package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/services"
)

// DashboardController serves /api/dashboard. Read-only.
type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (dc *DashboardController) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		respondMethodNotAllowed(c)
		return
	}

	switch c.DefaultQuery("type", "user") {
	case "admin":
		dc.admin(c)
	default:
		dc.user(c)
	}
}

func (dc *DashboardController) user(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	stats, err := dc.dashboard.User(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, gin.H{"data": stats})
}

func (dc *DashboardController) admin(c *gin.Context) {
	actor, ok := requireRole(c, "Admin access required", auth.Administrators...)
	if !ok {
		return
	}
	stats, err := dc.dashboard.Admin(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	respondOK(c, gin.H{"data": gin.H{
		"total_users":       stats.TotalUsers,
		"active_users":      stats.ActiveUsers,
		"total_books":       stats.TotalBooks,
		"active_borrowings": stats.ActiveBorrowings,
		"pending_requests":  stats.PendingRequests,
		"overdue_books":     stats.OverdueBooks,
		"system_activity":   newLogViews(stats.SystemActivity),
		"categories":        stats.Categories,
	}})
}
