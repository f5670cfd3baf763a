package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/database/dashboard"
)

// DashboardService computes read-only dashboard figures.
type DashboardService struct {
	stats *dashboard.Repository
	now   func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{
		stats: dashboard.NewRepository(db),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *DashboardService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *DashboardService) User(ctx context.Context, actor Actor) (*dashboard.UserStats, error) {
	now := s.now()
	return s.stats.UserStats(ctx, actor.UserID, startOfDay(now), now)
}

// Admin returns library-wide figures for administrators.
func (s *DashboardService) Admin(ctx context.Context, actor Actor) (*dashboard.AdminStats, error) {
	if !auth.Can(actor.Role, auth.Administrators...) {
		return nil, ErrAdminRequired
	}
	now := s.now()
	return s.stats.AdminStats(ctx, startOfDay(now), now)
}
