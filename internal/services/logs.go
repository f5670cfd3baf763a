package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/apperrors"
	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/database/logs"
	"github.com/mrlokans/booktrack/internal/entities"
)

var ErrLogNotFound = apperrors.NotFound("Log not found")

// LogService exposes the system log to catalog staff.
type LogService struct {
	logs  *logs.Repository
	audit *audit.Service
}

func NewLogService(db *gorm.DB, auditService *audit.Service) *LogService {
	return &LogService{logs: logs.NewRepository(db), audit: auditService}
}

// List returns a filtered page of entries and the number of matching entries.
func (s *LogService) List(ctx context.Context, actor Actor, f logs.Filter) ([]entities.SystemLog, int64, error) {
	if !auth.Can(actor.Role, auth.CatalogStaff...) {
		return nil, 0, ErrAdminRequired
	}
	return s.logs.List(ctx, f)
}

func (s *LogService) Get(ctx context.Context, actor Actor, id uint) (*entities.SystemLog, error) {
	if !auth.Can(actor.Role, auth.CatalogStaff...) {
		return nil, ErrAdminRequired
	}
	entry, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrLogNotFound)
	}
	return entry, nil
}

// Delete removes an entry and records the deletion itself.
func (s *LogService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !auth.Can(actor.Role, auth.CatalogStaff...) {
		return ErrAdminRequired
	}
	if err := s.logs.Delete(ctx, id); err != nil {
		return notFound(err, ErrLogNotFound)
	}
	s.audit.LogAsync(audit.Event{
		UserID: actor.UserID,
		Action: fmt.Sprintf("Log deleted: ID %d", id),
		Level:  entities.LogLevelWarning,
		IP:     actor.IP,
	})
	return nil
}
