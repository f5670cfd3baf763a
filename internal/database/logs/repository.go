// Package logs provides database operations for the system log.
package logs

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/entities"
)

const DefaultLimit = 100

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Filter narrows List. An invalid Level is ignored.
type Filter struct {
	Level  entities.LogLevel
	UserID uint
	Limit  int
	Offset int
}

// LogEvent saves a system log entry.
func (r *Repository) LogEvent(ctx context.Context, entry *entities.SystemLog) error {
	if entry.Level == "" {
		entry.Level = entities.LogLevelInfo
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// List retrieves paginated entries with their users, most recent first,
// along with the total number of matching entries.
func (r *Repository) List(ctx context.Context, f Filter) ([]entities.SystemLog, int64, error) {
	var entries []entities.SystemLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.SystemLog{})
	if f.Level.Valid() {
		query = query.Where("level = ?", f.Level)
	}
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	err := query.Preload("User").
		Order("created_at DESC, id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&entries).Error
	return entries, total, err
}

// Recent returns the n most recent entries with their users.
func (r *Repository) Recent(ctx context.Context, n int) ([]entities.SystemLog, error) {
	var entries []entities.SystemLog
	err := r.db.WithContext(ctx).Preload("User").
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&entries).Error
	return entries, err
}

// GetByID retrieves a single entry with its user.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.SystemLog, error) {
	var entry entities.SystemLog
	if err := r.db.WithContext(ctx).Preload("User").First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.SystemLog{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOlderThan removes entries created before cutoff.
// Returns the number of deleted entries.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&entities.SystemLog{})
	return result.RowsAffected, result.Error
}
