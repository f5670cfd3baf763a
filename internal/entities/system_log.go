package entities

import "time"

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
	LogLevelSuccess LogLevel = "success"
)

// Valid reports whether l is one of the known levels.
func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelSuccess:
		return true
	}
	return false
}

// SystemLog is an append-only audit record of a user or system action.
// UserID is nil for actions without an authenticated user.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	Level     LogLevel  `gorm:"index;size:20;default:info" json:"level"`
	IPAddress string    `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}
