package models

import "time"

// DuetRunStatus tracks the lifecycle of a paired run
type DuetRunStatus string

const (
	DuetRunStatusPending   DuetRunStatus = "pending"
	DuetRunStatusActive    DuetRunStatus = "active"
	DuetRunStatusCompleted DuetRunStatus = "completed"
	DuetRunStatusExpired   DuetRunStatus = "expired"
)

// DuetRun is a paired mission definition: two actors work the same mission
// and are rewarded together when both reach full progress.
type DuetRun struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	MissionKey  string `gorm:"uniqueIndex;not null" json:"mission_key"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	DurationSec int64  `gorm:"not null" json:"duration_sec"`
	RewardXP    int64  `json:"reward_xp"`
	RewardKarma int64  `json:"reward_karma"`
	IsActive    bool   `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

// UserDuetRun joins two actors to a DuetRun. Progress is 0-100 per side.
type UserDuetRun struct {
	ID        string        `gorm:"primaryKey;type:uuid" json:"id"`
	RunID     string        `gorm:"index;not null" json:"run_id"`
	Run       DuetRun       `gorm:"foreignKey:RunID" json:"run,omitempty"`
	UserA     string        `gorm:"index;not null" json:"user_a"`
	UserB     string        `gorm:"index;not null" json:"user_b"`
	ProgressA int           `gorm:"default:0" json:"progress_a"`
	ProgressB int           `gorm:"default:0" json:"progress_b"`
	Status    DuetRunStatus `gorm:"type:varchar(16);default:'active';index" json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`

	Timestamps
}
