package models

import "time"

type RitualTimeOfDay string

const (
	RitualMorning RitualTimeOfDay = "morning"
	RitualEvening RitualTimeOfDay = "evening"
	RitualAny     RitualTimeOfDay = "any"
)

// Ritual is a recurring practice completable once per calendar day.
type Ritual struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	Key         string          `gorm:"uniqueIndex;not null" json:"key"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	RewardXP    int64           `json:"reward_xp"`
	RewardKarma int64           `json:"reward_karma"`
	TimeOfDay   RitualTimeOfDay `gorm:"type:varchar(16);default:'any'" json:"time_of_day"`
	IsActive    bool            `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

// UserRitual tracks per-actor completion state and the streak counter.
// The streak continues while completions land under 48 hours apart.
type UserRitual struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string     `gorm:"uniqueIndex:idx_user_ritual;not null" json:"user_id"`
	RitualID       string     `gorm:"uniqueIndex:idx_user_ritual;not null" json:"ritual_id"`
	Ritual         Ritual     `gorm:"foreignKey:RitualID" json:"ritual,omitempty"`
	LastCompleted  *time.Time `json:"last_completed,omitempty"`
	StreakCount    int64      `gorm:"default:0" json:"streak_count"`
	TotalCompleted int64      `gorm:"default:0" json:"total_completed"`

	Timestamps
}
