package models

import (
	"time"

	"gorm.io/gorm"
)

// Actor is the local row for an authenticated PareL user. Profile fields
// (username, avatar) are mirrored from the profile service by the sync
// worker; the balance fields are owned by this service and mutated only
// through atomic increments inside a transaction.
type Actor struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID
	Username       string  `gorm:"index" json:"username"`
	AvatarURL      *string `json:"avatar_url,omitempty"`

	// Balances. Never negative.
	XP       int64 `gorm:"default:0" json:"xp"`
	Funds    int64 `gorm:"default:0" json:"funds"` // gold
	Diamonds int64 `gorm:"default:0" json:"diamonds"`
	Karma    int64 `gorm:"default:0" json:"karma"`
	Level    int   `gorm:"default:1" json:"level"`

	// Activity counters consumed by badge triggers.
	TotalForks       int64 `gorm:"default:0" json:"total_forks"`
	TotalRituals     int64 `gorm:"default:0" json:"total_rituals"`
	TotalDuets       int64 `gorm:"default:0" json:"total_duets"`
	TotalQuests      int64 `gorm:"default:0" json:"total_quests"`
	BestRitualStreak int64 `gorm:"default:0" json:"best_ritual_streak"`

	// Settings mirrored from the profile payload (lore logging gates the
	// 1% quest XP bonus).
	LoreLoggingEnabled bool `gorm:"default:true" json:"lore_logging_enabled"`

	LastSeen *time.Time `json:"last_seen,omitempty"`
	IsBanned bool       `gorm:"default:false" json:"is_banned"`

	Timestamps
}

// RemoteProfile mirrors the JSON shape of the profile service's public
// endpoint. Used only by the sync worker.
type RemoteProfile struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"external_id"`
	Username    string    `json:"username"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	LoreLogging *bool     `json:"lore_logging,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
