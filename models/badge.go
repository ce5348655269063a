package models

import (
	"time"
)

// BadgeType: static trigger config (loaded from DB or the seed list below)
type BadgeType struct {
	ID          string           `gorm:"primaryKey;type:uuid"`
	Code        string           `gorm:"uniqueIndex;not null"` // e.g., "FIRST_FORK", "RITUAL_WEEK"
	Name        string           `gorm:"not null"`
	Description string
	IconURL     string           `gorm:"type:text"` // R2 URL to SVG/png
	Rarity      string           `gorm:"type:varchar(16);default:'common'"` // common, rare, epic, legendary
	Threshold   map[string]int64 `gorm:"serializer:json"` // e.g., {"total_forks": 10}, {"ritual_streak": 7}
	RewardGold  int64            `gorm:"default:0"` // paid out when the badge is claimed
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
}

// UserBadge: awarded instance (many-to-many). Claiming converts RewardGold
// into the actor's funds exactly once.
type UserBadge struct {
	ID             string     `gorm:"primaryKey;type:uuid"`
	ExternalUserID string     `gorm:"index;not null"`
	BadgeTypeID    string     `gorm:"index;not null"`
	AwardedAt      time.Time  `gorm:"autoCreateTime"`
	IsClaimed      bool       `gorm:"default:false"`
	ClaimedAt      *time.Time
	Metadata       string     `gorm:"type:text"` // e.g., {"ritual_id": "...", "streak": 7}
}

// Predefined badge triggers
var BadgeTriggers = []BadgeType{
	{
		Code:        "WELCOME",
		Name:        "First Steps",
		Description: "Joined PareL",
		Rarity:      "common",
		Threshold:   map[string]int64{"event": 1}, // awarded on first sighting
		RewardGold:  10,
	},
	{
		Code:        "FIRST_FORK",
		Name:        "Crossroads",
		Description: "Chose your first daily fork",
		Rarity:      "common",
		Threshold:   map[string]int64{"total_forks": 1},
		RewardGold:  25,
	},
	{
		Code:        "RITUAL_WEEK",
		Name:        "Creature of Habit",
		Description: "Held a 7-day ritual streak",
		Rarity:      "rare",
		Threshold:   map[string]int64{"ritual_streak": 7},
		RewardGold:  100,
	},
	{
		Code:        "DUET_PARTNER",
		Name:        "In Synch",
		Description: "Completed 5 duet runs",
		Rarity:      "rare",
		Threshold:   map[string]int64{"total_duets": 5},
		RewardGold:  100,
	},
	{
		Code:        "LEVEL_50",
		Name:        "Halfway There",
		Description: "Reached Level 50",
		Rarity:      "epic",
		Threshold:   map[string]int64{"level": 50},
		RewardGold:  500,
	},
}
