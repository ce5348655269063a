package models

import "time"

// Quest is a threshold-based engagement: progress accumulates until it
// crosses ThresholdValue, after which the reward can be claimed once.
type Quest struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	Key            string `gorm:"uniqueIndex;not null" json:"key"`
	Title          string `gorm:"not null" json:"title"`
	Description    string `gorm:"type:text" json:"description"`
	ThresholdValue int64  `gorm:"not null" json:"threshold_value"`
	RewardXP       int64  `json:"reward_xp"`
	RewardGold     int64  `json:"reward_gold"`
	RewardKarma    int64  `json:"reward_karma"`
	IsActive       bool   `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

// UserQuest is the per-actor progress row. Completion and claim are
// separate transitions: crossing the threshold marks completed, the claim
// endpoint converts the reward exactly once.
type UserQuest struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"uniqueIndex:idx_user_quest;not null" json:"user_id"`
	QuestID     string     `gorm:"uniqueIndex:idx_user_quest;not null" json:"quest_id"`
	Quest       Quest      `gorm:"foreignKey:QuestID" json:"quest,omitempty"`
	Progress    int64      `gorm:"default:0" json:"progress"`
	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	IsClaimed   bool       `gorm:"default:false" json:"is_claimed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Timestamps
}
