package models

import "time"

// BattleAchievement is a combat-stat milestone. RequirementValue is the
// counter the actor has to reach; the reward pays out in diamonds + XP.
type BattleAchievement struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	Key              string `gorm:"uniqueIndex;not null" json:"key"`
	Title            string `gorm:"not null" json:"title"`
	Description      string `gorm:"type:text" json:"description"`
	Stat             string `gorm:"not null" json:"stat"` // e.g. "kills", "battles", "streak"
	RequirementValue int64  `gorm:"not null" json:"requirement_value"`
	RewardDiamonds   int64  `json:"reward_diamonds"`
	RewardXP         int64  `json:"reward_xp"`
	IsActive         bool   `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

type UserBattleAchievement struct {
	ID            string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string            `gorm:"uniqueIndex:idx_user_battle_ach;not null" json:"user_id"`
	AchievementID string            `gorm:"uniqueIndex:idx_user_battle_ach;not null" json:"achievement_id"`
	Achievement   BattleAchievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	Progress      int64             `gorm:"default:0" json:"progress"`
	IsClaimed     bool              `gorm:"default:false" json:"is_claimed"`
	ClaimedAt     *time.Time        `json:"claimed_at,omitempty"`

	Timestamps
}
