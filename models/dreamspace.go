package models

// DreamspaceGrant records a successful dreamspace roll: a memoryless
// Bernoulli draw that, when it hits, hands the actor one randomly chosen
// active engagement entity as a surprise reward.
type DreamspaceGrant struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string  `gorm:"index;not null" json:"user_id"`
	EntityKind  string  `gorm:"not null" json:"entity_kind"` // "quest", "ritual", "fork"
	EntityID    string  `gorm:"not null" json:"entity_id"`
	EntityTitle string  `json:"entity_title"`
	Rolled      float64 `json:"rolled"`
	RewardXP    int64   `json:"reward_xp"`

	Timestamps
}
