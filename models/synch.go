package models

type SynchTestStatus string

const (
	SynchStatusPending   SynchTestStatus = "pending"
	SynchStatusCompleted SynchTestStatus = "completed"
	SynchStatusExpired   SynchTestStatus = "expired"
)

// SynchTest is a paired questionnaire: actor A invites actor B, both answer
// the same questions, and the compatibility score is the share of matching
// answers. Reward is granted to both on completion.
type SynchTest struct {
	ID          string   `gorm:"primaryKey;type:uuid" json:"id"`
	Key         string   `gorm:"uniqueIndex;not null" json:"key"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Questions   []string `gorm:"serializer:json" json:"questions"`
	RewardXP    int64    `json:"reward_xp"`
	RewardKarma int64    `json:"reward_karma"`
	IsActive    bool     `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

type UserSynchTest struct {
	ID                 string          `gorm:"primaryKey;type:uuid" json:"id"`
	TestID             string          `gorm:"index;not null" json:"test_id"`
	Test               SynchTest       `gorm:"foreignKey:TestID" json:"test,omitempty"`
	UserA              string          `gorm:"index;not null" json:"user_a"`
	UserB              string          `gorm:"index;not null" json:"user_b"`
	AnswersA           []string        `gorm:"serializer:json" json:"answers_a"`
	AnswersB           []string        `gorm:"serializer:json" json:"answers_b"`
	CompatibilityScore *float64        `json:"compatibility_score,omitempty"`
	Status             SynchTestStatus `gorm:"type:varchar(16);default:'pending';index" json:"status"`

	Timestamps
}
