package models

// ForkChoice is which side of a daily fork the actor picked
type ForkChoice string

const (
	ForkChoiceA ForkChoice = "A"
	ForkChoiceB ForkChoice = "B"
)

type ForkRarity string

const (
	ForkRarityCommon    ForkRarity = "common"
	ForkRarityRare      ForkRarity = "rare"
	ForkRarityLegendary ForkRarity = "legendary"
)

// ForkEffect holds percentage deltas applied to the actor's balances at
// read time: change = round(current * pct / 100). Values may be negative.
type ForkEffect struct {
	XPPct    int `json:"xp"`
	KarmaPct int `json:"karma"`
	GoldPct  int `json:"gold"`
}

// DailyFork is a two-option prompt. Each option carries a percentage
// effect over the actor's current balances.
type DailyFork struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Key         string     `gorm:"uniqueIndex;not null" json:"key"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	OptionA     string     `gorm:"not null" json:"option_a"`
	OptionB     string     `gorm:"not null" json:"option_b"`
	EffectA     ForkEffect `gorm:"serializer:json" json:"effect_a"`
	EffectB     ForkEffect `gorm:"serializer:json" json:"effect_b"`
	Rarity      ForkRarity `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	IsActive    bool       `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

// UserDailyFork records one actor's choice on one fork. The composite
// unique index is the guard against duplicate choices under concurrent
// creation.
type UserDailyFork struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string     `gorm:"uniqueIndex:idx_user_fork;not null" json:"user_id"`
	ForkID        string     `gorm:"uniqueIndex:idx_user_fork;not null" json:"fork_id"`
	Fork          DailyFork  `gorm:"foreignKey:ForkID" json:"fork,omitempty"`
	Choice        ForkChoice `gorm:"type:varchar(1);not null" json:"choice"`
	ResultSummary string     `gorm:"type:text" json:"result_summary"`

	Timestamps
}
