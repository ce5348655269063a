package models

// ActionLog is an append-only audit row written alongside a reward grant.
// Writes go through the ledger dispatcher outside the primary transaction;
// a failed write never rolls back the grant.
type ActionLog struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string `gorm:"index;not null" json:"user_id"`
	Action     string `gorm:"not null" json:"action"` // e.g. "ritual_completed", "fork_chosen"
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	XPDelta    int64  `json:"xp_delta"`
	GoldDelta  int64  `json:"gold_delta"`
	KarmaDelta int64  `json:"karma_delta"`
	Detail     string `gorm:"type:text" json:"detail"`

	Timestamps
}

// Notification is the user-facing feed row for a grant or rejection-worthy
// event. Same best-effort delivery as ActionLog.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`
	Type   string `gorm:"not null" json:"type"`
	Title  string `gorm:"not null" json:"title"`
	Body   string `gorm:"type:text" json:"body"`
	Viewed bool   `gorm:"default:false;index" json:"viewed"`

	Timestamps
}
