package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LevelConfig: XP needed for *next* level (e.g., level 1 → 2 needs BaseXPPerLevel * 1^1.2)
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to reach level+1 from current level
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BaseXPPerLevel * n^1.2)
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// levelForXP walks the curve from level 1 until the XP no longer covers the
// next step.
func levelForXP(totalXP int64) int {
	level := 1
	for totalXP >= int64(BaseXPPerLevel)*int64(level)+xpForNextLevel(level) {
		level++
	}
	return level
}

// BalanceDelta is the net change a reward transaction applies to an actor.
// Fields may be negative (fork penalties); the apply step clamps so no
// balance ever goes below zero.
type BalanceDelta struct {
	XP       int64 `json:"xp"`
	Gold     int64 `json:"gold"`
	Diamonds int64 `json:"diamonds"`
	Karma    int64 `json:"karma"`
}

func (d BalanceDelta) IsZero() bool {
	return d.XP == 0 && d.Gold == 0 && d.Diamonds == 0 && d.Karma == 0
}

// PercentOf computes a percentage-of-current-value delta the way the fork
// effects are defined: round(current * pct / 100). The value is taken at
// read time; see DESIGN.md for the known race with concurrent balance
// changes.
func PercentOf(current int64, pct int) int64 {
	return int64(math.Round(float64(current) * float64(pct) / 100.0))
}

// OnTimeBonus applies the 1.1 multiplier for finishing inside the duration
// budget, rounded half away from zero (50 → 55, 5 → 6).
func OnTimeBonus(value int64) int64 {
	return int64(math.Round(float64(value) * 1.1))
}

// EconomyService owns the actor balance rows and the one invariant every
// reward handler shares: balance mutation happens atomically, inside a
// transaction, and at most once per (actor, entity) pair.
type EconomyService struct {
	DB     *gorm.DB
	Ledger *LedgerDispatcher
}

func NewEconomyService(db *gorm.DB, ledger *LedgerDispatcher) *EconomyService {
	return &EconomyService{DB: db, Ledger: ledger}
}

// EnsureActor finds or creates the actor row (idempotent). Creation races
// are settled by the unique index on external_user_id: on a duplicate-key
// error the loser re-reads the winner's row.
func (s *EconomyService) EnsureActor(externalUserID string) (*models.Actor, error) {
	var actor models.Actor
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&actor).Error
	if err == nil {
		return &actor, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	actor = models.Actor{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Level:          1,
	}
	if createErr := s.DB.Create(&actor).Error; createErr != nil {
		// Lost the creation race: the unique index rejected the insert.
		if readErr := s.DB.Where("external_user_id = ?", externalUserID).First(&actor).Error; readErr != nil {
			return nil, createErr
		}
	}
	return &actor, nil
}

// ApplyDelta mutates the actor's balances inside tx via atomic SQL
// increments. Negative deltas are clamped against the row as read inside
// the same transaction, so balances never go below zero. Returns the delta
// actually applied (after clamping).
func (s *EconomyService) ApplyDelta(tx *gorm.DB, externalUserID string, delta BalanceDelta) (BalanceDelta, error) {
	var actor models.Actor
	if err := tx.Where("external_user_id = ?", externalUserID).First(&actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceDelta{}, fmt.Errorf("actor %s: %w", externalUserID, ErrNotFound)
		}
		return BalanceDelta{}, err
	}

	delta.XP = clampFloor(delta.XP, actor.XP)
	delta.Gold = clampFloor(delta.Gold, actor.Funds)
	delta.Diamonds = clampFloor(delta.Diamonds, actor.Diamonds)
	delta.Karma = clampFloor(delta.Karma, actor.Karma)

	updates := map[string]interface{}{}
	if delta.XP != 0 {
		updates["xp"] = gorm.Expr("xp + ?", delta.XP)
	}
	if delta.Gold != 0 {
		updates["funds"] = gorm.Expr("funds + ?", delta.Gold)
	}
	if delta.Diamonds != 0 {
		updates["diamonds"] = gorm.Expr("diamonds + ?", delta.Diamonds)
	}
	if delta.Karma != 0 {
		updates["karma"] = gorm.Expr("karma + ?", delta.Karma)
	}

	if delta.XP != 0 {
		newLevel := levelForXP(actor.XP + delta.XP)
		if newLevel != actor.Level {
			updates["level"] = newLevel
		}
	}

	if len(updates) == 0 {
		return delta, nil
	}

	if err := tx.Model(&models.Actor{}).
		Where("external_user_id = ?", externalUserID).
		Updates(updates).Error; err != nil {
		return BalanceDelta{}, err
	}
	return delta, nil
}

// clampFloor limits a negative delta so current + delta >= 0.
func clampFloor(delta, current int64) int64 {
	if delta < 0 && current+delta < 0 {
		return -current
	}
	return delta
}

// BumpCounter increments one of the actor's activity counters (consumed by
// badge triggers) inside tx.
func (s *EconomyService) BumpCounter(tx *gorm.DB, externalUserID, column string) error {
	return tx.Model(&models.Actor{}).
		Where("external_user_id = ?", externalUserID).
		Update(column, gorm.Expr(column+" + 1")).Error
}

// GrantXP is the manual admin grant: a plain positive XP delta in its own
// transaction, audited through the ledger.
func (s *EconomyService) GrantXP(externalUserID string, xp int64, reason string) (*models.Actor, error) {
	if _, err := s.EnsureActor(externalUserID); err != nil {
		return nil, err
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		_, err := s.ApplyDelta(tx, externalUserID, BalanceDelta{XP: xp})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Ledger.LogAction(models.ActionLog{
		UserID:  externalUserID,
		Action:  "xp_granted",
		XPDelta: xp,
		Detail:  reason,
	})

	var actor models.Actor
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&actor).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

// startOfDay truncates t to the UTC day boundary. Ritual "already done
// today" checks use this; the streak check uses a rolling 48h window. The
// two can disagree near midnight (kept as-is, see DESIGN.md).
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
