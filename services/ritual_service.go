package services

import (
	"errors"
	"fmt"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// streakWindow is the rolling recency window for streak continuation:
// completing again under 48h since the last completion increments the
// streak, at or past 48h it resets to 1.
const streakWindow = 48 * time.Hour

// RitualService handles per-day ritual completions and streak tracking.
type RitualService struct {
	DB      *gorm.DB
	Economy *EconomyService
	Badges  *BadgeService

	// now is swappable for tests.
	now func() time.Time
}

func NewRitualService(db *gorm.DB, economy *EconomyService, badges *BadgeService) *RitualService {
	return &RitualService{DB: db, Economy: economy, Badges: badges, now: time.Now}
}

// RitualResult is the success payload for a completion.
type RitualResult struct {
	RitualID    string       `json:"ritual_id"`
	StreakCount int64        `json:"streak_count"`
	Applied     BalanceDelta `json:"applied"`
	Summary     string       `json:"summary"`
}

// Complete marks the ritual done for today. Rejected when lastCompleted
// falls on the same UTC calendar day. The streak check is a separate
// rolling 48h window; the two use different time semantics on purpose
// (see DESIGN.md).
func (s *RitualService) Complete(externalUserID, ritualID string) (*RitualResult, error) {
	var ritual models.Ritual
	if err := s.DB.First(&ritual, "id = ? AND is_active = ?", ritualID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ritual %s: %w", ritualID, ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.Economy.EnsureActor(externalUserID); err != nil {
		return nil, err
	}

	now := s.now()

	var record models.UserRitual
	err := s.DB.Where("user_id = ? AND ritual_id = ?", externalUserID, ritualID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.UserRitual{
			ID:       uuid.NewString(),
			UserID:   externalUserID,
			RitualID: ritualID,
		}
		if createErr := s.DB.Create(&record).Error; createErr != nil {
			// concurrent first completion: re-read the winner's row
			if readErr := s.DB.Where("user_id = ? AND ritual_id = ?", externalUserID, ritualID).First(&record).Error; readErr != nil {
				return nil, createErr
			}
		}
	} else if err != nil {
		return nil, err
	}

	if record.LastCompleted != nil {
		if startOfDay(*record.LastCompleted).Equal(startOfDay(now)) {
			return nil, fmt.Errorf("ritual done today: %w", ErrAlreadyCompleted)
		}
	}

	newStreak := int64(1)
	if record.LastCompleted != nil && now.Sub(*record.LastCompleted) < streakWindow {
		newStreak = record.StreakCount + 1
	}

	var result RitualResult
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserRitual{}).
			Where("id = ?", record.ID).
			Where("last_completed IS NULL OR last_completed < ?", startOfDay(now)).
			Updates(map[string]interface{}{
				"last_completed":  now,
				"streak_count":    newStreak,
				"total_completed": gorm.Expr("total_completed + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// a concurrent completion won between our read and this write
			return fmt.Errorf("ritual done today: %w", ErrAlreadyCompleted)
		}

		delta := BalanceDelta{XP: ritual.RewardXP, Karma: ritual.RewardKarma}
		applied, err := s.Economy.ApplyDelta(tx, externalUserID, delta)
		if err != nil {
			return err
		}

		if err := s.Economy.BumpCounter(tx, externalUserID, "total_rituals"); err != nil {
			return err
		}
		if err := tx.Model(&models.Actor{}).
			Where("external_user_id = ? AND best_ritual_streak < ?", externalUserID, newStreak).
			Update("best_ritual_streak", newStreak).Error; err != nil {
			return err
		}

		result = RitualResult{
			RitualID:    ritualID,
			StreakCount: newStreak,
			Applied:     applied,
			Summary:     fmt.Sprintf("%s complete — streak %d (+%d XP, +%d karma)", ritual.Title, newStreak, applied.XP, applied.Karma),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.Economy.Ledger.LogAction(models.ActionLog{
		UserID:     externalUserID,
		Action:     "ritual_completed",
		EntityKind: "ritual",
		EntityID:   ritualID,
		XPDelta:    result.Applied.XP,
		KarmaDelta: result.Applied.Karma,
		Detail:     result.Summary,
	})
	s.Economy.Ledger.Notify(externalUserID, "ritual", ritual.Title, result.Summary)
	_ = s.Badges.AutoAwardBadges(externalUserID)

	return &result, nil
}

// Streaks returns the actor's per-ritual streak rows.
func (s *RitualService) Streaks(externalUserID string) ([]models.UserRitual, error) {
	var records []models.UserRitual
	err := s.DB.Where("user_id = ?", externalUserID).
		Preload("Ritual").
		Order("streak_count DESC").
		Find(&records).Error
	return records, err
}
