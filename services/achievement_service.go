package services

import (
	"errors"
	"fmt"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementService tracks battle achievements: combat-stat counters that
// pay out diamonds + XP once the requirement is reached and claimed.
type AchievementService struct {
	DB      *gorm.DB
	Economy *EconomyService
	Badges  *BadgeService
}

func NewAchievementService(db *gorm.DB, economy *EconomyService, badges *BadgeService) *AchievementService {
	return &AchievementService{DB: db, Economy: economy, Badges: badges}
}

type AchievementClaimResult struct {
	AchievementID string       `json:"achievement_id"`
	Applied       BalanceDelta `json:"applied"`
	Summary       string       `json:"summary"`
}

// Record adds to the actor's progress counter for the achievement.
func (s *AchievementService) Record(externalUserID, achievementID string, amount int64) (*models.UserBattleAchievement, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrNotEligible)
	}

	var ach models.BattleAchievement
	if err := s.DB.First(&ach, "id = ? AND is_active = ?", achievementID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("achievement %s: %w", achievementID, ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.Economy.EnsureActor(externalUserID); err != nil {
		return nil, err
	}

	var record models.UserBattleAchievement
	err := s.DB.Where("user_id = ? AND achievement_id = ?", externalUserID, achievementID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.UserBattleAchievement{
			ID:            uuid.NewString(),
			UserID:        externalUserID,
			AchievementID: achievementID,
		}
		if createErr := s.DB.Create(&record).Error; createErr != nil {
			if readErr := s.DB.Where("user_id = ? AND achievement_id = ?", externalUserID, achievementID).First(&record).Error; readErr != nil {
				return nil, createErr
			}
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.UserBattleAchievement{}).
		Where("id = ?", record.ID).
		Update("progress", gorm.Expr("progress + ?", amount)).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Preload("Achievement").First(&record, "id = ?", record.ID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Claim pays out once progress has reached the requirement.
func (s *AchievementService) Claim(externalUserID, achievementID string) (*AchievementClaimResult, error) {
	var ach models.BattleAchievement
	if err := s.DB.First(&ach, "id = ?", achievementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("achievement %s: %w", achievementID, ErrNotFound)
		}
		return nil, err
	}

	var record models.UserBattleAchievement
	if err := s.DB.Where("user_id = ? AND achievement_id = ?", externalUserID, achievementID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no progress on achievement: %w", ErrNotFound)
		}
		return nil, err
	}

	if record.IsClaimed {
		return nil, ErrAlreadyClaimed
	}
	if record.Progress < ach.RequirementValue {
		return nil, fmt.Errorf("progress %d of %d: %w", record.Progress, ach.RequirementValue, ErrNotCompleted)
	}

	delta := BalanceDelta{XP: ach.RewardXP, Diamonds: ach.RewardDiamonds}

	var result AchievementClaimResult
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.UserBattleAchievement{}).
			Where("id = ? AND is_claimed = ?", record.ID, false).
			Updates(map[string]interface{}{
				"is_claimed": true,
				"claimed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClaimed
		}

		applied, err := s.Economy.ApplyDelta(tx, externalUserID, delta)
		if err != nil {
			return err
		}

		result = AchievementClaimResult{
			AchievementID: achievementID,
			Applied:       applied,
			Summary:       fmt.Sprintf("%s unlocked — +%d diamonds, +%d XP", ach.Title, applied.Diamonds, applied.XP),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.Economy.Ledger.LogAction(models.ActionLog{
		UserID:     externalUserID,
		Action:     "achievement_claimed",
		EntityKind: "battle_achievement",
		EntityID:   achievementID,
		XPDelta:    result.Applied.XP,
		Detail:     result.Summary,
	})
	s.Economy.Ledger.Notify(externalUserID, "achievement", ach.Title, result.Summary)
	_ = s.Badges.AutoAwardBadges(externalUserID)

	return &result, nil
}
