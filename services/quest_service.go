package services

import (
	"errors"
	"fmt"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestService tracks threshold quests. Completion and claim are separate
// transitions: progress crossing the threshold marks the quest completed,
// Claim converts the reward exactly once.
type QuestService struct {
	DB      *gorm.DB
	Economy *EconomyService
	Badges  *BadgeService

	now func() time.Time
}

func NewQuestService(db *gorm.DB, economy *EconomyService, badges *BadgeService) *QuestService {
	return &QuestService{DB: db, Economy: economy, Badges: badges, now: time.Now}
}

// QuestClaimResult is the success payload for a claim.
type QuestClaimResult struct {
	UserQuestID string       `json:"user_quest_id"`
	Applied     BalanceDelta `json:"applied"`
	LoreBonusXP int64        `json:"lore_bonus_xp"`
	Summary     string       `json:"summary"`
}

// RecordProgress adds amount to the actor's progress on the quest, creating
// the join row lazily. Crossing the threshold flips isCompleted.
func (s *QuestService) RecordProgress(externalUserID, questID string, amount int64) (*models.UserQuest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrNotEligible)
	}

	var quest models.Quest
	if err := s.DB.First(&quest, "id = ? AND is_active = ?", questID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quest %s: %w", questID, ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.Economy.EnsureActor(externalUserID); err != nil {
		return nil, err
	}

	var record models.UserQuest
	err := s.DB.Where("user_id = ? AND quest_id = ?", externalUserID, questID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.UserQuest{
			ID:        uuid.NewString(),
			UserID:    externalUserID,
			QuestID:   questID,
			StartedAt: s.now(),
		}
		if createErr := s.DB.Create(&record).Error; createErr != nil {
			if readErr := s.DB.Where("user_id = ? AND quest_id = ?", externalUserID, questID).First(&record).Error; readErr != nil {
				return nil, createErr
			}
		}
	} else if err != nil {
		return nil, err
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserQuest{}).
			Where("id = ?", record.ID).
			Update("progress", gorm.Expr("progress + ?", amount)).Error; err != nil {
			return err
		}
		if err := tx.First(&record, "id = ?", record.ID).Error; err != nil {
			return err
		}
		if !record.IsCompleted && record.Progress >= quest.ThresholdValue {
			now := s.now()
			if err := tx.Model(&models.UserQuest{}).
				Where("id = ?", record.ID).
				Updates(map[string]interface{}{
					"is_completed": true,
					"completed_at": now,
				}).Error; err != nil {
				return err
			}
			record.IsCompleted = true
			record.CompletedAt = &now
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if record.IsCompleted {
		s.Economy.Ledger.Notify(externalUserID, "quest", quest.Title, "Quest complete — reward ready to claim")
	}
	return &record, nil
}

// Claim grants the quest reward for a completed, unclaimed user quest.
// Lore-logging actors get a floor(1%) XP bonus on top of the base reward.
func (s *QuestService) Claim(externalUserID, userQuestID string) (*QuestClaimResult, error) {
	var record models.UserQuest
	if err := s.DB.Preload("Quest").First(&record, "id = ?", userQuestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user quest %s: %w", userQuestID, ErrNotFound)
		}
		return nil, err
	}

	if record.UserID != externalUserID {
		return nil, fmt.Errorf("quest belongs to another actor: %w", ErrNotEligible)
	}
	if !record.IsCompleted {
		return nil, fmt.Errorf("quest: %w", ErrNotCompleted)
	}
	if record.IsClaimed {
		return nil, ErrAlreadyClaimed
	}

	actor, err := s.Economy.EnsureActor(externalUserID)
	if err != nil {
		return nil, err
	}

	quest := record.Quest
	var loreBonus int64
	if actor.LoreLoggingEnabled && quest.RewardXP > 0 {
		loreBonus = quest.RewardXP / 100 // floor(1%)
	}
	delta := BalanceDelta{
		XP:    quest.RewardXP + loreBonus,
		Gold:  quest.RewardGold,
		Karma: quest.RewardKarma,
	}

	var result QuestClaimResult
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserQuest{}).
			Where("id = ? AND is_claimed = ?", userQuestID, false).
			Update("is_claimed", true)
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
		if err := s.Economy.BumpCounter(tx, externalUserID, "total_quests"); err != nil {
			return err
		}

		result = QuestClaimResult{
			UserQuestID: userQuestID,
			Applied:     applied,
			LoreBonusXP: loreBonus,
			Summary:     fmt.Sprintf("%s claimed — +%d XP, +%d gold, +%d karma", quest.Title, applied.XP, applied.Gold, applied.Karma),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.Economy.Ledger.LogAction(models.ActionLog{
		UserID:     externalUserID,
		Action:     "quest_claimed",
		EntityKind: "quest",
		EntityID:   record.QuestID,
		XPDelta:    result.Applied.XP,
		GoldDelta:  result.Applied.Gold,
		KarmaDelta: result.Applied.Karma,
		Detail:     result.Summary,
	})
	s.Economy.Ledger.Notify(externalUserID, "quest", quest.Title, result.Summary)
	_ = s.Badges.AutoAwardBadges(externalUserID)

	return &result, nil
}
