package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB      *gorm.DB
	Economy *EconomyService
}

func NewBadgeService(db *gorm.DB, economy *EconomyService) *BadgeService {
	return &BadgeService{DB: db, Economy: economy}
}

// SeedBadgeTypes upserts the predefined trigger list at boot.
func (s *BadgeService) SeedBadgeTypes() error {
	for _, trigger := range models.BadgeTriggers {
		var existing models.BadgeType
		err := s.DB.Where("code = ?", trigger.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			trigger.ID = uuid.NewString()
			if err := s.DB.Create(&trigger).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AutoAwardBadges checks all badge triggers for an actor after a reward
// transaction. Called fire-and-forget; errors are the caller's to discard.
func (s *BadgeService) AutoAwardBadges(externalUserID string) error {
	var actor models.Actor
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&actor).Error; err != nil {
		return err
	}

	var triggers []models.BadgeType
	if err := s.DB.Find(&triggers).Error; err != nil {
		return err
	}

	for _, trigger := range triggers {
		if !s.meetsThreshold(&actor, trigger.Threshold) {
			continue
		}
		var count int64
		s.DB.Model(&models.UserBadge{}).
			Where("external_user_id = ? AND badge_type_id = ?", externalUserID, trigger.ID).
			Count(&count)
		if count > 0 {
			continue
		}
		userBadge := models.UserBadge{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			BadgeTypeID:    trigger.ID,
		}
		if err := s.DB.Create(&userBadge).Error; err != nil {
			return err
		}
		log.Printf("🎖️ Badge awarded: %s → %s", trigger.Name, externalUserID)
		s.Economy.Ledger.Notify(externalUserID, "badge", trigger.Name, trigger.Description)
	}
	return nil
}

func (s *BadgeService) meetsThreshold(actor *models.Actor, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case "total_forks":
			if actor.TotalForks < required {
				return false
			}
		case "total_rituals":
			if actor.TotalRituals < required {
				return false
			}
		case "total_duets":
			if actor.TotalDuets < required {
				return false
			}
		case "total_quests":
			if actor.TotalQuests < required {
				return false
			}
		case "ritual_streak":
			if actor.BestRitualStreak < required {
				return false
			}
		case "level":
			if int64(actor.Level) < required {
				return false
			}
		case "karma":
			if actor.Karma < required {
				return false
			}
		case "event": // special: always true (e.g., first sighting)
			return true
		}
	}
	return true
}

// ClaimBadge converts an awarded badge's gold reward into the actor's funds
// exactly once.
func (s *BadgeService) ClaimBadge(externalUserID, userBadgeID string) (*BalanceDelta, error) {
	var userBadge models.UserBadge
	if err := s.DB.First(&userBadge, "id = ?", userBadgeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user badge %s: %w", userBadgeID, ErrNotFound)
		}
		return nil, err
	}
	if userBadge.ExternalUserID != externalUserID {
		return nil, fmt.Errorf("badge belongs to another actor: %w", ErrNotEligible)
	}
	if userBadge.IsClaimed {
		return nil, ErrAlreadyClaimed
	}

	var badgeType models.BadgeType
	if err := s.DB.First(&badgeType, "id = ?", userBadge.BadgeTypeID).Error; err != nil {
		return nil, err
	}

	delta := BalanceDelta{Gold: badgeType.RewardGold}
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.UserBadge{}).
			Where("id = ? AND is_claimed = ?", userBadgeID, false).
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
		delta = applied
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.Economy.Ledger.LogAction(models.ActionLog{
		UserID:     externalUserID,
		Action:     "badge_claimed",
		EntityKind: "badge",
		EntityID:   userBadge.BadgeTypeID,
		GoldDelta:  delta.Gold,
		Detail:     fmt.Sprintf("claimed badge %s", badgeType.Name),
	})

	return &delta, nil
}
