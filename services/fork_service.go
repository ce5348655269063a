package services

import (
	"errors"
	"fmt"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForkService handles daily fork choices: one choice per (actor, fork),
// with percentage effects computed from the actor's balances at read time.
type ForkService struct {
	DB      *gorm.DB
	Economy *EconomyService
	Badges  *BadgeService
}

func NewForkService(db *gorm.DB, economy *EconomyService, badges *BadgeService) *ForkService {
	return &ForkService{DB: db, Economy: economy, Badges: badges}
}

// ForkResult is the success payload for a choice.
type ForkResult struct {
	ForkID  string            `json:"fork_id"`
	Choice  models.ForkChoice `json:"choice"`
	Applied BalanceDelta      `json:"applied"`
	Summary string            `json:"summary"`
}

// PendingForks lists active forks the actor has not chosen yet.
func (s *ForkService) PendingForks(externalUserID string) ([]models.DailyFork, error) {
	var forks []models.DailyFork
	err := s.DB.
		Where("is_active = ?", true).
		Where("id NOT IN (?)", s.DB.Model(&models.UserDailyFork{}).
			Select("fork_id").
			Where("user_id = ?", externalUserID)).
		Order("created_at DESC").
		Find(&forks).Error
	return forks, err
}

// Choose records the actor's choice and applies the option's percentage
// effects in one transaction. A second choice on the same fork is rejected;
// the composite unique index backstops the concurrent-create case.
func (s *ForkService) Choose(externalUserID, forkID string, choice models.ForkChoice) (*ForkResult, error) {
	if choice != models.ForkChoiceA && choice != models.ForkChoiceB {
		return nil, fmt.Errorf("choice must be A or B: %w", ErrNotEligible)
	}

	var fork models.DailyFork
	if err := s.DB.First(&fork, "id = ? AND is_active = ?", forkID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fork %s: %w", forkID, ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.Economy.EnsureActor(externalUserID); err != nil {
		return nil, err
	}

	var existing models.UserDailyFork
	err := s.DB.Where("user_id = ? AND fork_id = ?", externalUserID, forkID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyChosen
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	effect := fork.EffectA
	optionText := fork.OptionA
	if choice == models.ForkChoiceB {
		effect = fork.EffectB
		optionText = fork.OptionB
	}

	var result ForkResult
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		// Percentages are relative to the balances as read here.
		var actor models.Actor
		if err := tx.Where("external_user_id = ?", externalUserID).First(&actor).Error; err != nil {
			return err
		}

		delta := BalanceDelta{
			XP:    PercentOf(actor.XP, effect.XPPct),
			Karma: PercentOf(actor.Karma, effect.KarmaPct),
			Gold:  PercentOf(actor.Funds, effect.GoldPct),
		}

		applied, err := s.Economy.ApplyDelta(tx, externalUserID, delta)
		if err != nil {
			return err
		}

		summary := fmt.Sprintf("You chose %q — XP %+d, karma %+d, gold %+d",
			optionText, applied.XP, applied.Karma, applied.Gold)

		record := models.UserDailyFork{
			ID:            uuid.NewString(),
			UserID:        externalUserID,
			ForkID:        forkID,
			Choice:        choice,
			ResultSummary: summary,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if err := s.Economy.BumpCounter(tx, externalUserID, "total_forks"); err != nil {
			return err
		}

		result = ForkResult{ForkID: forkID, Choice: choice, Applied: applied, Summary: summary}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.Economy.Ledger.LogAction(models.ActionLog{
		UserID:     externalUserID,
		Action:     "fork_chosen",
		EntityKind: "fork",
		EntityID:   forkID,
		XPDelta:    result.Applied.XP,
		GoldDelta:  result.Applied.Gold,
		KarmaDelta: result.Applied.Karma,
		Detail:     result.Summary,
	})
	s.Economy.Ledger.Notify(externalUserID, "fork", fork.Title, result.Summary)
	_ = s.Badges.AutoAwardBadges(externalUserID) // fire-and-forget

	return &result, nil
}
