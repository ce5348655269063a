package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SynchService handles paired compatibility tests: A invites B with answers,
// B answers, the score is the share of matching answers, and both actors
// are credited once.
type SynchService struct {
	DB      *gorm.DB
	Economy *EconomyService
	Badges  *BadgeService
}

func NewSynchService(db *gorm.DB, economy *EconomyService, badges *BadgeService) *SynchService {
	return &SynchService{DB: db, Economy: economy, Badges: badges}
}

type SynchResult struct {
	RunID              string       `json:"run_id"`
	CompatibilityScore float64      `json:"compatibility_score"`
	PerActor           BalanceDelta `json:"per_actor"`
	Summary            string       `json:"summary"`
}

// Invite creates a pending pair row with A's answers filled in.
func (s *SynchService) Invite(testID, userA, userB string, answersA []string) (*models.UserSynchTest, error) {
	if userA == userB {
		return nil, fmt.Errorf("cannot synch with yourself: %w", ErrNotEligible)
	}

	var test models.SynchTest
	if err := s.DB.First(&test, "id = ? AND is_active = ?", testID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("synch test %s: %w", testID, ErrNotFound)
		}
		return nil, err
	}
	if len(answersA) != len(test.Questions) {
		return nil, fmt.Errorf("expected %d answers: %w", len(test.Questions), ErrNotEligible)
	}

	for _, uid := range []string{userA, userB} {
		if _, err := s.Economy.EnsureActor(uid); err != nil {
			return nil, err
		}
	}

	var pending int64
	if err := s.DB.Model(&models.UserSynchTest{}).
		Where("test_id = ? AND status = ?", testID, models.SynchStatusPending).
		Where("(user_a = ? AND user_b = ?) OR (user_a = ? AND user_b = ?)", userA, userB, userB, userA).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, fmt.Errorf("invite already pending for this pair: %w", ErrNotEligible)
	}

	record := models.UserSynchTest{
		ID:       uuid.NewString(),
		TestID:   testID,
		UserA:    userA,
		UserB:    userB,
		AnswersA: answersA,
		Status:   models.SynchStatusPending,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return nil, err
	}

	s.Economy.Ledger.Notify(userB, "synch", test.Title, "You have been invited to a synch test")
	return &record, nil
}

// Answer completes the pair: B submits, the compatibility score is computed
// and both actors are credited in one transaction. The pending→completed
// flip is the idempotency guard.
func (s *SynchService) Answer(runID, externalUserID string, answersB []string) (*SynchResult, error) {
	var record models.UserSynchTest
	if err := s.DB.Preload("Test").First(&record, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("synch run %s: %w", runID, ErrNotFound)
		}
		return nil, err
	}

	if externalUserID != record.UserB {
		return nil, ErrNotParticipant
	}
	if record.Status == models.SynchStatusCompleted {
		return nil, fmt.Errorf("synch test: %w", ErrAlreadyCompleted)
	}
	if record.Status != models.SynchStatusPending {
		return nil, fmt.Errorf("synch test is %s: %w", record.Status, ErrNotEligible)
	}
	if len(answersB) != len(record.Test.Questions) {
		return nil, fmt.Errorf("expected %d answers: %w", len(record.Test.Questions), ErrNotEligible)
	}

	score := compatibility(record.AnswersA, answersB)
	perActor := BalanceDelta{XP: record.Test.RewardXP, Karma: record.Test.RewardKarma}

	// Map updates bypass the json serializer, so the answers are marshalled
	// by hand before they go into the column.
	answersJSON, err := json.Marshal(answersB)
	if err != nil {
		return nil, err
	}

	var result SynchResult
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserSynchTest{}).
			Where("id = ? AND status = ?", runID, models.SynchStatusPending).
			Updates(map[string]interface{}{
				"answers_b":           string(answersJSON),
				"compatibility_score": score,
				"status":              models.SynchStatusCompleted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("synch test: %w", ErrAlreadyCompleted)
		}

		for _, uid := range []string{record.UserA, record.UserB} {
			if _, err := s.Economy.ApplyDelta(tx, uid, perActor); err != nil {
				return err
			}
		}

		result = SynchResult{
			RunID:              runID,
			CompatibilityScore: score,
			PerActor:           perActor,
			Summary:            fmt.Sprintf("%s — %.0f%% in synch, both earn %d XP and %d karma", record.Test.Title, score, perActor.XP, perActor.Karma),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	for _, uid := range []string{record.UserA, record.UserB} {
		s.Economy.Ledger.LogAction(models.ActionLog{
			UserID:     uid,
			Action:     "synch_completed",
			EntityKind: "synch_test",
			EntityID:   record.TestID,
			XPDelta:    perActor.XP,
			KarmaDelta: perActor.Karma,
			Detail:     result.Summary,
		})
		s.Economy.Ledger.Notify(uid, "synch", record.Test.Title, result.Summary)
		_ = s.Badges.AutoAwardBadges(uid)
	}

	return &result, nil
}

// compatibility is the percent of positions where both answer sets agree.
func compatibility(a, b []string) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return math.Round(float64(matches) / float64(len(a)) * 100)
}
