package services

import (
	"errors"
	"fmt"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DuetService handles paired mission runs. Completion needs both sides at
// 100 progress; finishing inside the duration budget earns the 1.1 on-time
// bonus on both reward components.
type DuetService struct {
	DB      *gorm.DB
	Economy *EconomyService
	Badges  *BadgeService

	now func() time.Time
}

func NewDuetService(db *gorm.DB, economy *EconomyService, badges *BadgeService) *DuetService {
	return &DuetService{DB: db, Economy: economy, Badges: badges, now: time.Now}
}

// DuetResult is the success payload for a completed run.
type DuetResult struct {
	RunID    string       `json:"run_id"`
	OnTime   bool         `json:"on_time"`
	PerActor BalanceDelta `json:"per_actor"`
	Summary  string       `json:"summary"`
}

// Start creates an active join row for (userA, userB) on the given run.
func (s *DuetService) Start(runID, userA, userB string) (*models.UserDuetRun, error) {
	if userA == userB {
		return nil, fmt.Errorf("cannot duet with yourself: %w", ErrNotEligible)
	}

	var run models.DuetRun
	if err := s.DB.First(&run, "id = ? AND is_active = ?", runID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("duet run %s: %w", runID, ErrNotFound)
		}
		return nil, err
	}

	for _, uid := range []string{userA, userB} {
		if _, err := s.Economy.EnsureActor(uid); err != nil {
			return nil, err
		}
	}

	var open int64
	if err := s.DB.Model(&models.UserDuetRun{}).
		Where("run_id = ? AND status = ?", runID, models.DuetRunStatusActive).
		Where("(user_a = ? AND user_b = ?) OR (user_a = ? AND user_b = ?)", userA, userB, userB, userA).
		Count(&open).Error; err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, fmt.Errorf("run already in progress for this pair: %w", ErrNotEligible)
	}

	record := models.UserDuetRun{
		ID:        uuid.NewString(),
		RunID:     runID,
		UserA:     userA,
		UserB:     userB,
		Status:    models.DuetRunStatusActive,
		StartedAt: s.now(),
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ReportProgress sets the calling participant's progress (0-100, monotonic).
func (s *DuetService) ReportProgress(userRunID, externalUserID string, progress int) (*models.UserDuetRun, error) {
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("progress must be 0-100: %w", ErrNotEligible)
	}

	var record models.UserDuetRun
	if err := s.DB.First(&record, "id = ?", userRunID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("duet run %s: %w", userRunID, ErrNotFound)
		}
		return nil, err
	}
	if record.Status != models.DuetRunStatusActive {
		return nil, fmt.Errorf("run is %s: %w", record.Status, ErrNotEligible)
	}

	var column string
	var current int
	switch externalUserID {
	case record.UserA:
		column, current = "progress_a", record.ProgressA
	case record.UserB:
		column, current = "progress_b", record.ProgressB
	default:
		return nil, ErrNotParticipant
	}
	if progress < current {
		progress = current // never regress
	}

	if err := s.DB.Model(&models.UserDuetRun{}).
		Where("id = ?", userRunID).
		Update(column, progress).Error; err != nil {
		return nil, err
	}

	if err := s.DB.First(&record, "id = ?", userRunID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Complete grants both actors the run reward when both sides sit at 100.
// On-time completion (elapsed <= duration) multiplies both components by
// 1.1, rounded. The status flip inside the transaction is the idempotency
// guard: a second call finds the run no longer active.
func (s *DuetService) Complete(userRunID, externalUserID string) (*DuetResult, error) {
	var record models.UserDuetRun
	if err := s.DB.Preload("Run").First(&record, "id = ?", userRunID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("duet run %s: %w", userRunID, ErrNotFound)
		}
		return nil, err
	}

	if externalUserID != record.UserA && externalUserID != record.UserB {
		return nil, ErrNotParticipant
	}
	if record.Status == models.DuetRunStatusCompleted {
		return nil, fmt.Errorf("run: %w", ErrAlreadyCompleted)
	}
	if record.Status != models.DuetRunStatusActive {
		return nil, fmt.Errorf("run is %s: %w", record.Status, ErrNotEligible)
	}
	if record.ProgressA < 100 || record.ProgressB < 100 {
		return nil, fmt.Errorf("both partners must reach 100%%: %w", ErrNotCompleted)
	}

	now := s.now()
	elapsed := now.Sub(record.StartedAt)
	onTime := elapsed <= time.Duration(record.Run.DurationSec)*time.Second

	perActor := BalanceDelta{XP: record.Run.RewardXP, Karma: record.Run.RewardKarma}
	if onTime {
		perActor.XP = OnTimeBonus(record.Run.RewardXP)
		perActor.Karma = OnTimeBonus(record.Run.RewardKarma)
	}

	var result DuetResult
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserDuetRun{}).
			Where("id = ? AND status = ?", userRunID, models.DuetRunStatusActive).
			Updates(map[string]interface{}{
				"status":   models.DuetRunStatusCompleted,
				"ended_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("run: %w", ErrAlreadyCompleted)
		}

		for _, uid := range []string{record.UserA, record.UserB} {
			if _, err := s.Economy.ApplyDelta(tx, uid, perActor); err != nil {
				return err
			}
			if err := s.Economy.BumpCounter(tx, uid, "total_duets"); err != nil {
				return err
			}
		}

		bonus := ""
		if onTime {
			bonus = " (on-time bonus)"
		}
		result = DuetResult{
			RunID:    userRunID,
			OnTime:   onTime,
			PerActor: perActor,
			Summary:  fmt.Sprintf("%s complete%s — both partners earn %d XP and %d karma", record.Run.Title, bonus, perActor.XP, perActor.Karma),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	for _, uid := range []string{record.UserA, record.UserB} {
		s.Economy.Ledger.LogAction(models.ActionLog{
			UserID:     uid,
			Action:     "duet_completed",
			EntityKind: "duet_run",
			EntityID:   record.RunID,
			XPDelta:    perActor.XP,
			KarmaDelta: perActor.Karma,
			Detail:     result.Summary,
		})
		s.Economy.Ledger.Notify(uid, "duet", record.Run.Title, result.Summary)
		_ = s.Badges.AutoAwardBadges(uid)
	}

	return &result, nil
}
