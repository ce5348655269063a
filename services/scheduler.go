// services/scheduler.go
package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"parel-engagement-service/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// synchInviteTTL is how long a pending synch invite survives before the
// sweep expires it without reward.
const synchInviteTTL = 7 * 24 * time.Hour

// ExpirySweeper finalizes time-expired engagement records. Duet runs past
// twice their duration budget are expired with partial credit; stale synch
// invites are expired with none. Shares the transaction shape of the live
// handlers.
type ExpirySweeper struct {
	DB      *gorm.DB
	Economy *EconomyService

	now func() time.Time
}

func NewExpirySweeper(db *gorm.DB, economy *EconomyService) *ExpirySweeper {
	return &ExpirySweeper{DB: db, Economy: economy, now: time.Now}
}

// StartExpiryScheduler runs both sweeps every minute.
func (s *ExpirySweeper) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if n, err := s.SweepDuetRuns(); err != nil {
				log.Printf("[Sweeper] duet sweep error: %v", err)
			} else if n > 0 {
				log.Printf("✅ Expired %d overdue duet run(s) with partial credit", n)
			}
			if n, err := s.SweepSynchInvites(); err != nil {
				log.Printf("[Sweeper] synch sweep error: %v", err)
			} else if n > 0 {
				log.Printf("✅ Expired %d stale synch invite(s)", n)
			}
		}),
	)
}

// SweepDuetRuns expires active runs whose deadline (start + 2x duration)
// has passed. Each participant gets round(rewardXP * progress/100), no
// on-time bonus.
func (s *ExpirySweeper) SweepDuetRuns() (int, error) {
	now := s.now()

	var runs []models.UserDuetRun
	if err := s.DB.Preload("Run").
		Where("status = ?", models.DuetRunStatusActive).
		Find(&runs).Error; err != nil {
		return 0, err
	}

	expired := 0
	for _, run := range runs {
		deadline := run.StartedAt.Add(2 * time.Duration(run.Run.DurationSec) * time.Second)
		if now.Before(deadline) {
			continue
		}

		r := run
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.UserDuetRun{}).
				Where("id = ? AND status = ?", r.ID, models.DuetRunStatusActive).
				Updates(map[string]interface{}{
					"status":   models.DuetRunStatusExpired,
					"ended_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil // lost to a concurrent complete/expire
			}

			for uid, progress := range map[string]int{r.UserA: r.ProgressA, r.UserB: r.ProgressB} {
				credit := int64(math.Round(float64(r.Run.RewardXP) * float64(progress) / 100.0))
				if credit == 0 {
					continue
				}
				if _, err := s.Economy.ApplyDelta(tx, uid, BalanceDelta{XP: credit}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("[Sweeper] failed to expire duet run %s: %v", r.ID, err)
			continue
		}
		expired++

		for uid, progress := range map[string]int{r.UserA: r.ProgressA, r.UserB: r.ProgressB} {
			credit := int64(math.Round(float64(r.Run.RewardXP) * float64(progress) / 100.0))
			if credit == 0 {
				continue // nothing granted, nothing to audit
			}
			s.Economy.Ledger.LogAction(models.ActionLog{
				UserID:     uid,
				Action:     "duet_expired",
				EntityKind: "duet_run",
				EntityID:   r.RunID,
				XPDelta:    credit,
				Detail:     fmt.Sprintf("run expired at %d%% progress, partial credit %d XP", progress, credit),
			})
		}
	}
	return expired, nil
}

// SweepSynchInvites expires pending invites older than the TTL.
func (s *ExpirySweeper) SweepSynchInvites() (int, error) {
	cutoff := s.now().Add(-synchInviteTTL)
	res := s.DB.Model(&models.UserSynchTest{}).
		Where("status = ? AND created_at < ?", models.SynchStatusPending, cutoff).
		Update("status", models.SynchStatusExpired)
	return int(res.RowsAffected), res.Error
}
