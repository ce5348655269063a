package services

import (
	"context"
	"testing"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepDuetRunsPartialCredit(t *testing.T) {
	env := newTestEnv(t)
	run := seedDuetRun(t, env, 3600, 50, 5) // deadline is start + 2h

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env.Duets.now = fixedNow(start)
	record, err := env.Duets.Start(run.ID, "user-1", "user-2")
	require.NoError(t, err)

	_, err = env.Duets.ReportProgress(record.ID, "user-1", 50)
	require.NoError(t, err)
	_, err = env.Duets.ReportProgress(record.ID, "user-2", 100)
	require.NoError(t, err)

	// not yet overdue
	env.Sweeper.now = fixedNow(start.Add(90 * time.Minute))
	expired, err := env.Sweeper.SweepDuetRuns()
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	env.Sweeper.now = fixedNow(start.Add(3 * time.Hour))
	expired, err = env.Sweeper.SweepDuetRuns()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// partial credit is proportional XP, no karma, no on-time bonus
	assert.Equal(t, int64(25), loadActor(t, env.DB, "user-1").XP)
	assert.Equal(t, int64(50), loadActor(t, env.DB, "user-2").XP)
	assert.Equal(t, int64(0), loadActor(t, env.DB, "user-1").Karma)

	var stored models.UserDuetRun
	require.NoError(t, env.DB.First(&stored, "id = ?", record.ID).Error)
	assert.Equal(t, models.DuetRunStatusExpired, stored.Status)
	require.NotNil(t, stored.EndedAt)

	// sweep is idempotent
	expired, err = env.Sweeper.SweepDuetRuns()
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	// an expired run can no longer be completed
	_, err = env.Duets.Complete(record.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestSweepDuetRunsLogsOnlyEarnedCredit(t *testing.T) {
	env := newTestEnv(t)
	run := seedDuetRun(t, env, 3600, 50, 5)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env.Duets.now = fixedNow(start)
	record, err := env.Duets.Start(run.ID, "user-1", "user-2")
	require.NoError(t, err)

	// user-1 never reports progress
	_, err = env.Duets.ReportProgress(record.ID, "user-2", 100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	env.Ledger.Start(ctx)

	env.Sweeper.now = fixedNow(start.Add(3 * time.Hour))
	expired, err := env.Sweeper.SweepDuetRuns()
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	cancel()
	env.Ledger.Wait()

	// only the participant who earned partial credit gets an audit row
	var logs []models.ActionLog
	require.NoError(t, env.DB.Where("action = ?", "duet_expired").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "user-2", logs[0].UserID)
	assert.Equal(t, int64(50), logs[0].XPDelta)

	assert.Equal(t, int64(0), loadActor(t, env.DB, "user-1").XP)
	assert.Equal(t, int64(50), loadActor(t, env.DB, "user-2").XP)
}

func TestSweepSynchInvitesTTL(t *testing.T) {
	env := newTestEnv(t)
	test := seedSynchTest(t, env, []string{"q1"}, 40, 4)

	record, err := env.Synch.Invite(test.ID, "user-1", "user-2", []string{"a"})
	require.NoError(t, err)

	fresh := models.UserSynchTest{
		ID:       uuid.NewString(),
		TestID:   test.ID,
		UserA:    "user-3",
		UserB:    "user-4",
		AnswersA: []string{"a"},
		Status:   models.SynchStatusPending,
	}
	require.NoError(t, env.DB.Create(&fresh).Error)

	// age the first invite past the TTL
	stale := time.Now().Add(-8 * 24 * time.Hour)
	require.NoError(t, env.DB.Model(&models.UserSynchTest{}).
		Where("id = ?", record.ID).
		Update("created_at", stale).Error)

	expired, err := env.Sweeper.SweepSynchInvites()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	var staleGot models.UserSynchTest
	require.NoError(t, env.DB.First(&staleGot, "id = ?", record.ID).Error)
	assert.Equal(t, models.SynchStatusExpired, staleGot.Status)

	var freshGot models.UserSynchTest
	require.NoError(t, env.DB.First(&freshGot, "id = ?", fresh.ID).Error)
	assert.Equal(t, models.SynchStatusPending, freshGot.Status)

	// an expired invite cannot be answered
	_, err = env.Synch.Answer(record.ID, "user-2", []string{"a"})
	assert.ErrorIs(t, err, ErrNotEligible)
}
