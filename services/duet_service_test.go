package services

import (
	"testing"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDuetRun(t *testing.T, env *testEnv, durationSec, xp, karma int64) *models.DuetRun {
	t.Helper()
	run := models.DuetRun{
		ID:          uuid.NewString(),
		MissionKey:  "sunrise-walk-" + uuid.NewString()[:8],
		Title:       "Sunrise Walk",
		DurationSec: durationSec,
		RewardXP:    xp,
		RewardKarma: karma,
		IsActive:    true,
	}
	require.NoError(t, env.DB.Create(&run).Error)
	return &run
}

func TestDuetStartValidation(t *testing.T) {
	env := newTestEnv(t)
	run := seedDuetRun(t, env, 3600, 50, 5)

	_, err := env.Duets.Start(run.ID, "user-1", "user-1")
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = env.Duets.Start(uuid.NewString(), "user-1", "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.Duets.Start(run.ID, "user-1", "user-2")
	require.NoError(t, err)

	// the same pair cannot open a second active run, in either order
	_, err = env.Duets.Start(run.ID, "user-2", "user-1")
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestDuetProgressMonotonic(t *testing.T) {
	env := newTestEnv(t)
	run := seedDuetRun(t, env, 3600, 50, 5)
	record, err := env.Duets.Start(run.ID, "user-1", "user-2")
	require.NoError(t, err)

	record, err = env.Duets.ReportProgress(record.ID, "user-1", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, record.ProgressA)
	assert.Equal(t, 0, record.ProgressB)

	// a lower report never regresses
	record, err = env.Duets.ReportProgress(record.ID, "user-1", 40)
	require.NoError(t, err)
	assert.Equal(t, 60, record.ProgressA)

	_, err = env.Duets.ReportProgress(record.ID, "user-3", 10)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = env.Duets.ReportProgress(record.ID, "user-1", 101)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestDuetCompleteOnTimeBonus(t *testing.T) {
	env := newTestEnv(t)
	run := seedDuetRun(t, env, 3600, 50, 5)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env.Duets.now = fixedNow(start)
	seedActor(t, env.DB, "user-1", 0, 0, 0, 0)
	seedActor(t, env.DB, "user-2", 0, 0, 0, 0)

	record, err := env.Duets.Start(run.ID, "user-1", "user-2")
	require.NoError(t, err)

	_, err = env.Duets.ReportProgress(record.ID, "user-1", 100)
	require.NoError(t, err)

	// completion needs both sides at 100
	_, err = env.Duets.Complete(record.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotCompleted)

	_, err = env.Duets.ReportProgress(record.ID, "user-2", 100)
	require.NoError(t, err)

	env.Duets.now = fixedNow(start.Add(30 * time.Minute)) // inside the budget
	result, err := env.Duets.Complete(record.ID, "user-2")
	require.NoError(t, err)
	assert.True(t, result.OnTime)
	assert.Equal(t, int64(55), result.PerActor.XP)   // 50 * 1.1
	assert.Equal(t, int64(6), result.PerActor.Karma) // 5 * 1.1 rounded

	for _, uid := range []string{"user-1", "user-2"} {
		actor := loadActor(t, env.DB, uid)
		assert.Equal(t, int64(55), actor.XP, uid)
		assert.Equal(t, int64(6), actor.Karma, uid)
		assert.Equal(t, int64(1), actor.TotalDuets, uid)
	}

	_, err = env.Duets.Complete(record.ID, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestDuetCompleteLateNoBonus(t *testing.T) {
	env := newTestEnv(t)
	run := seedDuetRun(t, env, 3600, 50, 5)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	env.Duets.now = fixedNow(start)
	record, err := env.Duets.Start(run.ID, "user-1", "user-2")
	require.NoError(t, err)

	_, err = env.Duets.ReportProgress(record.ID, "user-1", 100)
	require.NoError(t, err)
	_, err = env.Duets.ReportProgress(record.ID, "user-2", 100)
	require.NoError(t, err)

	env.Duets.now = fixedNow(start.Add(2 * time.Hour))
	result, err := env.Duets.Complete(record.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, result.OnTime)
	assert.Equal(t, int64(50), result.PerActor.XP)
	assert.Equal(t, int64(5), result.PerActor.Karma)
}

func TestDuetCompleteOutsiderRejected(t *testing.T) {
	env := newTestEnv(t)
	run := seedDuetRun(t, env, 3600, 50, 5)
	record, err := env.Duets.Start(run.ID, "user-1", "user-2")
	require.NoError(t, err)

	_, err = env.Duets.Complete(record.ID, "user-3")
	assert.ErrorIs(t, err, ErrNotParticipant)
}
