package services

import (
	"testing"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFork(t *testing.T, env *testEnv, effectA, effectB models.ForkEffect) *models.DailyFork {
	t.Helper()
	fork := models.DailyFork{
		ID:       uuid.NewString(),
		Key:      "crossroads-" + uuid.NewString()[:8],
		Title:    "The Crossroads",
		OptionA:  "Take the risk",
		OptionB:  "Play it safe",
		EffectA:  effectA,
		EffectB:  effectB,
		IsActive: true,
	}
	require.NoError(t, env.DB.Create(&fork).Error)
	return &fork
}

func TestForkChooseAppliesPercentages(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 1000, 200, 0, 50)
	fork := seedFork(t, env,
		models.ForkEffect{XPPct: 10, KarmaPct: -10},
		models.ForkEffect{GoldPct: 5})

	result, err := env.Forks.Choose("user-1", fork.ID, models.ForkChoiceA)
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.Applied.XP)   // 10% of 1000
	assert.Equal(t, int64(-5), result.Applied.Karma) // -10% of 50
	assert.Equal(t, int64(0), result.Applied.Gold)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(1100), actor.XP)
	assert.Equal(t, int64(45), actor.Karma)
	assert.Equal(t, int64(200), actor.Funds)
	assert.Equal(t, int64(1), actor.TotalForks)
}

func TestForkChooseTwiceRejected(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 100, 0, 0, 0)
	fork := seedFork(t, env, models.ForkEffect{XPPct: 10}, models.ForkEffect{})

	_, err := env.Forks.Choose("user-1", fork.ID, models.ForkChoiceA)
	require.NoError(t, err)

	_, err = env.Forks.Choose("user-1", fork.ID, models.ForkChoiceB)
	assert.ErrorIs(t, err, ErrAlreadyChosen)

	// the first grant stands, nothing applied twice
	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(110), actor.XP)
	assert.Equal(t, int64(1), actor.TotalForks)
}

func TestForkChooseClampsPenalty(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 0, 0, 0, 3)
	fork := seedFork(t, env, models.ForkEffect{KarmaPct: -200}, models.ForkEffect{})

	result, err := env.Forks.Choose("user-1", fork.ID, models.ForkChoiceA)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), result.Applied.Karma)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(0), actor.Karma)
}

func TestForkChooseValidation(t *testing.T) {
	env := newTestEnv(t)
	fork := seedFork(t, env, models.ForkEffect{}, models.ForkEffect{})

	_, err := env.Forks.Choose("user-1", fork.ID, models.ForkChoice("C"))
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = env.Forks.Choose("user-1", uuid.NewString(), models.ForkChoiceA)
	assert.ErrorIs(t, err, ErrNotFound)

	// inactive forks are invisible to choices
	require.NoError(t, env.DB.Model(&models.DailyFork{}).
		Where("id = ?", fork.ID).Update("is_active", false).Error)
	_, err = env.Forks.Choose("user-1", fork.ID, models.ForkChoiceA)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingForksExcludesChosen(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 0, 0, 0, 0)
	chosen := seedFork(t, env, models.ForkEffect{}, models.ForkEffect{})
	open := seedFork(t, env, models.ForkEffect{}, models.ForkEffect{})

	_, err := env.Forks.Choose("user-1", chosen.ID, models.ForkChoiceA)
	require.NoError(t, err)

	pending, err := env.Forks.PendingForks("user-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.ID, pending[0].ID)
}
