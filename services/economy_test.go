package services

import (
	"testing"

	"parel-engagement-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPercentOf(t *testing.T) {
	assert.Equal(t, int64(100), PercentOf(1000, 10))
	assert.Equal(t, int64(-100), PercentOf(1000, -10))
	assert.Equal(t, int64(0), PercentOf(0, 50))
	// rounding, not truncation
	assert.Equal(t, int64(1), PercentOf(5, 10))  // 0.5 rounds up
	assert.Equal(t, int64(0), PercentOf(4, 10))  // 0.4 rounds down
	assert.Equal(t, int64(33), PercentOf(333, 10))
}

func TestOnTimeBonus(t *testing.T) {
	assert.Equal(t, int64(55), OnTimeBonus(50))
	assert.Equal(t, int64(6), OnTimeBonus(5)) // 5.5 rounds half away from zero
	assert.Equal(t, int64(0), OnTimeBonus(0))
	assert.Equal(t, int64(110), OnTimeBonus(100))
}

func TestLevelCurve(t *testing.T) {
	assert.Equal(t, 1, levelForXP(0))
	assert.Equal(t, 1, levelForXP(199))
	assert.Equal(t, 2, levelForXP(200))
	assert.Equal(t, 2, levelForXP(428))
	assert.Equal(t, 3, levelForXP(429))
}

func TestEnsureActorIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.Economy.EnsureActor("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.Level)

	second, err := env.Economy.EnsureActor("user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	env.DB.Model(&models.Actor{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestApplyDeltaClampsToZero(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 100, 30, 0, 5)

	var applied BalanceDelta
	err := env.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = env.Economy.ApplyDelta(tx, "user-1", BalanceDelta{XP: -500, Gold: -10, Karma: -5})
		return err
	})
	require.NoError(t, err)

	// negative deltas clamp against the current balance
	assert.Equal(t, int64(-100), applied.XP)
	assert.Equal(t, int64(-10), applied.Gold)
	assert.Equal(t, int64(-5), applied.Karma)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(0), actor.XP)
	assert.Equal(t, int64(20), actor.Funds)
	assert.Equal(t, int64(0), actor.Karma)
}

func TestApplyDeltaRecomputesLevel(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 0, 0, 0, 0)

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		_, err := env.Economy.ApplyDelta(tx, "user-1", BalanceDelta{XP: 450})
		return err
	})
	require.NoError(t, err)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(450), actor.XP)
	assert.Equal(t, 3, actor.Level)
}

func TestApplyDeltaUnknownActor(t *testing.T) {
	env := newTestEnv(t)

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		_, err := env.Economy.ApplyDelta(tx, "ghost", BalanceDelta{XP: 10})
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGrantXP(t *testing.T) {
	env := newTestEnv(t)

	actor, err := env.Economy.GrantXP("user-1", 250, "manual correction")
	require.NoError(t, err)
	assert.Equal(t, int64(250), actor.XP)
	assert.Equal(t, 2, actor.Level)
}
