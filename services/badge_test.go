package services

import (
	"testing"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedBadgeTypesIdempotent(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.Badges.SeedBadgeTypes())
	require.NoError(t, env.Badges.SeedBadgeTypes())

	var count int64
	env.DB.Model(&models.BadgeType{}).Count(&count)
	assert.Equal(t, int64(len(models.BadgeTriggers)), count)
}

func TestAutoAwardBadgesOnCounter(t *testing.T) {
	env := newTestEnv(t)
	trigger := models.BadgeType{
		ID:         uuid.NewString(),
		Code:       "FIRST_FORK",
		Name:       "Crossroads",
		Threshold:  map[string]int64{"total_forks": 1},
		RewardGold: 25,
	}
	require.NoError(t, env.DB.Create(&trigger).Error)

	actor := seedActor(t, env.DB, "user-1", 0, 0, 0, 0)
	require.NoError(t, env.Badges.AutoAwardBadges("user-1"))

	// counter not reached yet
	var count int64
	env.DB.Model(&models.UserBadge{}).Count(&count)
	assert.Equal(t, int64(0), count)

	require.NoError(t, env.DB.Model(&models.Actor{}).
		Where("id = ?", actor.ID).Update("total_forks", 1).Error)

	require.NoError(t, env.Badges.AutoAwardBadges("user-1"))
	env.DB.Model(&models.UserBadge{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// awarding is once per (actor, badge type)
	require.NoError(t, env.Badges.AutoAwardBadges("user-1"))
	env.DB.Model(&models.UserBadge{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestClaimBadgePaysGoldOnce(t *testing.T) {
	env := newTestEnv(t)
	trigger := models.BadgeType{
		ID:         uuid.NewString(),
		Code:       "RITUAL_WEEK",
		Name:       "Creature of Habit",
		Threshold:  map[string]int64{"ritual_streak": 7},
		RewardGold: 100,
	}
	require.NoError(t, env.DB.Create(&trigger).Error)
	seedActor(t, env.DB, "user-1", 0, 0, 0, 0)

	userBadge := models.UserBadge{
		ID:             uuid.NewString(),
		ExternalUserID: "user-1",
		BadgeTypeID:    trigger.ID,
	}
	require.NoError(t, env.DB.Create(&userBadge).Error)

	delta, err := env.Badges.ClaimBadge("user-1", userBadge.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), delta.Gold)
	assert.Equal(t, int64(100), loadActor(t, env.DB, "user-1").Funds)

	_, err = env.Badges.ClaimBadge("user-1", userBadge.ID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = env.Badges.ClaimBadge("user-2", userBadge.ID)
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = env.Badges.ClaimBadge("user-1", uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
