package services

import (
	"testing"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuest(t *testing.T, env *testEnv, threshold, xp, gold, karma int64) *models.Quest {
	t.Helper()
	quest := models.Quest{
		ID:             uuid.NewString(),
		Key:            "night-letters-" + uuid.NewString()[:8],
		Title:          "Night Letters",
		ThresholdValue: threshold,
		RewardXP:       xp,
		RewardGold:     gold,
		RewardKarma:    karma,
		IsActive:       true,
	}
	require.NoError(t, env.DB.Create(&quest).Error)
	return &quest
}

func TestQuestProgressCrossesThreshold(t *testing.T) {
	env := newTestEnv(t)
	quest := seedQuest(t, env, 5, 300, 20, 0)

	record, err := env.Quests.RecordProgress("user-1", quest.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), record.Progress)
	assert.False(t, record.IsCompleted)

	record, err = env.Quests.RecordProgress("user-1", quest.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.Progress)
	assert.True(t, record.IsCompleted)
	require.NotNil(t, record.CompletedAt)

	_, err = env.Quests.RecordProgress("user-1", quest.ID, 0)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestQuestClaimWithLoreBonus(t *testing.T) {
	env := newTestEnv(t)
	quest := seedQuest(t, env, 1, 300, 20, 4)

	record, err := env.Quests.RecordProgress("user-1", quest.ID, 1)
	require.NoError(t, err)
	require.True(t, record.IsCompleted)

	// new actors default to lore logging on
	result, err := env.Quests.Claim("user-1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.LoreBonusXP) // floor(1% of 300)
	assert.Equal(t, int64(303), result.Applied.XP)
	assert.Equal(t, int64(20), result.Applied.Gold)
	assert.Equal(t, int64(4), result.Applied.Karma)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(303), actor.XP)
	assert.Equal(t, int64(20), actor.Funds)
	assert.Equal(t, int64(1), actor.TotalQuests)

	_, err = env.Quests.Claim("user-1", record.ID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestQuestClaimWithoutLoreBonus(t *testing.T) {
	env := newTestEnv(t)
	quest := seedQuest(t, env, 1, 250, 0, 0)

	record, err := env.Quests.RecordProgress("user-1", quest.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.DB.Model(&models.Actor{}).
		Where("external_user_id = ?", "user-1").
		Update("lore_logging_enabled", false).Error)

	result, err := env.Quests.Claim("user-1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.LoreBonusXP)
	assert.Equal(t, int64(250), result.Applied.XP)
}

func TestQuestClaimGuards(t *testing.T) {
	env := newTestEnv(t)
	quest := seedQuest(t, env, 10, 100, 0, 0)

	record, err := env.Quests.RecordProgress("user-1", quest.ID, 2)
	require.NoError(t, err)

	_, err = env.Quests.Claim("user-1", record.ID)
	assert.ErrorIs(t, err, ErrNotCompleted)

	_, err = env.Quests.Claim("user-2", record.ID)
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = env.Quests.Claim("user-1", uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
