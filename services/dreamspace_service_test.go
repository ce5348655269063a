package services

import (
	"testing"

	"parel-engagement-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDreamspaceMissWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 100, 0, 0, 0)
	seedQuest(t, env, 5, 100, 0, 0)

	env.Dreamspace.Roll = func() float64 { return 0.5 }

	result, err := env.Dreamspace.RollForGrant("user-1")
	require.NoError(t, err)
	assert.False(t, result.Triggered)
	assert.Nil(t, result.Grant)

	var count int64
	env.DB.Model(&models.DreamspaceGrant{}).Count(&count)
	assert.Equal(t, int64(0), count)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(100), actor.XP)
}

func TestDreamspaceHitGrantsEntity(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 0, 0, 0, 0)
	quest := seedQuest(t, env, 5, 100, 0, 0)

	env.Dreamspace.Roll = func() float64 { return 0.01 }
	env.Dreamspace.Pick = func(n int) int { return 0 }

	result, err := env.Dreamspace.RollForGrant("user-1")
	require.NoError(t, err)
	assert.True(t, result.Triggered)
	require.NotNil(t, result.Grant)
	assert.Equal(t, "quest", result.Grant.EntityKind)
	assert.Equal(t, quest.ID, result.Grant.EntityID)
	assert.Equal(t, quest.Title, result.Grant.EntityTitle)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(dreamspaceGrantXP), actor.XP)

	var count int64
	env.DB.Model(&models.DreamspaceGrant{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDreamspaceHitWithNoCandidates(t *testing.T) {
	env := newTestEnv(t)
	seedActor(t, env.DB, "user-1", 0, 0, 0, 0)

	env.Dreamspace.Roll = func() float64 { return 0.0 }

	result, err := env.Dreamspace.RollForGrant("user-1")
	require.NoError(t, err)
	assert.False(t, result.Triggered)
	assert.Nil(t, result.Grant)

	actor := loadActor(t, env.DB, "user-1")
	assert.Equal(t, int64(0), actor.XP)
}

func TestDreamspaceCandidateCap(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < dreamspaceCandidateCap+10; i++ {
		seedQuest(t, env, 5, 10, 0, 0)
	}

	candidates, err := env.Dreamspace.candidates()
	require.NoError(t, err)
	assert.Len(t, candidates, dreamspaceCandidateCap)
}
