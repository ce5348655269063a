package services

import (
	"context"
	"testing"

	"parel-engagement-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerDispatcherFlushesOnShutdown(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	env.Ledger.Start(ctx)

	env.Ledger.LogAction(models.ActionLog{
		UserID:  "user-1",
		Action:  "ritual_completed",
		XPDelta: 30,
	})
	env.Ledger.Notify("user-1", "ritual", "Morning Pages", "streak 1")

	cancel()
	env.Ledger.Wait()

	var actions int64
	env.DB.Model(&models.ActionLog{}).Count(&actions)
	assert.Equal(t, int64(1), actions)

	var notification models.Notification
	require.NoError(t, env.DB.Where("user_id = ?", "user-1").First(&notification).Error)
	assert.Equal(t, "ritual", notification.Type)
	assert.False(t, notification.Viewed)
}

func TestLedgerDropsWhenFull(t *testing.T) {
	env := newTestEnv(t)
	// dispatcher never started: the queue fills and overflow is counted

	for i := 0; i < 300; i++ {
		env.Ledger.Notify("user-1", "quest", "Night Letters", "progress")
	}
	assert.Equal(t, int64(300-cap(env.Ledger.queue)), env.Ledger.Dropped())
}
