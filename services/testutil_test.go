package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Actor{},
		&models.DailyFork{},
		&models.UserDailyFork{},
		&models.Ritual{},
		&models.UserRitual{},
		&models.DuetRun{},
		&models.UserDuetRun{},
		&models.Quest{},
		&models.UserQuest{},
		&models.BattleAchievement{},
		&models.UserBattleAchievement{},
		&models.SynchTest{},
		&models.UserSynchTest{},
		&models.DreamspaceGrant{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.ActionLog{},
		&models.Notification{},
	))
	return db
}

// testEnv wires the full service graph against one test database. The ledger
// dispatcher is constructed but not started: enqueues never block, and tests
// that care about ledger writes start it themselves.
type testEnv struct {
	DB           *gorm.DB
	Ledger       *LedgerDispatcher
	Economy      *EconomyService
	Badges       *BadgeService
	Forks        *ForkService
	Rituals      *RitualService
	Duets        *DuetService
	Quests       *QuestService
	Achievements *AchievementService
	Synch        *SynchService
	Dreamspace   *DreamspaceService
	Sweeper      *ExpirySweeper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	ledger := NewLedgerDispatcher(db)
	economy := NewEconomyService(db, ledger)
	badges := NewBadgeService(db, economy)

	return &testEnv{
		DB:           db,
		Ledger:       ledger,
		Economy:      economy,
		Badges:       badges,
		Forks:        NewForkService(db, economy, badges),
		Rituals:      NewRitualService(db, economy, badges),
		Duets:        NewDuetService(db, economy, badges),
		Quests:       NewQuestService(db, economy, badges),
		Achievements: NewAchievementService(db, economy, badges),
		Synch:        NewSynchService(db, economy, badges),
		Dreamspace:   NewDreamspaceService(db, economy),
		Sweeper:      NewExpirySweeper(db, economy),
	}
}

// seedActor inserts an actor row with the given balances.
func seedActor(t *testing.T, db *gorm.DB, externalID string, xp, gold, diamonds, karma int64) *models.Actor {
	t.Helper()
	actor := models.Actor{
		ID:             uuid.NewString(),
		ExternalUserID: externalID,
		Username:       externalID,
		XP:             xp,
		Funds:          gold,
		Diamonds:       diamonds,
		Karma:          karma,
		Level:          1,
	}
	require.NoError(t, db.Create(&actor).Error)
	return &actor
}

func loadActor(t *testing.T, db *gorm.DB, externalID string) *models.Actor {
	t.Helper()
	var actor models.Actor
	require.NoError(t, db.Where("external_user_id = ?", externalID).First(&actor).Error)
	return &actor
}

// fixedNow returns a deterministic clock for services with injectable time.
func fixedNow(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
