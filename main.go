package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"parel-engagement-service/handlers"
	"parel-engagement-service/middleware"
	"parel-engagement-service/models"
	"parel-engagement-service/services"
	"parel-engagement-service/utils"
	"parel-engagement-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // artwork uploads
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
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
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger := services.NewLedgerDispatcher(db)
	ledger.Start(ctx)

	economyService := services.NewEconomyService(db, ledger)
	badgeService := services.NewBadgeService(db, economyService)
	forkService := services.NewForkService(db, economyService, badgeService)
	ritualService := services.NewRitualService(db, economyService, badgeService)
	duetService := services.NewDuetService(db, economyService, badgeService)
	questService := services.NewQuestService(db, economyService, badgeService)
	achievementService := services.NewAchievementService(db, economyService, badgeService)
	synchService := services.NewSynchService(db, economyService, badgeService)
	dreamspaceService := services.NewDreamspaceService(db, economyService)
	notificationService := services.NewNotificationService(db)
	adminService := services.NewAdminService(db)

	if err := badgeService.SeedBadgeTypes(); err != nil {
		log.Fatal("failed to seed badge types:", err)
	}

	// --- CONFIGURE profile service sync ---
	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("ENGAGEMENT_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("ENGAGEMENT_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewActorSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)
	syncWorker.Start(ctx)

	authClient := services.NewAuthServiceClient(profileServiceURL, serviceToken)

	sweeper := services.NewExpirySweeper(db, economyService)
	sweeper.StartExpiryScheduler()

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupEngagementRoutes(app, handlers.EngagementServices{
		Economy:      economyService,
		Forks:        forkService,
		Rituals:      ritualService,
		Duets:        duetService,
		Quests:       questService,
		Achievements: achievementService,
		Synch:        synchService,
		Dreamspace:   dreamspaceService,
		Badges:       badgeService,
	})
	handlers.SetupNotificationRoutes(app, notificationService, authClient)
	handlers.SetupAdminRoutes(app, adminService, economyService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Actor Sync Worker running")
	log.Println("✅ Expiry sweeper scheduled")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
	ledger.Wait() // let the dispatcher flush queued ledger rows
}
