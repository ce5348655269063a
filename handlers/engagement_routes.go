// handlers/engagement_routes.go
package handlers

import (
	"errors"

	"parel-engagement-service/middleware"
	"parel-engagement-service/models"
	"parel-engagement-service/services"

	"github.com/gofiber/fiber/v2"
)

// respondErr maps service sentinel errors onto the HTTP taxonomy:
// ErrNotFound → 404, every other sentinel (eligibility/claim rejections)
// → 400, anything else → 500.
func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrNotEligible),
		errors.Is(err, services.ErrAlreadyClaimed),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrAlreadyChosen),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotCompleted):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "internal error", "cause": err.Error()})
	}
}

// EngagementServices bundles what the user-facing routes need.
type EngagementServices struct {
	Economy      *services.EconomyService
	Forks        *services.ForkService
	Rituals      *services.RitualService
	Duets        *services.DuetService
	Quests       *services.QuestService
	Achievements *services.AchievementService
	Synch        *services.SynchService
	Dreamspace   *services.DreamspaceService
	Badges       *services.BadgeService
}

func SetupEngagementRoutes(app *fiber.App, svc EngagementServices) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// --- Actor ---
	secured.Get("/actors/me", svc.Economy.GetActorProfile)
	secured.Get("/actors/search", svc.Economy.SearchActors)

	// --- Daily forks ---
	secured.Get("/forks/today", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		forks, err := svc.Forks.PendingForks(userID)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(forks)
	})

	secured.Post("/forks/:id/choose", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Choice models.ForkChoice `json:"choice"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
		}
		result, err := svc.Forks.Choose(userID, c.Params("id"), req.Choice)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": result})
	})

	// --- Rituals ---
	secured.Post("/rituals/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := svc.Rituals.Complete(userID, c.Params("id"))
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": result})
	})

	secured.Get("/rituals/streaks", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		streaks, err := svc.Rituals.Streaks(userID)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(streaks)
	})

	// --- Duet runs ---
	secured.Post("/duets/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			PartnerID string `json:"partner_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.PartnerID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "partner_id is required"})
		}
		record, err := svc.Duets.Start(c.Params("id"), userID, req.PartnerID)
		if err != nil {
			return respondErr(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "run": record})
	})

	secured.Post("/duets/runs/:runID/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Progress int `json:"progress"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
		}
		record, err := svc.Duets.ReportProgress(c.Params("runID"), userID, req.Progress)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "run": record})
	})

	secured.Post("/duets/runs/:runID/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := svc.Duets.Complete(c.Params("runID"), userID)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": result})
	})

	// --- Quests ---
	secured.Post("/quests/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
		}
		record, err := svc.Quests.RecordProgress(userID, c.Params("id"), req.Amount)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "user_quest": record})
	})

	secured.Post("/quests/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			UserQuestID string `json:"user_quest_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserQuestID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "user_quest_id is required"})
		}
		result, err := svc.Quests.Claim(userID, req.UserQuestID)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": result})
	})

	// --- Battle achievements ---
	secured.Post("/achievements/:id/record", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
		}
		record, err := svc.Achievements.Record(userID, c.Params("id"), req.Amount)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "user_achievement": record})
	})

	secured.Post("/achievements/:id/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := svc.Achievements.Claim(userID, c.Params("id"))
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": result})
	})

	// --- Synch tests ---
	secured.Post("/synch/:id/invite", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			PartnerID string   `json:"partner_id"`
			Answers   []string `json:"answers"`
		}
		if err := c.BodyParser(&req); err != nil || req.PartnerID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "partner_id and answers are required"})
		}
		record, err := svc.Synch.Invite(c.Params("id"), userID, req.PartnerID, req.Answers)
		if err != nil {
			return respondErr(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "run": record})
	})

	secured.Post("/synch/runs/:runID/answer", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Answers []string `json:"answers"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid JSON"})
		}
		result, err := svc.Synch.Answer(c.Params("runID"), userID, req.Answers)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": result})
	})

	// --- Dreamspace ---
	secured.Post("/dreamspace/roll", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		result, err := svc.Dreamspace.RollForGrant(userID)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "result": result})
	})

	// --- Badges ---
	secured.Get("/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var userBadges []models.UserBadge
		if err := svc.Badges.DB.
			Where("external_user_id = ?", userID).
			Order("awarded_at DESC").
			Find(&userBadges).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}

		var response []fiber.Map
		for _, ub := range userBadges {
			var bt models.BadgeType
			if err := svc.Badges.DB.First(&bt, "id = ?", ub.BadgeTypeID).Error; err != nil {
				continue
			}
			response = append(response, fiber.Map{
				"id":          ub.ID,
				"code":        bt.Code,
				"name":        bt.Name,
				"description": bt.Description,
				"icon_url":    bt.IconURL,
				"rarity":      bt.Rarity,
				"reward_gold": bt.RewardGold,
				"is_claimed":  ub.IsClaimed,
				"awarded_at":  ub.AwardedAt,
			})
		}
		return c.JSON(response)
	})

	secured.Post("/badges/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			UserBadgeID string `json:"user_badge_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserBadgeID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "user_badge_id is required"})
		}
		applied, err := svc.Badges.ClaimBadge(userID, req.UserBadgeID)
		if err != nil {
			return respondErr(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "applied": applied})
	})
}

// SetupNotificationRoutes wires the feed endpoints, including the SSE
// stream which authenticates via query token instead of gateway headers.
func SetupNotificationRoutes(app *fiber.App, notifications *services.NotificationService, authClient *services.AuthServiceClient) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/notifications", notifications.GetUserNotifications)
	secured.Get("/notifications/counts", notifications.GetUserNotificationCounts)
	secured.Post("/notifications/:id/viewed", notifications.MarkNotificationViewed)
	secured.Post("/notifications/viewed-all", notifications.MarkAllNotificationsViewed)

	app.Get("/notifications/stream", middleware.SSEAuthMiddleware(authClient), notifications.StreamUserNotificationsSSE)
}
