// handlers/admin_routes.go
package handlers

import (
	"parel-engagement-service/middleware"
	"parel-engagement-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, admin *services.AdminService, economy *services.EconomyService) {
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/duets", admin.CreateDuetRun)
	adminGroup.Post("/forks", admin.CreateFork)
	adminGroup.Post("/rituals", admin.CreateRitual)
	adminGroup.Post("/quests", admin.CreateQuest)
	adminGroup.Post("/achievements", admin.CreateAchievement)
	adminGroup.Post("/synch", admin.CreateSynchTest)
	adminGroup.Patch("/:kind/:id/status", admin.SetEngagementActive)
	adminGroup.Post("/artwork", admin.UploadArtwork)

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" || req.XP <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and a positive xp are required"})
		}

		actor, err := economy.GrantXP(req.UserID, req.XP, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP grant failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message": "XP granted successfully",
			"user_id": req.UserID,
			"xp":      actor.XP,
			"level":   actor.Level,
		})
	})
}
