// services/actors.go
package services

import (
	"errors"
	"strconv"
	"strings"

	"parel-engagement-service/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SearchActors searches the local actor table (used to pick a duet or synch
// partner).
func (s *EconomyService) SearchActors(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var actors []models.Actor
	db := s.DB.Model(&models.Actor{}).Where("is_banned = ?", false).Limit(limit)

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(username) LIKE ?", searchTerm)
	}

	if err := db.Find(&actors).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed", "details": err.Error()})
	}

	// Minimal response shape: external ID is the identifier clients use.
	type ActorSummary struct {
		ExternalUserID string  `json:"external_user_id"`
		Username       string  `json:"username"`
		Level          int     `json:"level"`
		AvatarURL      *string `json:"avatar_url,omitempty"`
	}

	res := make([]ActorSummary, len(actors))
	for i, a := range actors {
		res[i] = ActorSummary{
			ExternalUserID: a.ExternalUserID,
			Username:       a.Username,
			Level:          a.Level,
			AvatarURL:      a.AvatarURL,
		}
	}

	return c.JSON(res)
}

// GetActorProfile returns the authenticated actor's balances and counters,
// creating the row lazily on first sight.
func (s *EconomyService) GetActorProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	actor, err := s.EnsureActor(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "actor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load actor",
			"cause": err.Error(),
		})
	}

	return c.JSON(actor)
}
