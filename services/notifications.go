package services

import (
	"errors"
	"log"
	"strconv"

	"parel-engagement-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService serves the user-facing feed written by the ledger
// dispatcher.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// GetUserNotifications fetches feed rows for the authenticated actor.
func (s *NotificationService) GetUserNotifications(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limitStr := c.Query("limit")
	limit := 50
	if limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	query := s.DB.Where("user_id = ?", userID)
	switch c.Query("viewed") {
	case "true":
		query = query.Where("viewed = ?", true)
	case "false":
		query = query.Where("viewed = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		log.Printf("DB Error fetching notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	return c.JSON(notifications)
}

// GetUserNotificationCounts returns total and unviewed counts for polling.
func (s *NotificationService) GetUserNotificationCounts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var totalCount int64
	if err := s.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&totalCount).Error; err != nil {
		log.Printf("DB Error counting notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting notifications"})
	}

	var unviewedCount int64
	if err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND viewed = ?", userID, false).
		Count(&unviewedCount).Error; err != nil {
		log.Printf("DB Error counting unviewed notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting unviewed notifications"})
	}

	return c.JSON(fiber.Map{
		"total_count":    totalCount,
		"unviewed_count": unviewedCount,
	})
}

// MarkNotificationViewed marks a single row as viewed (idempotent).
func (s *NotificationService) MarkNotificationViewed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	notifID := c.Params("id")

	if _, err := uuid.Parse(notifID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	var notif models.Notification
	if err := s.DB.Where("id = ? AND user_id = ?", notifID, userID).First(&notif).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found or not owned"})
		}
		log.Printf("DB error fetching notification: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if !notif.Viewed {
		if err := s.DB.Model(&notif).Update("viewed", true).Error; err != nil {
			log.Printf("Failed to update viewed status: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark as viewed"})
		}
	}

	return c.JSON(fiber.Map{"message": "OK", "notification_id": notif.ID, "viewed": true})
}

// MarkAllNotificationsViewed marks every unviewed row for the actor.
func (s *NotificationService) MarkAllNotificationsViewed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND viewed = ?", userID, false).
		Update("viewed", true)

	if result.Error != nil {
		log.Printf("Bulk mark viewed failed: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{
		"message":      "OK",
		"marked_count": result.RowsAffected,
	})
}
