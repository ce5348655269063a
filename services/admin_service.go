package services

import (
	"fmt"
	"log"
	"path/filepath"

	"parel-engagement-service/models"
	"parel-engagement-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// AdminService owns the engagement definition CRUD. Keys are slugified from
// titles; definitions are never hard-deleted, only deactivated.
type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// CreateDuetRun creates a paired mission definition (Admin only)
func (s *AdminService) CreateDuetRun(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DurationSec int64  `json:"duration_sec"`
		RewardXP    int64  `json:"reward_xp"`
		RewardKarma int64  `json:"reward_karma"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.DurationSec <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and a positive duration_sec are required"})
	}

	run := &models.DuetRun{
		ID:          uuid.NewString(),
		MissionKey:  slug.Make(req.Title),
		Title:       req.Title,
		Description: req.Description,
		DurationSec: req.DurationSec,
		RewardXP:    req.RewardXP,
		RewardKarma: req.RewardKarma,
		IsActive:    true,
	}
	if err := s.DB.Create(run).Error; err != nil {
		log.Printf("DB Error creating duet run: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create duet run"})
	}
	return c.Status(fiber.StatusCreated).JSON(run)
}

// CreateFork creates a daily fork definition (Admin only)
func (s *AdminService) CreateFork(c *fiber.Ctx) error {
	var req struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		OptionA     string            `json:"option_a"`
		OptionB     string            `json:"option_b"`
		EffectA     models.ForkEffect `json:"effect_a"`
		EffectB     models.ForkEffect `json:"effect_b"`
		Rarity      models.ForkRarity `json:"rarity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.OptionA == "" || req.OptionB == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and both options are required"})
	}
	if req.Rarity == "" {
		req.Rarity = models.ForkRarityCommon
	}

	fork := &models.DailyFork{
		ID:          uuid.NewString(),
		Key:         slug.Make(req.Title),
		Title:       req.Title,
		Description: req.Description,
		OptionA:     req.OptionA,
		OptionB:     req.OptionB,
		EffectA:     req.EffectA,
		EffectB:     req.EffectB,
		Rarity:      req.Rarity,
		IsActive:    true,
	}
	if err := s.DB.Create(fork).Error; err != nil {
		log.Printf("DB Error creating fork: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create fork"})
	}
	return c.Status(fiber.StatusCreated).JSON(fork)
}

// CreateRitual creates a ritual definition (Admin only)
func (s *AdminService) CreateRitual(c *fiber.Ctx) error {
	var req struct {
		Title       string                 `json:"title"`
		Description string                 `json:"description"`
		RewardXP    int64                  `json:"reward_xp"`
		RewardKarma int64                  `json:"reward_karma"`
		TimeOfDay   models.RitualTimeOfDay `json:"time_of_day"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.TimeOfDay == "" {
		req.TimeOfDay = models.RitualAny
	}

	ritual := &models.Ritual{
		ID:          uuid.NewString(),
		Key:         slug.Make(req.Title),
		Title:       req.Title,
		Description: req.Description,
		RewardXP:    req.RewardXP,
		RewardKarma: req.RewardKarma,
		TimeOfDay:   req.TimeOfDay,
		IsActive:    true,
	}
	if err := s.DB.Create(ritual).Error; err != nil {
		log.Printf("DB Error creating ritual: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create ritual"})
	}
	return c.Status(fiber.StatusCreated).JSON(ritual)
}

// CreateQuest creates a threshold quest definition (Admin only)
func (s *AdminService) CreateQuest(c *fiber.Ctx) error {
	var req struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		ThresholdValue int64  `json:"threshold_value"`
		RewardXP       int64  `json:"reward_xp"`
		RewardGold     int64  `json:"reward_gold"`
		RewardKarma    int64  `json:"reward_karma"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.ThresholdValue <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and a positive threshold_value are required"})
	}

	quest := &models.Quest{
		ID:             uuid.NewString(),
		Key:            slug.Make(req.Title),
		Title:          req.Title,
		Description:    req.Description,
		ThresholdValue: req.ThresholdValue,
		RewardXP:       req.RewardXP,
		RewardGold:     req.RewardGold,
		RewardKarma:    req.RewardKarma,
		IsActive:       true,
	}
	if err := s.DB.Create(quest).Error; err != nil {
		log.Printf("DB Error creating quest: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create quest"})
	}
	return c.Status(fiber.StatusCreated).JSON(quest)
}

// CreateAchievement creates a battle achievement definition (Admin only)
func (s *AdminService) CreateAchievement(c *fiber.Ctx) error {
	var req struct {
		Title            string `json:"title"`
		Description      string `json:"description"`
		Stat             string `json:"stat"`
		RequirementValue int64  `json:"requirement_value"`
		RewardDiamonds   int64  `json:"reward_diamonds"`
		RewardXP         int64  `json:"reward_xp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.Stat == "" || req.RequirementValue <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title, stat and a positive requirement_value are required"})
	}

	ach := &models.BattleAchievement{
		ID:               uuid.NewString(),
		Key:              slug.Make(req.Title),
		Title:            req.Title,
		Description:      req.Description,
		Stat:             req.Stat,
		RequirementValue: req.RequirementValue,
		RewardDiamonds:   req.RewardDiamonds,
		RewardXP:         req.RewardXP,
		IsActive:         true,
	}
	if err := s.DB.Create(ach).Error; err != nil {
		log.Printf("DB Error creating achievement: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create achievement"})
	}
	return c.Status(fiber.StatusCreated).JSON(ach)
}

// CreateSynchTest creates a paired questionnaire definition (Admin only)
func (s *AdminService) CreateSynchTest(c *fiber.Ctx) error {
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Questions   []string `json:"questions"`
		RewardXP    int64    `json:"reward_xp"`
		RewardKarma int64    `json:"reward_karma"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || len(req.Questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and at least one question are required"})
	}

	test := &models.SynchTest{
		ID:          uuid.NewString(),
		Key:         slug.Make(req.Title),
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
		RewardXP:    req.RewardXP,
		RewardKarma: req.RewardKarma,
		IsActive:    true,
	}
	if err := s.DB.Create(test).Error; err != nil {
		log.Printf("DB Error creating synch test: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create synch test"})
	}
	return c.Status(fiber.StatusCreated).JSON(test)
}

// SetEngagementActive flips the is_active flag on any engagement definition
func (s *AdminService) SetEngagementActive(c *fiber.Ctx) error {
	kind := c.Params("kind")
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid entity ID"})
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "is_active is required"})
	}

	var model interface{}
	switch kind {
	case "duets":
		model = &models.DuetRun{}
	case "forks":
		model = &models.DailyFork{}
	case "rituals":
		model = &models.Ritual{}
	case "quests":
		model = &models.Quest{}
	case "achievements":
		model = &models.BattleAchievement{}
	case "synch":
		model = &models.SynchTest{}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown engagement kind"})
	}

	res := s.DB.Model(model).Where("id = ?", id).Update("is_active", *req.IsActive)
	if res.Error != nil {
		log.Printf("DB Error updating %s %s: %v", kind, id, res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update entity"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Entity not found"})
	}
	return c.JSON(fiber.Map{"message": "OK", "id": id, "is_active": *req.IsActive})
}

// artworkContentTypes is the accepted upload set: badge and engagement art
// is always an image.
var artworkContentTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// UploadArtwork stores badge/engagement art on R2 and returns the CDN URL
func (s *AdminService) UploadArtwork(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !artworkContentTypes[contentType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("unsupported content type %q — artwork must be an image", contentType),
		})
	}

	ext := filepath.Ext(fileHeader.Filename)
	key := fmt.Sprintf("artwork/%s%s", uuid.NewString(), ext)

	url, err := utils.UploadArtworkToR2(fileHeader, key)
	if err != nil {
		log.Printf("R2 upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload artwork"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
