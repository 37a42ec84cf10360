package controllers

import (
	"jactutor/backend/config"
	"jactutor/backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AttemptsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAttemptsController(db *gorm.DB, cfg *config.Config) *AttemptsController {
	return &AttemptsController{DB: db, Cfg: cfg}
}

// RecordAttempt appends one attempt record for the caller. Records are never
// mutated afterwards; progress is recomputed from the full history on read.
func (ac *AttemptsController) RecordAttempt(c *fiber.Ctx) error {
	userID, username := currentUser(c)

	type AttemptInput struct {
		LessonID string  `json:"lesson_id"`
		Status   string  `json:"status"`
		Score    float64 `json:"score"`
	}

	var input AttemptInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if input.LessonID == "" || input.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lesson_id and status are required",
		})
	}
	if input.Score < 0 || input.Score > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "score must be between 0 and 1",
		})
	}

	if err := appendAttempt(ac.DB, userID, username, input.LessonID, input.Status, input.Score); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save attempt",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Attempt recorded",
	})
}

// GetUserAttempts returns the caller's full attempt history in insertion order.
func (ac *AttemptsController) GetUserAttempts(c *fiber.Ctx) error {
	_, username := currentUser(c)

	var attempts []models.LessonAttempt
	if err := ac.DB.Where("username = ?", username).Order("id asc").Find(&attempts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(attempts))
	for _, a := range attempts {
		result = append(result, fiber.Map{
			"attempt_id": a.AttemptID,
			"lesson_id":  a.LessonID,
			"status":     a.Status,
			"score":      a.Score,
			"timestamp":  a.Timestamp,
		})
	}

	return c.JSON(fiber.Map{
		"attempts": result,
	})
}

// GetProgress returns the derived gating map for the caller.
func (ac *AttemptsController) GetProgress(c *fiber.Ctx) error {
	_, username := currentUser(c)

	progressMap, _, err := loadProgress(ac.DB, username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"progress": progressMap,
	})
}
