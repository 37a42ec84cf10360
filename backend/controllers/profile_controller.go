package controllers

import (
	"errors"
	"fmt"

	"jactutor/backend/config"
	"jactutor/backend/models"
	"jactutor/backend/progress"
	"jactutor/backend/store"
	"jactutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProfileController serves the profile and schedule blobs through the injected
// key-value store, plus a derived learning overview.
type ProfileController struct {
	DB  *gorm.DB
	Cfg *config.Config
	KV  store.KV
}

func NewProfileController(db *gorm.DB, cfg *config.Config, kv store.KV) *ProfileController {
	return &ProfileController{DB: db, Cfg: cfg, KV: kv}
}

func profileKey(username string) string  { return fmt.Sprintf("profile:%s", username) }
func scheduleKey(username string) string { return fmt.Sprintf("schedule:%s", username) }

func (pc *ProfileController) getBlob(c *fiber.Ctx, key string) error {
	value, err := pc.KV.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return utils.Success(c, fiber.StatusOK, fiber.Map{})
	}
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}
	c.Set("Content-Type", "application/json")
	return c.SendString(value)
}

func (pc *ProfileController) putBlob(c *fiber.Ctx, key string) error {
	body := c.Body()
	if len(body) == 0 {
		return utils.BadRequest(c, "Empty body")
	}
	if err := pc.KV.Set(key, string(body)); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"saved": true})
}

func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	_, username := currentUser(c)
	return pc.getBlob(c, profileKey(username))
}

func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	_, username := currentUser(c)
	return pc.putBlob(c, profileKey(username))
}

func (pc *ProfileController) GetSchedule(c *fiber.Ctx) error {
	_, username := currentUser(c)
	return pc.getBlob(c, scheduleKey(username))
}

func (pc *ProfileController) UpdateSchedule(c *fiber.Ctx) error {
	_, username := currentUser(c)
	return pc.putBlob(c, scheduleKey(username))
}

// GetOverview summarizes the caller's learning state: chapters completed,
// attempts made, logins recorded.
func (pc *ProfileController) GetOverview(c *fiber.Ctx) error {
	userID, username := currentUser(c)

	progressMap, lessons, err := loadProgress(pc.DB, username)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}

	completed := 0
	for _, p := range progressMap {
		if p.Status == progress.StatusCompleted {
			completed++
		}
	}

	var attemptCount int64
	pc.DB.Model(&models.LessonAttempt{}).Where("username = ?", username).Count(&attemptCount)

	var loginCount int64
	pc.DB.Model(&models.LoginHistory{}).Where("user_id = ?", userID).Count(&loginCount)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"lessons_total":     len(lessons),
		"lessons_completed": completed,
		"attempts":          attemptCount,
		"logins":            loginCount,
	})
}
