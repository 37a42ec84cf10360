package controllers

import (
	"context"
	"time"

	"jactutor/backend/models"
	"jactutor/backend/progress"
	"jactutor/backend/quiz"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TutorAI is what the controllers need from the AI tutor backend.
type TutorAI interface {
	quiz.Evaluator
	GenerateQuizQuestions(ctx context.Context, content string) (string, error)
	Chat(ctx context.Context, message string) (string, error)
}

// currentUser reads the identity placed in locals by AuthMiddleware.
func currentUser(c *fiber.Ctx) (uint, string) {
	userID, _ := c.Locals("user_id").(uint)
	username, _ := c.Locals("username").(string)
	return userID, username
}

// appendAttempt appends a new attempt record. History is append-only: past
// records are never updated.
func appendAttempt(db *gorm.DB, userID uint, username, lessonID, status string, score float64) error {
	return db.Create(&models.LessonAttempt{
		AttemptID: uuid.NewString(),
		UserID:    userID,
		Username:  username,
		LessonID:  lessonID,
		Status:    status,
		Score:     score,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}).Error
}

// loadProgress recomputes the gating map for one user from lesson order plus
// their full attempt history.
func loadProgress(db *gorm.DB, username string) (map[string]progress.LessonProgress, []models.Lesson, error) {
	var lessons []models.Lesson
	if err := db.Order("sequence_order asc").Find(&lessons).Error; err != nil {
		return nil, nil, err
	}

	var attempts []models.LessonAttempt
	if err := db.Where("username = ?", username).Find(&attempts).Error; err != nil {
		return nil, nil, err
	}

	lessonIDs := make([]string, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.LessonID
	}

	records := make([]progress.Attempt, len(attempts))
	for i, a := range attempts {
		records[i] = progress.Attempt{LessonID: a.LessonID, Score: a.Score}
	}

	return progress.Compute(lessonIDs, records), lessons, nil
}
