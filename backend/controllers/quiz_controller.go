package controllers

import (
	"errors"
	"log"

	"jactutor/backend/config"
	"jactutor/backend/models"
	"jactutor/backend/progress"
	"jactutor/backend/quiz"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type QuizController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	AI       TutorAI
	Sessions *quiz.Manager
	Logger   *log.Logger
}

func NewQuizController(db *gorm.DB, cfg *config.Config, tutor TutorAI, logger *log.Logger) *QuizController {
	return &QuizController{
		DB:       db,
		Cfg:      cfg,
		AI:       tutor,
		Sessions: quiz.NewManager(),
		Logger:   logger,
	}
}

// StartQuiz generates MCQs for a lesson and opens a fresh session, discarding
// any previous one. An empty or unparseable AI response is a 422 the client
// answers with a "try again" action.
func (qc *QuizController) StartQuiz(c *fiber.Ctx) error {
	userID, username := currentUser(c)
	lessonID := c.Params("id")

	var l models.Lesson
	if err := qc.DB.Where("lesson_id = ?", lessonID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	progressMap, _, err := loadProgress(qc.DB, username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if progressMap[l.LessonID].Status == progress.StatusLocked {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Unlock this chapter by scoring at least 50% on the previous quiz.",
		})
	}

	raw, err := qc.AI.GenerateQuizQuestions(c.Context(), l.Content)
	if err != nil {
		qc.Logger.Printf("quiz generation failed for %s: %v", l.LessonID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to start quiz.",
		})
	}

	questions := quiz.ParseMCQs(raw)
	if len(questions) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "The AI could not generate enough questions from this chapter. Try again.",
		})
	}

	session, err := qc.Sessions.Start(username, l.LessonID, questions, qc.AI, qc.finishFunc(userID, username, l.LessonID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create quiz session",
		})
	}

	return c.JSON(session.Snapshot())
}

// finishFunc persists the final quiz outcome as an attempt record. A failure
// here is logged only: the score was already computed and shown locally.
func (qc *QuizController) finishFunc(userID uint, username, lessonID string) func(correct, wrong int) {
	return func(correct, wrong int) {
		total := correct + wrong
		score := 0.0
		if total > 0 {
			score = float64(correct) / float64(total)
		}

		status := "quiz_completed"
		if score >= progress.PassThreshold {
			status = "completed"
		}

		if err := appendAttempt(qc.DB, userID, username, lessonID, status, score); err != nil {
			qc.Logger.Printf("failed to save quiz result for %s/%s: %v", username, lessonID, err)
		}
	}
}

// GetQuizState returns the current session snapshot.
func (qc *QuizController) GetQuizState(c *fiber.Ctx) error {
	_, username := currentUser(c)

	session := qc.Sessions.Get(username)
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active quiz session",
		})
	}

	return c.JSON(session.Snapshot())
}

// SelectOption stores the answer choice for the current question.
func (qc *QuizController) SelectOption(c *fiber.Ctx) error {
	_, username := currentUser(c)

	type SelectInput struct {
		Option string `json:"option"`
	}

	var input SelectInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	session := qc.Sessions.Get(username)
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active quiz session",
		})
	}

	switch err := session.SelectOption(input.Option); {
	case errors.Is(err, quiz.ErrInvalidOption):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, quiz.ErrFinished):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Quiz is already finished",
		})
	case errors.Is(err, quiz.ErrSubmitting):
		// in-flight grading call: selection is a no-op
	}

	return c.JSON(session.Snapshot())
}

// SubmitAnswer settles the current question and advances or finishes the
// session.
func (qc *QuizController) SubmitAnswer(c *fiber.Ctx) error {
	_, username := currentUser(c)

	type SubmitInput struct {
		TimedOut bool `json:"timed_out"`
	}

	var input SubmitInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Cannot parse JSON",
			})
		}
	}

	session := qc.Sessions.Get(username)
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active quiz session",
		})
	}

	result, err := session.Submit(c.Context(), input.TimedOut)
	switch {
	case errors.Is(err, quiz.ErrFinished):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Quiz is already finished",
		})
	case errors.Is(err, quiz.ErrSubmitting):
		// duplicate submit while grading is in flight: no-op
		return c.JSON(session.Snapshot())
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not submit answer",
		})
	}

	return c.JSON(fiber.Map{
		"result": result,
		"state":  session.Snapshot(),
	})
}

// CloseQuiz tears the session down when the lesson view closes.
func (qc *QuizController) CloseQuiz(c *fiber.Ctx) error {
	_, username := currentUser(c)
	qc.Sessions.Close(username)
	return c.JSON(fiber.Map{
		"message": "Quiz session closed",
	})
}
