package routes

import (
	"log"

	"jactutor/backend/config"
	"jactutor/backend/controllers"
	"jactutor/backend/middleware"
	"jactutor/backend/store"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, tutor controllers.TutorAI, logger *log.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/user/create", authController.Register)
	app.Post("/api/user/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)

	// Lesson routes
	lessonsController := controllers.NewLessonsController(db, cfg, logger)
	lessons := app.Group("/api/lessons", authMiddleware)
	lessons.Get("/", lessonsController.ListLessons)
	lessons.Post("/sync", lessonsController.SyncLessonsFromGithub)
	lessons.Get("/:id", lessonsController.GetLessonDetail)

	// Quiz routes
	quizController := controllers.NewQuizController(db, cfg, tutor, logger)
	lessons.Post("/:id/quiz/start", quizController.StartQuiz)
	quizGroup := app.Group("/api/quiz", authMiddleware)
	quizGroup.Get("/", quizController.GetQuizState)
	quizGroup.Post("/select", quizController.SelectOption)
	quizGroup.Post("/submit", quizController.SubmitAnswer)
	quizGroup.Post("/close", quizController.CloseQuiz)

	// Attempt / progress routes
	attemptsController := controllers.NewAttemptsController(db, cfg)
	attempts := app.Group("/api/attempts", authMiddleware)
	attempts.Post("/", attemptsController.RecordAttempt)
	attempts.Get("/", attemptsController.GetUserAttempts)
	app.Get("/api/progress", authMiddleware, attemptsController.GetProgress)

	// Profile / schedule routes (key-value store backed)
	profileController := controllers.NewProfileController(db, cfg, store.New(db))
	app.Get("/api/profile", authMiddleware, profileController.GetProfile)
	app.Put("/api/profile", authMiddleware, profileController.UpdateProfile)
	app.Get("/api/schedule", authMiddleware, profileController.GetSchedule)
	app.Put("/api/schedule", authMiddleware, profileController.UpdateSchedule)
	app.Get("/api/overview", authMiddleware, profileController.GetOverview)

	// AI tutor chat
	aiController := controllers.NewAIController(cfg, tutor, logger)
	app.Post("/api/ai/chat", authMiddleware, aiController.Chat)
}
