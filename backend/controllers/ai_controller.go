package controllers

import (
	"log"

	"jactutor/backend/config"

	"github.com/gofiber/fiber/v2"
)

// AIController is the tutor chat passthrough used by the AI page and the
// in-lesson assistant.
type AIController struct {
	Cfg    *config.Config
	AI     TutorAI
	Logger *log.Logger
}

func NewAIController(cfg *config.Config, tutor TutorAI, logger *log.Logger) *AIController {
	return &AIController{Cfg: cfg, AI: tutor, Logger: logger}
}

func (ac *AIController) Chat(c *fiber.Ctx) error {
	type ChatInput struct {
		Message string `json:"message"`
	}

	var input ChatInput
	if err := c.BodyParser(&input); err != nil || input.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}

	reply, err := ac.AI.Chat(c.Context(), input.Message)
	if err != nil {
		ac.Logger.Printf("ai chat failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "The AI tutor is unavailable right now.",
		})
	}

	return c.JSON(fiber.Map{
		"reply": reply,
	})
}
