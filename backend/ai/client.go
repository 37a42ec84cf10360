package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jactutor/backend/config"
)

// Client talks to an OpenAI-compatible chat-completions endpoint that backs
// the AI tutor: quiz generation, answer grading and free-form chat.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second, // LLM responses are slow
		},
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
	}
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
	Stream   bool                    `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// Chat sends one user message and returns the model's reply text.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	request := chatCompletionRequest{
		Model: c.Model,
		Messages: []chatCompletionMessage{
			{Role: "user", Content: message},
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion failed: %d %s", resp.StatusCode, string(raw))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("invalid chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

const maxChapterChars = 8000

// GenerateQuizQuestions asks the tutor model for 20 plain-text MCQs over the
// chapter content. The output format matches what quiz.ParseMCQs expects, but
// nothing enforces it; the parser tolerates deviations.
func (c *Client) GenerateQuizQuestions(ctx context.Context, content string) (string, error) {
	excerpt := content
	if len(excerpt) > maxChapterChars {
		excerpt = excerpt[:maxChapterChars]
	}

	prompt := `
You are an AI tutor for the Jac programming language.

Using ONLY the following chapter content:

---
` + excerpt + `
---

Generate exactly 20 multiple-choice questions (MCQs) to test understanding.
Format them as plain text like:

1. Question text...
A) Option 1
B) Option 2
C) Option 3
D) Option 4
Correct: B

2. Next question...
A) ...
B) ...
C) ...
D) ...
Correct: A

Do NOT add extra commentary. Only output the questions in this format.
`
	return c.Chat(ctx, prompt)
}

// EvaluateAnswer asks the model to grade one answer and reply with a small
// JSON verdict. The raw reply is returned untouched; quiz.ParseVerdict deals
// with whatever actually came back.
func (c *Client) EvaluateAnswer(ctx context.Context, questionWithOptions, chosenOption string) (string, error) {
	prompt := `
You are grading a multiple-choice question for Jac programming.

Question and options:
` + questionWithOptions + `

The student chose option: ` + chosenOption + `

Respond ONLY with a single JSON object like:
{"correct": true, "explanation": "Very short explanation here."}

No extra text outside the JSON.
`
	return c.Chat(ctx, prompt)
}
