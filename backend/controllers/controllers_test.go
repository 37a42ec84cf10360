package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"jactutor/backend/config"
	"jactutor/backend/models"
	"jactutor/backend/routes"
	"jactutor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeTutor stands in for the AI backend. It grades option B as correct so
// tests can steer the outcome per question.
type fakeTutor struct {
	quizRaw string
	quizErr error
	chatErr error
}

func (f *fakeTutor) GenerateQuizQuestions(_ context.Context, _ string) (string, error) {
	return f.quizRaw, f.quizErr
}

func (f *fakeTutor) EvaluateAnswer(_ context.Context, _, chosenOption string) (string, error) {
	return fmt.Sprintf(`{"correct": %t, "explanation": "graded"}`, chosenOption == "B"), nil
}

func (f *fakeTutor) Chat(_ context.Context, message string) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "echo: " + message, nil
}

func newTestApp(t *testing.T, tutor *fakeTutor) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// one connection, or every query sees its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, utils.Migrate(db))

	cfg := &config.Config{JWTSecret: "testsecret"}
	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, tutor, log.New(io.Discard, "", 0))
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func register(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	status, body := doJSON(t, app, http.MethodPost, "/api/user/create", "", fiber.Map{
		"username": username,
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func seedLessons(t *testing.T, db *gorm.DB, contents ...string) {
	t.Helper()
	for i, content := range contents {
		require.NoError(t, db.Create(&models.Lesson{
			LessonID:      fmt.Sprintf("chapter_%d", i+1),
			Title:         fmt.Sprintf("Chapter %d", i+1),
			Description:   "intro",
			Content:       content,
			SourcePath:    fmt.Sprintf("chapters/chapter_%d.md", i+1),
			SequenceOrder: i,
		}).Error)
	}
}

const twoQuestionQuiz = `1. First question?
A) a
B) b
C) c
D) d
Correct: B

2. Second question?
A) a
B) b
C) c
D) d
Correct: B`

func TestRegisterAndLogin(t *testing.T) {
	app, _ := newTestApp(t, &fakeTutor{})

	register(t, app, "amir")

	// duplicate username
	status, _ := doJSON(t, app, http.MethodPost, "/api/user/create", "", fiber.Map{
		"username": "amir",
		"password": "other",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/user/login", "", fiber.Map{
		"username": "amir",
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/user/login", "", fiber.Map{
		"username": "amir",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRequired(t *testing.T) {
	app, _ := newTestApp(t, &fakeTutor{})

	status, _ := doJSON(t, app, http.MethodGet, "/api/lessons", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/progress", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRecordAndListAttempts(t *testing.T) {
	app, _ := newTestApp(t, &fakeTutor{})
	token := register(t, app, "amir")

	status, _ := doJSON(t, app, http.MethodPost, "/api/attempts", token, fiber.Map{
		"lesson_id": "chapter_1",
		"status":    "quiz_completed",
		"score":     0.45,
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/attempts", token, fiber.Map{
		"lesson_id": "chapter_1",
		"status":    "quiz_completed",
		"score":     1.5,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/attempts", token, fiber.Map{
		"status": "quiz_completed",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodGet, "/api/attempts", token, nil)
	assert.Equal(t, http.StatusOK, status)
	attempts := body["attempts"].([]interface{})
	require.Len(t, attempts, 1)
	first := attempts[0].(map[string]interface{})
	assert.Equal(t, "chapter_1", first["lesson_id"])
	assert.Equal(t, 0.45, first["score"])
	assert.NotEmpty(t, first["attempt_id"])
}

func TestLessonGating(t *testing.T) {
	app, db := newTestApp(t, &fakeTutor{})
	token := register(t, app, "amir")
	seedLessons(t, db, "chapter one text", "chapter two text")

	status, body := doJSON(t, app, http.MethodGet, "/api/lessons", token, nil)
	require.Equal(t, http.StatusOK, status)
	lessons := body["lessons"].([]interface{})
	require.Len(t, lessons, 2)
	assert.Equal(t, "available", lessons[0].(map[string]interface{})["status"])
	assert.Equal(t, "locked", lessons[1].(map[string]interface{})["status"])

	status, _ = doJSON(t, app, http.MethodGet, "/api/lessons/chapter_2", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// passing chapter one unlocks chapter two
	status, _ = doJSON(t, app, http.MethodPost, "/api/attempts", token, fiber.Map{
		"lesson_id": "chapter_1",
		"status":    "completed",
		"score":     0.6,
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/lessons/chapter_2", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/lessons/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLessonDetailBlocksAndInProgressAttempt(t *testing.T) {
	app, db := newTestApp(t, &fakeTutor{})
	token := register(t, app, "amir")
	seedLessons(t, db, "# Chapter One\n\nIntro paragraph.\n```jac\nwith entry { print(\"hi\"); }\n```")

	status, body := doJSON(t, app, http.MethodGet, "/api/lessons/chapter_1", token, nil)
	require.Equal(t, http.StatusOK, status)

	lessonBody := body["lesson"].(map[string]interface{})
	blocks := lessonBody["blocks"].([]interface{})
	require.Len(t, blocks, 2)

	text := blocks[0].(map[string]interface{})
	assert.Equal(t, "text", text["type"])
	assert.NotEmpty(t, text["elements"])

	code := blocks[1].(map[string]interface{})
	assert.Equal(t, "code", code["type"])
	assert.Equal(t, "jac", code["language"])
	assert.Equal(t, `with entry { print("hi"); }`, code["value"])

	// opening the lesson leaves an in_progress mark in the history
	status, body = doJSON(t, app, http.MethodGet, "/api/attempts", token, nil)
	require.Equal(t, http.StatusOK, status)
	attempts := body["attempts"].([]interface{})
	require.Len(t, attempts, 1)
	assert.Equal(t, "in_progress", attempts[0].(map[string]interface{})["status"])
}

func TestQuizFlowEndToEnd(t *testing.T) {
	app, db := newTestApp(t, &fakeTutor{quizRaw: twoQuestionQuiz})
	token := register(t, app, "amir")
	seedLessons(t, db, "chapter one text")

	status, snap := doJSON(t, app, http.MethodPost, "/api/lessons/chapter_1/quiz/start", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), snap["total"])
	assert.Equal(t, float64(0), snap["index"])
	assert.Equal(t, float64(40), snap["time_left"])
	assert.NotEmpty(t, snap["question"])

	// question 1: wrong answer
	status, snap = doJSON(t, app, http.MethodPost, "/api/quiz/select", token, fiber.Map{"option": "A"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A", snap["selected"])

	status, body := doJSON(t, app, http.MethodPost, "/api/quiz/submit", token, nil)
	require.Equal(t, http.StatusOK, status)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, false, result["correct"])
	state := body["state"].(map[string]interface{})
	assert.Equal(t, float64(1), state["index"])
	assert.Equal(t, float64(40), state["time_left"])

	// question 2: right answer, finishes the session
	status, _ = doJSON(t, app, http.MethodPost, "/api/quiz/select", token, fiber.Map{"option": "B"})
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/quiz/submit", token, nil)
	require.Equal(t, http.StatusOK, status)
	result = body["result"].(map[string]interface{})
	assert.Equal(t, true, result["correct"])
	state = body["state"].(map[string]interface{})
	assert.Equal(t, true, state["finished"])
	assert.Equal(t, float64(1), state["correct_count"])
	assert.Equal(t, float64(1), state["wrong_count"])

	// the final score was persisted before the response returned
	status, body = doJSON(t, app, http.MethodGet, "/api/attempts", token, nil)
	require.Equal(t, http.StatusOK, status)
	attempts := body["attempts"].([]interface{})
	require.Len(t, attempts, 1)
	saved := attempts[0].(map[string]interface{})
	assert.Equal(t, "completed", saved["status"])
	assert.Equal(t, 0.5, saved["score"])

	// terminal session refuses further submissions
	status, _ = doJSON(t, app, http.MethodPost, "/api/quiz/submit", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/quiz/close", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodGet, "/api/quiz", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestQuizTimedOutSubmission(t *testing.T) {
	app, db := newTestApp(t, &fakeTutor{quizRaw: twoQuestionQuiz})
	token := register(t, app, "amir")
	seedLessons(t, db, "chapter one text")

	status, _ := doJSON(t, app, http.MethodPost, "/api/lessons/chapter_1/quiz/start", token, nil)
	require.Equal(t, http.StatusOK, status)

	// a would-be-correct selection still scores as wrong when time ran out
	status, _ = doJSON(t, app, http.MethodPost, "/api/quiz/select", token, fiber.Map{"option": "B"})
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/quiz/submit", token, fiber.Map{"timed_out": true})
	require.Equal(t, http.StatusOK, status)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, false, result["correct"])
	assert.Equal(t, "Time is up – no answer selected.", result["explanation"])
}

func TestQuizStartFailures(t *testing.T) {
	tutor := &fakeTutor{quizRaw: "Sorry, I cannot generate questions right now."}
	app, db := newTestApp(t, tutor)
	token := register(t, app, "amir")
	seedLessons(t, db, "chapter one text", "chapter two text")

	// unparseable generation output
	status, body := doJSON(t, app, http.MethodPost, "/api/lessons/chapter_1/quiz/start", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "Try again")

	// locked chapter
	status, _ = doJSON(t, app, http.MethodPost, "/api/lessons/chapter_2/quiz/start", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// generation backend down
	tutor.quizErr = fmt.Errorf("model offline")
	status, _ = doJSON(t, app, http.MethodPost, "/api/lessons/chapter_1/quiz/start", token, nil)
	assert.Equal(t, http.StatusBadGateway, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/lessons/nope/quiz/start", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestQuizStartReplacesSession(t *testing.T) {
	app, db := newTestApp(t, &fakeTutor{quizRaw: twoQuestionQuiz})
	token := register(t, app, "amir")
	seedLessons(t, db, "chapter one text")

	status, first := doJSON(t, app, http.MethodPost, "/api/lessons/chapter_1/quiz/start", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, second := doJSON(t, app, http.MethodPost, "/api/lessons/chapter_1/quiz/start", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, first["session_id"], second["session_id"])

	status, current := doJSON(t, app, http.MethodGet, "/api/quiz", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, second["session_id"], current["session_id"])
}

func TestProfileAndScheduleRoundTrip(t *testing.T) {
	app, _ := newTestApp(t, &fakeTutor{})
	token := register(t, app, "amir")

	status, body := doJSON(t, app, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, _ = doJSON(t, app, http.MethodPut, "/api/profile", token, fiber.Map{
		"display_name": "Amir",
		"goal":         "finish the book",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Amir", body["display_name"])
	assert.Equal(t, "finish the book", body["goal"])

	status, _ = doJSON(t, app, http.MethodPut, "/api/schedule", token, fiber.Map{
		"monday": []string{"chapter_1"},
	})
	require.Equal(t, http.StatusOK, status)
	status, body = doJSON(t, app, http.MethodGet, "/api/schedule", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"chapter_1"}, body["monday"])
}

func TestOverview(t *testing.T) {
	app, db := newTestApp(t, &fakeTutor{})
	token := register(t, app, "amir")
	seedLessons(t, db, "one", "two", "three")

	status, _ := doJSON(t, app, http.MethodPost, "/api/attempts", token, fiber.Map{
		"lesson_id": "chapter_1",
		"status":    "completed",
		"score":     0.8,
	})
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodGet, "/api/overview", token, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["lessons_total"])
	assert.Equal(t, float64(1), data["lessons_completed"])
	assert.Equal(t, float64(1), data["attempts"])
}

func TestProgressEndpoint(t *testing.T) {
	app, db := newTestApp(t, &fakeTutor{})
	token := register(t, app, "amir")
	seedLessons(t, db, "one", "two")

	status, body := doJSON(t, app, http.MethodGet, "/api/progress", token, nil)
	require.Equal(t, http.StatusOK, status)
	progressMap := body["progress"].(map[string]interface{})
	ch1 := progressMap["chapter_1"].(map[string]interface{})
	ch2 := progressMap["chapter_2"].(map[string]interface{})
	assert.Equal(t, "available", ch1["status"])
	assert.Equal(t, "locked", ch2["status"])
}

func TestAIChat(t *testing.T) {
	tutor := &fakeTutor{}
	app, _ := newTestApp(t, tutor)
	token := register(t, app, "amir")

	status, body := doJSON(t, app, http.MethodPost, "/api/ai/chat", token, fiber.Map{
		"message": "what is a walker?",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "echo: what is a walker?", body["reply"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/ai/chat", token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)

	tutor.chatErr = fmt.Errorf("model offline")
	status, _ = doJSON(t, app, http.MethodPost, "/api/ai/chat", token, fiber.Map{
		"message": "hello",
	})
	assert.Equal(t, http.StatusBadGateway, status)
}
