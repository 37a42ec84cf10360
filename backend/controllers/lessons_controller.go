package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"jactutor/backend/config"
	"jactutor/backend/lesson"
	"jactutor/backend/models"
	"jactutor/backend/progress"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LessonsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *log.Logger

	// HTTP client for the GitHub contents API
	HTTPClient *http.Client
}

func NewLessonsController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *LessonsController {
	return &LessonsController{
		DB:         db,
		Cfg:        cfg,
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListLessons returns all lesson summaries in reading order together with the
// caller's derived progress.
func (lc *LessonsController) ListLessons(c *fiber.Ctx) error {
	_, username := currentUser(c)

	progressMap, lessons, err := loadProgress(lc.DB, username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(lessons))
	for _, l := range lessons {
		p := progressMap[l.LessonID]
		result = append(result, fiber.Map{
			"lesson_id":   l.LessonID,
			"title":       l.Title,
			"description": l.Description,
			"status":      p.Status,
			"score":       p.Score,
		})
	}

	return c.JSON(fiber.Map{
		"lessons": result,
	})
}

// GetLessonDetail returns one lesson with its content parsed into renderable
// blocks. Locked lessons are refused with an unlock hint; opening an unlocked
// lesson appends an in_progress attempt (failure to record is logged only).
func (lc *LessonsController) GetLessonDetail(c *fiber.Ctx) error {
	userID, username := currentUser(c)
	lessonID := c.Params("id")

	var l models.Lesson
	if err := lc.DB.Where("lesson_id = ?", lessonID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Lesson not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	progressMap, _, err := loadProgress(lc.DB, username)
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

	if err := appendAttempt(lc.DB, userID, username, l.LessonID, "in_progress", 0); err != nil {
		lc.Logger.Printf("failed to record in_progress attempt for %s/%s: %v", username, l.LessonID, err)
	}

	blocks := lesson.ParseLessonContent(l.Content)
	rendered := make([]fiber.Map, 0, len(blocks))
	for _, b := range blocks {
		entry := fiber.Map{
			"type":  b.Kind,
			"value": b.Value,
		}
		if b.Kind == lesson.BlockCode {
			entry["language"] = b.Language
		} else {
			entry["elements"] = lesson.RenderTextBlock(b.Value)
		}
		rendered = append(rendered, entry)
	}

	return c.JSON(fiber.Map{
		"lesson": fiber.Map{
			"lesson_id":   l.LessonID,
			"title":       l.Title,
			"description": l.Description,
			"source_path": l.SourcePath,
			"content":     l.Content,
			"blocks":      rendered,
		},
		"progress": progressMap[l.LessonID],
	})
}

type githubContentsEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// SyncLessonsFromGithub pulls chapter markdown files from the configured repo
// path and upserts them in filename order. Lesson identity is the filename
// slug, so re-syncing updates content in place.
func (lc *LessonsController) SyncLessonsFromGithub(c *fiber.Ctx) error {
	url := fmt.Sprintf(
		"https://api.github.com/repos/%s/contents/%s",
		lc.Cfg.LessonsRepo, lc.Cfg.LessonsPath,
	)

	entries, err := lc.fetchContents(url)
	if err != nil {
		lc.Logger.Printf("lesson sync failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Could not reach the lessons repository",
		})
	}

	var files []githubContentsEntry
	for _, e := range entries {
		if e.Type == "file" && strings.HasSuffix(e.Name, ".md") {
			files = append(files, e)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	synced := 0
	for i, f := range files {
		content, err := lc.fetchRaw(f.DownloadURL)
		if err != nil {
			lc.Logger.Printf("skipping %s: %v", f.Path, err)
			continue
		}

		slug := strings.TrimSuffix(f.Name, ".md")
		title, description := summarize(content, slug)

		l := models.Lesson{
			LessonID:      slug,
			Title:         title,
			Description:   description,
			Content:       content,
			SourcePath:    f.Path,
			SequenceOrder: i,
		}

		var existing models.Lesson
		err = lc.DB.Where("lesson_id = ?", slug).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = lc.DB.Create(&l).Error
		case err == nil:
			err = lc.DB.Model(&existing).Updates(map[string]interface{}{
				"title":          l.Title,
				"description":    l.Description,
				"content":        l.Content,
				"source_path":    l.SourcePath,
				"sequence_order": l.SequenceOrder,
			}).Error
		}
		if err != nil {
			lc.Logger.Printf("could not upsert lesson %s: %v", slug, err)
			continue
		}
		synced++
	}

	return c.JSON(fiber.Map{
		"message": "Lessons synced",
		"synced":  synced,
	})
}

func (lc *LessonsController) fetchContents(url string) ([]githubContentsEntry, error) {
	raw, err := lc.fetchRaw(url)
	if err != nil {
		return nil, err
	}
	var entries []githubContentsEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("invalid contents listing: %w", err)
	}
	return entries, nil
}

func (lc *LessonsController) fetchRaw(url string) (string, error) {
	resp, err := lc.HTTPClient.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// summarize derives a lesson title and short description from chapter text:
// the first heading becomes the title, the first paragraph line the
// description.
func summarize(content, fallbackTitle string) (string, string) {
	title := strings.ReplaceAll(fallbackTitle, "_", " ")
	description := ""
	haveTitle := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if t := strings.TrimSpace(strings.TrimLeft(line, "# ")); t != "" && !haveTitle {
				title = t
				haveTitle = true
			}
			continue
		}
		description = line
		break
	}

	if len(description) > 160 {
		description = description[:160]
	}
	return title, description
}
