package models

import "gorm.io/gorm"

type Lesson struct {
	gorm.Model
	LessonID      string `gorm:"unique;not null"` // slug, e.g. "chapter_1"
	Title         string
	Description   string
	Content       string // raw chapter text (markdown/HTML mix)
	SourcePath    string // path inside the lessons repo this was synced from
	SequenceOrder int    // reading order; gating follows this
}

type LessonAttempt struct {
	gorm.Model
	AttemptID string `gorm:"unique;not null"` // uuid
	UserID    uint
	Username  string
	LessonID  string
	Status    string // "in_progress", "quiz_completed", "completed", ...
	Score     float64
	Timestamp string // RFC3339
}
