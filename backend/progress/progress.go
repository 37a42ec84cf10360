package progress

import "math"

// PassThreshold is the minimum best score that unlocks the next lesson.
const PassThreshold = 0.5

type Status string

const (
	StatusLocked    Status = "locked"
	StatusAvailable Status = "available"
	StatusCompleted Status = "completed"
)

// Attempt is the slice of an attempt record the gating derivation needs.
type Attempt struct {
	LessonID string
	Score    float64
}

// LessonProgress is derived state, never persisted.
type LessonProgress struct {
	Status Status  `json:"status"`
	Score  float64 `json:"score"`
}

// Compute derives lock/available/completed status per lesson from the full
// attempt history. lessonIDs must be in reading order: the first lesson is
// never locked, and lesson i is locked while lesson i-1's best score is below
// the pass threshold. Scores are rounded to 4 decimal places.
func Compute(lessonIDs []string, attempts []Attempt) map[string]LessonProgress {
	bestScores := make(map[string]float64)
	for _, a := range attempts {
		if a.Score > bestScores[a.LessonID] {
			bestScores[a.LessonID] = a.Score
		}
	}

	result := make(map[string]LessonProgress, len(lessonIDs))
	for i, id := range lessonIDs {
		prevPassed := true
		if i > 0 {
			prevPassed = bestScores[lessonIDs[i-1]] >= PassThreshold
		}

		best := bestScores[id]
		status := StatusAvailable
		switch {
		case best >= PassThreshold:
			status = StatusCompleted
		case !prevPassed:
			status = StatusLocked
		}

		result[id] = LessonProgress{
			Status: status,
			Score:  math.Round(best*10000) / 10000,
		}
	}

	return result
}
