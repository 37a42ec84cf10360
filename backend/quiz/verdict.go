package quiz

import (
	"encoding/json"
	"strings"
)

// Verdict is the tiny JSON object the AI evaluator is asked to return.
type Verdict struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

// ParseVerdict extracts a Verdict from free-form evaluator output. Models
// often wrap the JSON in prose or code fences, so after a direct parse fails
// the outermost {...} region is tried. Returns false when no verdict can be
// decoded; the caller falls back to the question's own answer key.
func ParseVerdict(raw string) (Verdict, bool) {
	var v Verdict

	trimmed := strings.TrimSpace(raw)
	if json.Unmarshal([]byte(trimmed), &v) == nil {
		return v, true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if json.Unmarshal([]byte(trimmed[start:end+1]), &v) == nil {
			return v, true
		}
	}

	return Verdict{}, false
}
