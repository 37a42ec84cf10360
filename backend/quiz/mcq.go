package quiz

import (
	"regexp"
	"strings"
)

const (
	QuestionsPerQuiz   = 20
	SecondsPerQuestion = 40
)

type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// MCQ is one multiple-choice question. Correct is the answer key letter when
// the generator included one; grading normally comes from the AI evaluator and
// the key is only a fallback.
type MCQ struct {
	Question string  `json:"question"`
	Options  Options `json:"options"`
	Correct  string  `json:"-"`
}

// PromptWithOptions renders the question the way the evaluator expects it.
func (q MCQ) PromptWithOptions() string {
	return q.Question +
		"\nA) " + q.Options.A +
		"\nB) " + q.Options.B +
		"\nC) " + q.Options.C +
		"\nD) " + q.Options.D
}

var (
	blockSplitRe   = regexp.MustCompile(`\n\s*\n+`)
	questionLineRe = regexp.MustCompile(`^\d+[).]`)
	questionNumRe  = regexp.MustCompile(`^\d+[).]\s*`)
	correctLineRe  = regexp.MustCompile(`(?i)^correct\s*[:\-]`)
	correctKeyRe   = regexp.MustCompile(`(?i)^correct\s*[:\-]\s*\(?\s*([a-d])`)
	optionRes      = map[string]*regexp.Regexp{
		"A": regexp.MustCompile(`^A[).:]\s*(.*)`),
		"B": regexp.MustCompile(`^B[).:]\s*(.*)`),
		"C": regexp.MustCompile(`^C[).:]\s*(.*)`),
		"D": regexp.MustCompile(`^D[).:]\s*(.*)`),
	}
)

// ParseMCQs parses AI-generated quiz text into questions. Malformed blocks are
// dropped silently; the result is capped at QuestionsPerQuiz in source order.
func ParseMCQs(raw string) []MCQ {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")

	var mcqs []MCQ
	for _, block := range blockSplitRe.Split(normalized, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}

		questionLine := lines[0]
		for _, l := range lines {
			if questionLineRe.MatchString(l) {
				questionLine = l
				break
			}
		}
		question := strings.TrimSpace(questionNumRe.ReplaceAllString(questionLine, ""))

		getOpt := func(key string) string {
			re := optionRes[key]
			for _, l := range lines {
				if m := re.FindStringSubmatch(l); m != nil {
					return strings.TrimSpace(m[1])
				}
			}
			return ""
		}

		opts := Options{A: getOpt("A"), B: getOpt("B"), C: getOpt("C"), D: getOpt("D")}

		correct := ""
		for _, l := range lines {
			if !correctLineRe.MatchString(l) {
				continue
			}
			if m := correctKeyRe.FindStringSubmatch(l); m != nil {
				correct = strings.ToUpper(m[1])
			}
			break
		}

		if question == "" || opts.A == "" || opts.B == "" || opts.C == "" || opts.D == "" {
			continue
		}

		mcqs = append(mcqs, MCQ{Question: question, Options: opts, Correct: correct})
		if len(mcqs) == QuestionsPerQuiz {
			break
		}
	}

	return mcqs
}
