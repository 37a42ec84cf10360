package lesson

import (
	"regexp"
	"strings"
)

var (
	codeDivRe = regexp.MustCompile(`(?is)<div\s+class=["']code-block["']\s*>(.*?)</div>`)
	brRe      = regexp.MustCompile(`(?i)<br\s*/?>`)
	divRe     = regexp.MustCompile(`(?i)</?div[^>]*>`)
)

// NormalizeLessonText fixes <div class="code-block"> wrappers, removes stray
// HTML and normalizes line breaks. Applying it twice equals applying it once.
func NormalizeLessonText(content string) string {
	text := content

	// Convert <div class="code-block">...</div> into fenced blocks
	text = codeDivRe.ReplaceAllStringFunc(text, func(match string) string {
		inner := codeDivRe.FindStringSubmatch(match)[1]
		cleaned := strings.TrimSpace(
			strings.ReplaceAll(brRe.ReplaceAllString(inner, "\n"), "\r\n", "\n"),
		)

		// If there are already ``` fences inside, just unwrap
		if strings.Contains(cleaned, "```") {
			return "\n" + cleaned + "\n"
		}

		return "\n```jac\n" + cleaned + "\n```\n"
	})

	// Turn leftover <br> into real newlines
	text = brRe.ReplaceAllString(text, "\n")

	// Remove any other <div> tags
	text = divRe.ReplaceAllString(text, "")

	// Normalize line endings and NBSP
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}

	return strings.Join(lines, "\n")
}
