package lesson

import (
	"regexp"
	"strings"
)

type BlockKind string

const (
	BlockText BlockKind = "text"
	BlockCode BlockKind = "code"
)

// ContentBlock is one renderable chunk of a lesson: prose or fenced code.
type ContentBlock struct {
	Kind     BlockKind `json:"type"`
	Value    string    `json:"value"`
	Language string    `json:"language,omitempty"`
}

var fenceRe = regexp.MustCompile("(?s)```(\\w+)?\n(.*?)```")

// ParseLessonContent splits raw lesson text into TEXT vs CODE blocks using
// ``` fences. It never fails: malformed input degrades to a single text block.
func ParseLessonContent(content string) []ContentBlock {
	normalized := NormalizeLessonText(content)

	var blocks []ContentBlock
	lastIndex := 0

	for _, m := range fenceRe.FindAllStringSubmatchIndex(normalized, -1) {
		start, end := m[0], m[1]

		// Text before this code block
		if start > lastIndex {
			if chunk := strings.TrimSpace(normalized[lastIndex:start]); chunk != "" {
				blocks = append(blocks, ContentBlock{Kind: BlockText, Value: chunk})
			}
		}

		lang := "code"
		if m[2] >= 0 && m[3] > m[2] {
			lang = normalized[m[2]:m[3]]
		}
		body := normalized[m[4]:m[5]]

		blocks = append(blocks, ContentBlock{
			Kind:     BlockCode,
			Value:    strings.TrimRight(body, " \t\n"),
			Language: lang,
		})

		lastIndex = end
	}

	// Any remaining text after the last code block
	if lastIndex < len(normalized) {
		if remaining := strings.TrimSpace(normalized[lastIndex:]); remaining != "" {
			blocks = append(blocks, ContentBlock{Kind: BlockText, Value: remaining})
		}
	}

	if len(blocks) == 0 && strings.TrimSpace(normalized) != "" {
		blocks = append(blocks, ContentBlock{Kind: BlockText, Value: strings.TrimSpace(normalized)})
	}

	return blocks
}
