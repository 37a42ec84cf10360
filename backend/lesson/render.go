package lesson

import (
	"regexp"
	"strings"
)

type ElementKind string

const (
	ElementParagraph    ElementKind = "paragraph"
	ElementHeading      ElementKind = "heading"
	ElementSection      ElementKind = "section"
	ElementBulletList   ElementKind = "bullet_list"
	ElementNumberedList ElementKind = "numbered_list"
	ElementTable        ElementKind = "table"
)

// TextElement is one structural element of a text block: a paragraph, a
// heading (Level 1..6), a section banner, a list or a table. Exactly one of
// Text, Items or Rows is populated depending on Kind; inline markdown in them
// is already converted to HTML.
type TextElement struct {
	Kind  ElementKind `json:"kind"`
	Text  string      `json:"text,omitempty"`
	Level int         `json:"level,omitempty"`
	Items []string    `json:"items,omitempty"`
	Rows  [][]string  `json:"rows,omitempty"`
}

var (
	hrRe       = regexp.MustCompile(`^\s*(-{3,}|\*{3,})\s*$`)
	sectionRe  = regexp.MustCompile(`^\s*={3,}\s*"?(.+?)"?\s*=*\s*$`)
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	tableRe    = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	tableSepRe = regexp.MustCompile(`^-+$`)
	bulletRe   = regexp.MustCompile(`^\s*[-*+]\s+`)
	numberedRe = regexp.MustCompile(`^\s*\d+\.\s+`)
)

// RenderTextBlock scans a text block line by line and groups it into
// paragraphs, headings, section banners, lists and tables.
func RenderTextBlock(text string) []TextElement {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var elements []TextElement
	var paragraph []string

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(paragraph, " "))
		paragraph = paragraph[:0]
		if joined == "" {
			return
		}
		elements = append(elements, TextElement{Kind: ElementParagraph, Text: FormatInlineToHTML(joined)})
	}

	i := 0
	for i < len(lines) {
		line := lines[i]

		if strings.TrimSpace(line) == "" {
			flushParagraph()
			i++
			continue
		}

		// horizontal rules like --- or ***
		if hrRe.MatchString(line) {
			flushParagraph()
			i++
			continue
		}

		// Section markers like === "Jac", === "Jac Configuration"
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			if title := strings.TrimSpace(m[1]); title != "" {
				elements = append(elements, TextElement{Kind: ElementSection, Text: FormatInlineToHTML(title)})
			}
			i++
			continue
		}

		// Headings: #, ##, ###
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flushParagraph()
			elements = append(elements, TextElement{
				Kind:  ElementHeading,
				Level: len(m[1]),
				Text:  FormatInlineToHTML(strings.TrimSpace(m[2])),
			})
			i++
			continue
		}

		// Tables: lines fully wrapped in |...|
		if tableRe.MatchString(line) {
			flushParagraph()
			var rows [][]string
			for i < len(lines) && tableRe.MatchString(lines[i]) {
				row := strings.TrimSpace(lines[i])
				row = strings.TrimPrefix(row, "|")
				row = strings.TrimSuffix(row, "|")
				cells := strings.Split(row, "|")
				for ci, c := range cells {
					cells[ci] = strings.TrimSpace(c)
				}
				// drop separator rows (---) before inline formatting turns
				// the dashes into dashes of another kind
				if !allSeparatorCells(cells) {
					for ci, c := range cells {
						cells[ci] = FormatInlineToHTML(c)
					}
					rows = append(rows, cells)
				}
				i++
			}
			if len(rows) > 0 {
				elements = append(elements, TextElement{Kind: ElementTable, Rows: rows})
			}
			continue
		}

		// Bullet list: -, *, +
		if bulletRe.MatchString(line) {
			flushParagraph()
			var items []string
			for i < len(lines) && bulletRe.MatchString(lines[i]) {
				items = append(items, FormatInlineToHTML(strings.TrimSpace(bulletRe.ReplaceAllString(lines[i], ""))))
				i++
			}
			elements = append(elements, TextElement{Kind: ElementBulletList, Items: items})
			continue
		}

		// Numbered list: 1. 2. 3.
		if numberedRe.MatchString(line) {
			flushParagraph()
			var items []string
			for i < len(lines) && numberedRe.MatchString(lines[i]) {
				items = append(items, FormatInlineToHTML(strings.TrimSpace(numberedRe.ReplaceAllString(lines[i], ""))))
				i++
			}
			elements = append(elements, TextElement{Kind: ElementNumberedList, Items: items})
			continue
		}

		// Default: part of a paragraph
		paragraph = append(paragraph, line)
		i++
	}

	flushParagraph()
	return elements
}

func allSeparatorCells(cells []string) bool {
	for _, c := range cells {
		if !tableSepRe.MatchString(c) {
			return false
		}
	}
	return true
}

var (
	boldRe        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicStarRe  = regexp.MustCompile(`(\s|^)\*(.+?)\*(\s|$)`)
	italicUnderRe = regexp.MustCompile(`(\s|^)_(.+?)_(\s|$)`)
	inlineCodeRe  = regexp.MustCompile("`([^`]+)`")
	dashRunRe     = regexp.MustCompile(`--+`)
	strayTicksRe  = regexp.MustCompile("`+")
	strayHashRe   = regexp.MustCompile(`(?m)^#+\s*`)
)

// FormatInlineToHTML converts inline markdown (bold, italic, code) to simple
// HTML and strips leftover markers. Escaping runs first so that only the
// markup this function emits survives as tags.
func FormatInlineToHTML(raw string) string {
	// normalize spaces and strip stray <br>
	text := brRe.ReplaceAllString(raw, " ")

	// escape HTML
	html := strings.ReplaceAll(text, "&", "&amp;")
	html = strings.ReplaceAll(html, "<", "&lt;")
	html = strings.ReplaceAll(html, ">", "&gt;")

	// bold **text**
	html = boldRe.ReplaceAllString(html, "<strong>$1</strong>")

	// italics *text* or _text_
	html = italicStarRe.ReplaceAllString(html, "${1}<em>${2}</em>${3}")
	html = italicUnderRe.ReplaceAllString(html, "${1}<em>${2}</em>${3}")

	// inline code `code`
	html = inlineCodeRe.ReplaceAllString(html, "<code>$1</code>")

	// double hyphens → en dash
	html = dashRunRe.ReplaceAllString(html, "–")

	// strip any leftover markdown markers
	html = strings.ReplaceAll(html, "**", "")
	html = strayTicksRe.ReplaceAllString(html, "")
	html = strayHashRe.ReplaceAllString(html, "")

	return html
}
