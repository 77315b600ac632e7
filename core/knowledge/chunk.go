package knowledge

import (
	"regexp"
	"strings"
	"unicode"
)

// Chunking defaults for ingesting service manuals.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var headingRe = regexp.MustCompile(`^(#{1,6}\s+\S.*|\d+(\.\d+)*\.?\s+[A-Z].{0,80}|[A-Z][A-Z0-9 /&-]{3,80})$`)

// IsHeading reports whether a line looks like a section heading: a markdown
// heading, a numbered title such as "4.2 Cell balancing" or an all caps line.
func IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || !headingRe.MatchString(line) {
		return false
	}
	return strings.IndexFunc(line, unicode.IsLetter) >= 0
}

// Split cuts a document into snippets. Text is grouped by heading, then each
// section is cut into windows of at most size runes that overlap by overlap
// runes. Windows end on whitespace when possible.
func Split(doc string, size, overlap int) []Snippet {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	var out []Snippet
	section := ""
	var body []string
	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if text == "" {
			return
		}
		for _, w := range windows(text, size, overlap) {
			out = append(out, Snippet{Section: section, Text: w})
		}
	}
	for _, line := range strings.Split(doc, "\n") {
		if IsHeading(line) {
			flush()
			section = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			continue
		}
		body = append(body, line)
	}
	flush()
	return out
}

func windows(text string, size, overlap int) []string {
	r := []rune(text)
	if len(r) <= size {
		return []string{text}
	}
	var out []string
	start := 0
	for start < len(r) {
		end := start + size
		if end >= len(r) {
			out = append(out, strings.TrimSpace(string(r[start:])))
			break
		}
		cut := end
		for i := end; i > start+size/2; i-- {
			if unicode.IsSpace(r[i]) {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(r[start:cut])))
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}
