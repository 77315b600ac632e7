// Package knowledge defines the optional service manual lookup used to enrich
// service plans, and the extraction of procedures and routine identifiers from
// returned snippets.
package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kilianp07/batterycare/core/model"
)

const (
	// DefaultMaxResults bounds the number of snippets requested per query.
	DefaultMaxResults = 4
	// MaxProcedures bounds the procedures copied into a plan.
	MaxProcedures = 2
	// MaxRoutineIDs bounds the distinct routine identifiers copied into a plan.
	MaxRoutineIDs = 3
	// DefaultRoutinePattern matches identifiers such as BMS-101 or HV-22A.
	DefaultRoutinePattern = `\b[A-Z]{2,}-[0-9]{2,}[A-Z0-9]*\b`

	summaryLimit = 240
)

// Snippet is one matching excerpt of the document index.
type Snippet struct {
	Section string  `json:"section"`
	Text    string  `json:"text"`
	Score   float64 `json:"score,omitempty"`
}

// Retriever looks up reference text relevant to a free text query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)
}

// NopRetriever returns no snippets.
type NopRetriever struct{}

func (NopRetriever) Retrieve(context.Context, string, int) ([]Snippet, error) { return nil, nil }

// BuildQuery composes the diagnostic query for an insight.
func BuildQuery(ins model.HealthInsight) string {
	var b strings.Builder
	fmt.Fprintf(&b, "battery state of health %.2f%%", ins.LatestStateOfHealth)
	fmt.Fprintf(&b, " anomalies %d", len(ins.Anomalies))
	for _, d := range ins.Anomalies {
		b.WriteString(" ")
		b.WriteString(d.String())
	}
	b.WriteString(" ")
	b.WriteString(ins.Status.Label())
	b.WriteString(" inspection procedure")
	return b.String()
}

// Extractor turns snippets into KnowledgeFindings.
type Extractor struct {
	routine *regexp.Regexp
}

// NewExtractor compiles the routine identifier pattern. An empty pattern uses
// DefaultRoutinePattern.
func NewExtractor(pattern string) (*Extractor, error) {
	if pattern == "" {
		pattern = DefaultRoutinePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("routine pattern: %w", err)
	}
	return &Extractor{routine: re}, nil
}

// Extract keeps up to MaxProcedures procedure summaries, up to MaxRoutineIDs
// distinct routine identifiers (sorted) and the number of distinct sections.
func (e *Extractor) Extract(snippets []Snippet) model.KnowledgeFindings {
	out := model.KnowledgeFindings{Procedures: []model.Procedure{}, RoutineIDs: []string{}}
	sections := make(map[string]struct{})
	ids := make(map[string]struct{})
	var ordered []string
	for _, s := range snippets {
		sections[s.Section] = struct{}{}
		if len(out.Procedures) < MaxProcedures {
			out.Procedures = append(out.Procedures, model.Procedure{Section: s.Section, Summary: summarize(s.Text)})
		}
		for _, id := range e.routine.FindAllString(s.Text, -1) {
			if _, seen := ids[id]; seen || len(ordered) >= MaxRoutineIDs {
				continue
			}
			ids[id] = struct{}{}
			ordered = append(ordered, id)
		}
	}
	sort.Strings(ordered)
	out.RoutineIDs = append(out.RoutineIDs, ordered...)
	out.SectionsFound = len(sections)
	return out
}

// summarize collapses whitespace and cuts the text at a word boundary.
func summarize(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if len([]rune(s)) <= summaryLimit {
		return s
	}
	r := []rune(s)[:summaryLimit]
	if i := strings.LastIndex(string(r), " "); i > summaryLimit/2 {
		return string(r)[:i] + "..."
	}
	return string(r) + "..."
}
