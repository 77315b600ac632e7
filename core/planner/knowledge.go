package planner

import (
	"context"
	"fmt"

	"github.com/kilianp07/batterycare/core/knowledge"
	"github.com/kilianp07/batterycare/core/model"
)

// KnowledgeEnricher queries a knowledge.Retriever and extracts findings.
type KnowledgeEnricher struct {
	retriever  knowledge.Retriever
	extractor  *knowledge.Extractor
	maxResults int
}

// NewKnowledgeEnricher wraps r. maxResults <= 0 uses knowledge.DefaultMaxResults.
func NewKnowledgeEnricher(r knowledge.Retriever, routinePattern string, maxResults int) (*KnowledgeEnricher, error) {
	if r == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	ex, err := knowledge.NewExtractor(routinePattern)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = knowledge.DefaultMaxResults
	}
	return &KnowledgeEnricher{retriever: r, extractor: ex, maxResults: maxResults}, nil
}

// Enrich implements Enricher.
func (k *KnowledgeEnricher) Enrich(ctx context.Context, insight model.HealthInsight) (model.KnowledgeFindings, error) {
	snippets, err := k.retriever.Retrieve(ctx, knowledge.BuildQuery(insight), k.maxResults)
	if err != nil {
		return model.KnowledgeFindings{}, fmt.Errorf("%w: %v", model.ErrCollaboratorUnavailable, err)
	}
	if len(snippets) > k.maxResults {
		snippets = snippets[:k.maxResults]
	}
	return k.extractor.Extract(snippets), nil
}
