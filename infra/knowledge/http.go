package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/batterycare/auth"
	coreknowledge "github.com/kilianp07/batterycare/core/knowledge"
)

// HTTPRetriever queries a remote document index. It POSTs
// {"query": ..., "k": ...} and expects {"snippets": [{"section", "text"}]}.
type HTTPRetriever struct {
	url    string
	auth   auth.Authorizer
	client *http.Client
}

// NewHTTPRetriever returns a retriever for the index served at url. A nil
// authorizer sends unauthenticated requests.
func NewHTTPRetriever(url string, a auth.Authorizer, timeout time.Duration) *HTTPRetriever {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if a == nil {
		a = auth.StaticToken("")
	}
	return &HTTPRetriever{url: url, auth: a, client: &http.Client{Timeout: timeout}}
}

type retrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type retrieveResponse struct {
	Snippets []coreknowledge.Snippet `json:"snippets"`
}

// Retrieve implements core/knowledge.Retriever.
func (h *HTTPRetriever) Retrieve(ctx context.Context, query string, k int) ([]coreknowledge.Snippet, error) {
	body, err := json.Marshal(retrieveRequest{Query: query, K: k})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := h.auth.SetAuthHeader(ctx, req); err != nil {
		return nil, fmt.Errorf("knowledge index auth: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("knowledge index returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	var out retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode knowledge response: %w", err)
	}
	if k > 0 && len(out.Snippets) > k {
		out.Snippets = out.Snippets[:k]
	}
	return out.Snippets, nil
}
