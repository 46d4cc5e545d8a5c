// Package ner is the named-entity-recognition external collaborator
// boundary (§4.5, §6.4). gemsieve never ships its own NER model: the
// entities stage calls out to an external tagger service (a local spaCy
// process behind a tiny HTTP API is the expected deployment) and falls
// back to regex-only extraction when the tagger is disabled or
// unreachable.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hoyack/gemsieve/internal/config"
)

// Span is one tagged entity returned by the external tagger.
type Span struct {
	Text  string `json:"text"`
	Label string `json:"label"` // spaCy-style label: PERSON, ORG, MONEY, DATE, GPE...
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Tagger is the external NER collaborator's contract.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Span, error)
}

// HTTPTagger calls a local tagger server's /tag endpoint over JSON.
type HTTPTagger struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPTagger(cfg config.NERConfig) *HTTPTagger {
	return &HTTPTagger{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type tagRequest struct {
	Text string `json:"text"`
}

type tagResponse struct {
	Entities []Span `json:"entities"`
}

func (h *HTTPTagger) Tag(ctx context.Context, text string) ([]Span, error) {
	payload, err := json.Marshal(tagRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/tag", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ner: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ner: status %d", resp.StatusCode)
	}

	var parsed tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ner: decode response: %w", err)
	}
	return parsed.Entities, nil
}

// NoopTagger always returns no entities — used when ner.enabled is false,
// so the entities stage can fall back to regex-only extraction without a
// nil-interface check at every call site.
type NoopTagger struct{}

func (NoopTagger) Tag(ctx context.Context, text string) ([]Span, error) { return nil, nil }

// New returns an HTTPTagger when NER is enabled, or a NoopTagger otherwise.
func New(cfg config.NERConfig) Tagger {
	if !cfg.Enabled {
		return NoopTagger{}
	}
	return NewHTTPTagger(cfg)
}
