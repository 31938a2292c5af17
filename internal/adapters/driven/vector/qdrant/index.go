// Package qdrant provides a vector index adapter speaking Qdrant's
// REST API. Qdrant applies metadata filters natively, so retrieval
// never needs the over-fetch path with this backend.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.VectorIndex   = (*Index)(nil)
	_ driven.IndexProvider = (*Provider)(nil)
)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Config holds connection settings for a Qdrant server.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey authenticates requests when the server requires it.
	APIKey string

	// CollectionBase is the base collection name; the model's
	// dimension is appended per collection.
	CollectionBase string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Provider opens Qdrant collections keyed by model dimension.
type Provider struct {
	client *http.Client
	url    string
	apiKey string
	base   string
}

// NewProvider creates a Qdrant index provider.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.CollectionBase == "" {
		cfg.CollectionBase = "chunks"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Provider{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		base:   cfg.CollectionBase,
	}
}

// Collection ensures the collection for the model exists and returns
// an index bound to it. Creating an existing collection with the same
// schema is a no-op on the server.
func (p *Provider) Collection(ctx context.Context, model domain.ModelInfo) (driven.VectorIndex, error) {
	if model.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: model %q declares no dimensions", domain.ErrDimensionMismatch, model.Name)
	}

	name := model.CollectionName(p.base)
	idx := &Index{
		provider:   p,
		collection: name,
		dimensions: model.Dimensions,
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     model.Dimensions,
			"distance": "Cosine",
		},
	}
	if err := p.putJSON(ctx, fmt.Sprintf("%s/collections/%s", p.url, name), body, nil); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", name, err)
	}
	return idx, nil
}

// Close releases resources.
func (p *Provider) Close() error { return nil }

// Index is one Qdrant collection.
type Index struct {
	provider   *Provider
	collection string
	dimensions int
}

// pointID derives a stable UUID from a chunk ID. Qdrant only accepts
// UUIDs or unsigned integers as point IDs, so the chunk ID itself is
// carried in the payload.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// Upsert inserts or replaces records; the derived point ID makes the
// operation idempotent by chunk ID.
func (idx *Index) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]map[string]any, len(records))
	for i, rec := range records {
		if len(rec.Vector) != idx.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection expects %d",
				domain.ErrDimensionMismatch, rec.ChunkID, len(rec.Vector), idx.dimensions)
		}
		points[i] = map[string]any{
			"id":     pointID(rec.ChunkID),
			"vector": rec.Vector,
			"payload": map[string]any{
				"chunk_id":     rec.ChunkID,
				"document_id":  rec.DocumentID,
				"chapter":      rec.Chapter,
				"subject":      rec.Subject,
				"content_type": string(rec.ContentType),
			},
		}
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", idx.provider.url, idx.collection)
	return idx.provider.putJSON(ctx, url, map[string]any{"points": points}, nil)
}

// searchResponse is the points/search response format.
type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search finds the k nearest neighbours with the filter applied by
// the server.
func (idx *Index) Search(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]driven.VectorHit, error) {
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if cond := filterConditions(filter); cond != nil {
		req["filter"] = cond
	}

	var resp searchResponse
	url := fmt.Sprintf("%s/collections/%s/points/search", idx.provider.url, idx.collection)
	if err := idx.provider.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("search collection: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunkID, _ := r.Payload["chunk_id"].(string)
		if chunkID == "" {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Score: r.Score})
	}
	return hits, nil
}

// filterConditions builds a must-match conjunction, or nil when the
// filter is unrestricted.
func filterConditions(filter domain.Filter) map[string]any {
	if filter.Empty() {
		return nil
	}
	var must []map[string]any
	if filter.Chapter != "" {
		must = append(must, map[string]any{
			"key":   "chapter",
			"match": map[string]any{"value": filter.Chapter},
		})
	}
	if filter.Subject != "" {
		must = append(must, map[string]any{
			"key":   "subject",
			"match": map[string]any{"value": filter.Subject},
		})
	}
	return map[string]any{"must": must}
}

// countResponse is the points/count response format.
type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// Count returns the number of stored vectors.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var resp countResponse
	url := fmt.Sprintf("%s/collections/%s/points/count", idx.provider.url, idx.collection)
	if err := idx.provider.postJSON(ctx, url, map[string]any{"exact": true}, &resp); err != nil {
		return 0, fmt.Errorf("count collection: %w", err)
	}
	return resp.Result.Count, nil
}

// ServerSideFiltering reports true: Qdrant applies payload filters
// before ranking.
func (idx *Index) ServerSideFiltering() bool { return true }

// Close releases resources.
func (idx *Index) Close() error { return nil }

func (p *Provider) putJSON(ctx context.Context, url string, body, out any) error {
	return p.doJSON(ctx, http.MethodPut, url, body, out)
}

func (p *Provider) postJSON(ctx context.Context, url string, body, out any) error {
	return p.doJSON(ctx, http.MethodPost, url, body, out)
}

func (p *Provider) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, url, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
