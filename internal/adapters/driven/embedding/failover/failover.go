// Package failover composes a primary and a fallback embedding model
// into one pipeline-facing client. The two models declare different
// vector dimensions, so every batch is tagged with the model that
// actually produced it and callers address collections by that tag.
package failover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
	"github.com/eduplan-labs/eduplan-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Embedder = (*Client)(nil)

// Default configuration values.
const (
	DefaultBatchSize         = 16
	DefaultConcurrency       = 4
	DefaultMaxAttempts       = 3
	DefaultRetryBaseDelay    = 500 * time.Millisecond
	DefaultRequestsPerSecond = 5
)

// Config holds configuration for the failover client.
type Config struct {
	// BatchSize is the maximum number of texts per model request.
	BatchSize int

	// Concurrency bounds the number of batches embedded in parallel.
	Concurrency int

	// MaxAttempts is the number of tries per batch before the model
	// is considered failed.
	MaxAttempts int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration

	// RequestsPerSecond rate-limits model requests.
	RequestsPerSecond float64
}

// Client embeds texts with the primary model and falls back to the
// secondary model when the primary is unavailable.
type Client struct {
	primary  driven.EmbeddingService
	fallback driven.EmbeddingService

	batchSize   int
	concurrency int
	maxAttempts int
	baseDelay   time.Duration
	limiter     *rate.Limiter

	mu     sync.Mutex
	active driven.EmbeddingService
}

// New creates a failover client over a primary and a fallback model.
// The fallback may be nil, in which case primary failures are final.
func New(primary, fallback driven.EmbeddingService, cfg Config) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Client{
		primary:     primary,
		fallback:    fallback,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.RetryBaseDelay,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// ActiveModel returns the model selected by the capability probe.
func (c *Client) ActiveModel(ctx context.Context) (domain.ModelInfo, error) {
	svc, err := c.activeService(ctx)
	if err != nil {
		return domain.ModelInfo{}, err
	}
	return modelInfo(svc), nil
}

// EmbedBatch embeds all texts, batching and retrying internally.
// Exhausting retries on the primary redoes the whole call on the
// fallback so one result never mixes model dimensions.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) (*domain.EmbeddingBatch, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrInvalidQuery)
	}

	svc, err := c.activeService(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := c.embedAll(ctx, svc, texts)
	if err != nil && svc == c.primary && c.fallback != nil {
		logger.Warn("Primary embedding model failed, switching to fallback: %v", err)
		c.setActive(c.fallback)
		svc = c.fallback
		vectors, err = c.embedAll(ctx, svc, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	return &domain.EmbeddingBatch{Vectors: vectors, Model: modelInfo(svc)}, nil
}

// Close releases both underlying services.
func (c *Client) Close() error {
	var firstErr error
	if err := c.primary.Close(); err != nil {
		firstErr = err
	}
	if c.fallback != nil {
		if err := c.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// activeService returns the currently selected model, probing
// connectivity on first use.
func (c *Client) activeService(ctx context.Context) (driven.EmbeddingService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return c.active, nil
	}

	primaryErr := c.primary.Ping(ctx)
	if primaryErr == nil {
		c.active = c.primary
		logger.Debug("Embedding probe: primary %s selected", c.primary.ModelName())
		return c.active, nil
	}
	logger.Warn("Primary embedding model unreachable: %v", primaryErr)

	if c.fallback != nil {
		if err := c.fallback.Ping(ctx); err == nil {
			c.active = c.fallback
			logger.Info("Embedding probe: fallback %s selected", c.fallback.ModelName())
			return c.active, nil
		}
	}

	return nil, fmt.Errorf("%w: primary probe failed: %v", domain.ErrEmbeddingUnavailable, primaryErr)
}

func (c *Client) setActive(svc driven.EmbeddingService) {
	c.mu.Lock()
	c.active = svc
	c.mu.Unlock()
}

// embedAll partitions texts into batches and embeds them concurrently.
// Batches are independent, so parallel execution is safe; each batch
// writes into its own slice range, preserving positional alignment.
func (c *Client) embedAll(ctx context.Context, svc driven.EmbeddingService, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			batch, err := c.embedWithRetry(gctx, svc, texts[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// embedWithRetry retries transient failures with exponential backoff.
func (c *Client) embedWithRetry(ctx context.Context, svc driven.EmbeddingService, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			logger.Debug("Retrying embedding batch in %s (attempt %d/%d)", delay, attempt+1, c.maxAttempts)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, err := svc.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%s: retries exhausted: %w", svc.ModelName(), lastErr)
}

func modelInfo(svc driven.EmbeddingService) domain.ModelInfo {
	return domain.ModelInfo{Name: svc.ModelName(), Dimensions: svc.Dimensions()}
}
