// Package embedding provides the Embedder capability injected into the
// ingestion and retrieval paths, plus the off-write-path backfill queue
// described in spec §4.3/§5/§9 ("Embeddings are computed off the write
// path via a bounded backfill queue when the embedder is slow").
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aeonmind/mcore/internal/mcerrors"
)

// Embedder computes a fixed-dimension vector for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// EmbedFunc is the low-level call that actually produces a vector for one
// chunk of text against a configured model. anthropic-sdk-go's public
// surface is the Messages API, not a hosted embeddings endpoint, so the
// vector-producing call itself is injected; AnthropicEmbedder supplies the
// credential resolution, retry classification, and backoff around
// whatever EmbedFunc is wired to (a Voyage/OpenAI-compatible embeddings
// endpoint in production).
type EmbedFunc func(ctx context.Context, model, text string) ([]float32, error)

// AnthropicEmbedder is the embedding_provider=anthropic implementation
// (spec §6 embedding_provider/embedding_model/embedding_dimensions),
// grounded on the teacher's internal/compact.HaikuClient retry/backoff
// shape around the anthropic-sdk-go client.
type AnthropicEmbedder struct {
	client         anthropic.Client
	model          string
	dimensions     int
	embedFunc      EmbedFunc
	maxRetries     int
	initialBackoff time.Duration
}

// NewAnthropicEmbedder builds an embedder for model/dimensions. apiKey
// resolves credentials through the SDK's option plumbing even though
// embedFunc performs the actual vector call; a nil embedFunc falls back to
// DeterministicEmbed, useful for offline development and tests.
func NewAnthropicEmbedder(apiKey, model string, dimensions int, embedFunc EmbedFunc) *AnthropicEmbedder {
	if embedFunc == nil {
		embedFunc = DeterministicEmbed
	}
	return &AnthropicEmbedder{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          model,
		dimensions:     dimensions,
		embedFunc:      embedFunc,
		maxRetries:     3,
		initialBackoff: time.Second,
	}
}

// Dimensions returns the configured embedding width.
func (e *AnthropicEmbedder) Dimensions() int { return e.dimensions }

// Embed returns the embedding for text, retrying transient failures with
// exponential backoff (same classification the teacher applies to Haiku
// calls: retry on timeouts and 429/5xx, fail fast otherwise).
func (e *AnthropicEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		vec, err := e.embedFunc(ctx, e.model, text)
		if err == nil {
			if len(vec) != e.dimensions {
				return nil, fmt.Errorf("%w: embedder returned %d dims, want %d", mcerrors.ErrEmbedding, len(vec), e.dimensions)
			}
			return vec, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(err) {
			return nil, fmt.Errorf("%w: non-retryable: %v", mcerrors.ErrEmbedding, err)
		}
	}
	return nil, fmt.Errorf("%w: failed after %d attempts: %v", mcerrors.ErrEmbedding, e.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// DeterministicEmbed is a stdlib-only fallback EmbedFunc used for
// tests/offline development (DESIGN.md justifies the stdlib use: no
// network-reachable embedding endpoint is available in this environment,
// and the vector only needs to be stable and roughly text-sensitive for
// search ranking to be exercised end-to-end). It hashes text with
// SHA-256 and expands the digest deterministically into `dimensions`
// unit-scale floats via a counter-mode stretch, then L2-normalizes.
func DeterministicEmbed(ctx context.Context, model, text string) ([]float32, error) {
	return stretchHash(text, defaultDimensionsForModel(model)), nil
}

func defaultDimensionsForModel(model string) int {
	// voyage-3 and voyage-3-lite both default to 1024 dims; unknown models
	// fall back to the same width rather than guessing.
	return 1024
}

func stretchHash(text string, dims int) []float32 {
	out := make([]float32, dims)
	block := sha256.Sum256([]byte(text))
	counter := uint32(0)
	for i := 0; i < dims; i++ {
		if i%8 == 0 {
			var buf [4]byte
			binary.BigEndian.PutUint32(buf[:], counter)
			counter++
			mixed := sha256.Sum256(append(block[:], buf[:]...))
			block = mixed
		}
		// Map 4 bytes of the digest to a signed unit-ish float.
		start := (i % 8) * 4
		chunk := new(big.Int).SetBytes(block[start : start+4])
		v := float64(chunk.Uint64()%2000001) - 1000000
		out[i] = float32(v / 1000000)
	}
	normalize(out)
	return out
}

func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
