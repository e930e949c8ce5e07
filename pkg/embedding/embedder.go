package embedding

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the embedding provider could not be reached or
	// timed out. Callers must treat this as a degraded-mode signal, not as
	// "no similar product exists".
	ErrUnavailable = errors.New("embedding provider unavailable")
	// ErrBadVector means the provider answered with a vector of unexpected
	// dimensionality.
	ErrBadVector = errors.New("embedding provider returned malformed vector")
)

type (
	// Embedder converts normalized text into a fixed-length vector suitable
	// for cosine comparison. Dimensionality is stable per deployment.
	Embedder interface {
		Embed(ctx context.Context, text string) ([]float32, error)
		EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
		Dimensions() int
	}
)
