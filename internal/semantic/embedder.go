package semantic

import "context"

// Embedder is the external capability mapping text to a fixed-dimension
// vector. The core never implements one: concrete backends (and their
// network I/O) live outside this module and are injected. A rate-limited
// backend should return *apperr.RateLimitedError, which the core
// propagates unchanged instead of retrying.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimensions() int
}
