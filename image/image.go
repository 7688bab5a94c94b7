package image

import (
	"context"
	"errors"
)

// Provider fetches a destination background image. The variation index
// selects among search-term and result variations so that repeated calls for
// the same trip tend to produce the same image.
//
// All error kinds are handled identically by the enrichment scheduler (log,
// skip, retry on a later pass); the taxonomy exists so callers and tests can
// still distinguish them.
type Provider interface {
	FetchImage(ctx context.Context, query string, variation int) ([]byte, error)
}

var (
	// ErrMissingAPIKey means no credential is configured at all.
	ErrMissingAPIKey = errors.New("image API key not configured")
	// ErrUnauthorized means the configured credential was rejected.
	ErrUnauthorized = errors.New("image API key rejected")
	// ErrRateLimited means the provider's request quota is exhausted.
	ErrRateLimited = errors.New("image API rate limit exceeded")
	// ErrNoResults means the search produced no usable photo.
	ErrNoResults = errors.New("no photos found for query")
)
