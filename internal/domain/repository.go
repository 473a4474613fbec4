package domain

import (
	"context"
	"time"
)

// SearchProvider defines the interface to the remote search aggregator.
// Each call is idempotent from the engine's point of view and returns
// either a structured payload or a typed failure (*ProviderError).
type SearchProvider interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	Compare(ctx context.Context, a, b string) (*ComparisonResult, error)
	SearchByImage(ctx context.Context, image string) (*ImageSearchResult, error)
}

// CacheRepository defines the interface for caching ranked search responses
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
