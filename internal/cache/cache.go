package cache

import (
	"context"
	"time"
)

// Store keeps finished report artifacts for later download.
// It is never consulted to skip an evaluation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}
