package interfaces

import "context"

// CacheService is the shared Redis connection seen by health checks and maintenance commands.
type CacheService interface {
	// Clear deletes every key matching pattern.
	Clear(ctx context.Context, pattern string) (int64, error)
	Health(ctx context.Context) error
	Close() error
}
