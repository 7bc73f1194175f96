package ports

import "context"

// CacheService provides a shared byte-level cache layer (e.g. Valkey)
// consulted between an in-memory miss and a provider call. Implementations
// are optional; callers must tolerate a nil handle.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes plan lifecycle events to a message broker.
type EventPublisher interface {
	PublishPlanCompleted(ctx context.Context, payload []byte) error
	PublishPlanFallback(ctx context.Context, payload []byte) error
	PublishPlanFailed(ctx context.Context, payload []byte) error
}
