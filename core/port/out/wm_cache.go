package out

import (
	"context"
	"time"
)

// Cache is a lookup cache in front of the find-then-upsert dedup path.
// A miss is never an error; a stale entry is corrected by the uniqueness
// constraints at the persistence layer.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
