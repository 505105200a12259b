package cache

import (
	"context"
	"time"
)

// BytesCache is a best-effort byte store. A miss is (nil, false, nil); deleting
// a missing key is not an error.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
