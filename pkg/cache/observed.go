package cache

import (
	"context"
	"time"

	"github.com/matzehuels/mftypes/pkg/observability"
)

// Observed reports hits, misses and writes of inner to the registered
// observability cache hooks under keyType.
func Observed(inner Cache, keyType string) Cache {
	return &observed{inner: inner, keyType: keyType}
}

type observed struct {
	inner   Cache
	keyType string
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.inner.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, o.keyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, o.keyType)
		}
	}
	return data, ok, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, o.keyType, len(data))
	}
	return err
}

func (o *observed) Delete(ctx context.Context, key string) error { return o.inner.Delete(ctx, key) }
func (o *observed) Close() error                                 { return o.inner.Close() }
