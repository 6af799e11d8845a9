package cache

import (
	"context"
	"time"
)

// NullCache discards everything and always misses. It backs the "none"
// cache backend, so disabling caching does not touch any call site.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
