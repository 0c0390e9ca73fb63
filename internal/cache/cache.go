package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the cache interface
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, pattern string) error
}

const keyPrefix = "cp:"

// HostnameKey is the key of a hostname → tenant resolution entry
func HostnameKey(hostname string) string {
	return keyPrefix + "domain:" + strings.ToLower(hostname)
}

// HostnamePattern matches every hostname resolution entry
const HostnamePattern = keyPrefix + "domain:*"

// AllPattern matches every key this service writes
const AllPattern = keyPrefix + "*"
