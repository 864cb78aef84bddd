package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	pkgcache "FlowCast/pkg/cache"
)

// Layered serves payloads from an in-process LRU first and falls back
// to Redis. Writes go through to both layers.
type Layered struct {
	mem *pkgcache.MemoryCache
	rds *pkgcache.RedisCache
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewLayered(cfg RedisConfig) (*Layered, error) {
	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}

	rds, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Password),
		pkgcache.WithRedisDB(cfg.DB),
		pkgcache.WithRedisPrefix("flowcast"),
	)
	if err != nil {
		return nil, err
	}

	return &Layered{
		mem: pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(512)),
		rds: rds,
	}, nil
}

func (c *Layered) GetBytes(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var s string
	if err := c.mem.Get(ctx, key, &s); err == nil {
		return []byte(s), true, nil
	}

	if err := c.rds.Get(ctx, key, &s); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}

	// Populate L1 briefly so repeated hits skip Redis.
	_ = c.mem.Set(ctx, key, s, time.Minute)
	return []byte(s), true, nil
}

func (c *Layered) SetBytes(key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.rds.Set(ctx, key, string(value), ttl); err != nil {
		return err
	}
	return c.mem.Set(ctx, key, string(value), ttl)
}

// Close releases both layers.
func (c *Layered) Close() error {
	_ = c.mem.Close()
	return c.rds.Close()
}

var _ BytesCache = (*Layered)(nil)
