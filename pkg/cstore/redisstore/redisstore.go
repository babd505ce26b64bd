// Package redisstore implements cstore.Backend on Redis string keys.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ratio1/cart_sdk_go/internal/httpx"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore"
)

const (
	defaultConnectAttempts = 10
	scanBatch              = 100
)

// Options configures Open.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key, e.g. "cart:".
	Prefix      string
	DialTimeout time.Duration
	// ConnectAttempts bounds the ping loop in Open. Zero means 10.
	ConnectAttempts int
	Logger          logger.Logger
}

// Store is a Redis-backed cstore.Backend.
type Store struct {
	client *redis.Client
	prefix string
}

var (
	_ cstore.Backend = (*Store)(nil)
	_ cstore.Pinger  = (*Store)(nil)
)

// Open connects to Redis and pings it with exponential backoff until it
// answers, ctx ends or the attempts run out. Addr may also be a redis:// URL.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, errors.New("redisstore: address is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	redisOpts, err := redis.ParseURL(opts.Addr)
	if err != nil {
		redisOpts = &redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}
	if opts.DialTimeout > 0 {
		redisOpts.DialTimeout = opts.DialTimeout
	}

	s := New(redis.NewClient(redisOpts), opts.Prefix)

	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}
	backoff := httpx.NewBackoff(100*time.Millisecond, 5*time.Second, 0.2)
	for i := 0; ; i++ {
		err := s.Ping(ctx)
		if err == nil {
			log.Infof("redisstore: connected to %s", redisOpts.Addr)
			return s, nil
		}
		if i+1 >= attempts {
			_ = s.Close()
			return nil, fmt.Errorf("redisstore: connect %s after %d attempts: %w", redisOpts.Addr, attempts, err)
		}
		delay := backoff.ForAttempt(i)
		log.Warnf("redisstore: ping %s failed (attempt %d/%d): %v; retrying in %s", redisOpts.Addr, i+1, attempts, err, delay)
		if err := httpx.Sleep(ctx, delay); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
}

// New wraps an existing client without pinging it.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// GetRaw returns nil for a missing key.
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	return val, nil
}

func (s *Store) PutRaw(ctx context.Context, key string, raw []byte) (*cstore.RawItem, error) {
	if err := s.client.Set(ctx, s.prefix+key, raw, 0).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: set %q: %w", key, err)
	}
	return &cstore.RawItem{Key: key, Value: append([]byte(nil), raw...)}, nil
}

// ListKeys scans the keyspace under the prefix. The prefix is stripped from
// the returned keys.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstore: scan: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (s *Store) DeleteRaw(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("redisstore: del %q: %w", key, err)
	}
	if n == 0 {
		return cstore.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
