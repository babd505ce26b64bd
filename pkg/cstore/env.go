package cstore

import (
	"fmt"
	"strings"

	"github.com/Ratio1/cart_sdk_go/internal/config"
	"github.com/Ratio1/cart_sdk_go/internal/httpx"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
)

// Mode names a backend family.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeHTTP  Mode = "http"
	ModeRedis Mode = "redis"
	ModeBolt  Mode = "bolt"
	ModeMock  Mode = "mock"
)

// ResolveMode picks the backend for cfg. In auto mode the first configured
// of URL, Redis address and bbolt path wins; with none set it is mock.
func ResolveMode(cfg config.StoreConfig) (Mode, error) {
	url := strings.TrimSpace(cfg.URL)
	redisAddr := strings.TrimSpace(cfg.RedisAddr)
	boltPath := strings.TrimSpace(cfg.BoltPath)

	switch Mode(strings.ToLower(strings.TrimSpace(cfg.Mode))) {
	case "", ModeAuto:
		switch {
		case url != "":
			return ModeHTTP, nil
		case redisAddr != "":
			return ModeRedis, nil
		case boltPath != "":
			return ModeBolt, nil
		default:
			return ModeMock, nil
		}
	case ModeHTTP:
		if url == "" {
			return "", fmt.Errorf("cstore: http mode requires CART_STORE_URL")
		}
		return ModeHTTP, nil
	case ModeRedis:
		if redisAddr == "" {
			return "", fmt.Errorf("cstore: redis mode requires CART_REDIS_ADDR")
		}
		return ModeRedis, nil
	case ModeBolt:
		if boltPath == "" {
			return "", fmt.Errorf("cstore: bolt mode requires CART_BOLT_PATH")
		}
		return ModeBolt, nil
	case ModeMock:
		return ModeMock, nil
	default:
		return "", fmt.Errorf("cstore: unsupported CART_STORE_MODE value %q", cfg.Mode)
	}
}

// NewHTTPFromConfig builds an HTTP-backed Client from cfg.URL.
func NewHTTPFromConfig(cfg config.StoreConfig, log logger.Logger, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("cstore: http mode requires CART_STORE_URL")
	}
	if log == nil {
		log = logger.NewNop()
	}
	httpClient, err := httpx.NewClient(cfg.URL, httpx.WithTimeout(cfg.HTTPTimeout), httpx.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("cstore: init HTTP client: %w", err)
	}
	return NewWithHTTPClient(httpClient, opts...), nil
}

// NewFromEnv builds an HTTP-backed Client from CART_STORE_URL.
func NewFromEnv() (*Client, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	return NewHTTPFromConfig(cfg.Store, logger.NewNop())
}
