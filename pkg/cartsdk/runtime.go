package cartsdk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ratio1/cart_sdk_go/internal/config"
	"github.com/Ratio1/cart_sdk_go/internal/devseed"
	"github.com/Ratio1/cart_sdk_go/internal/metrics"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
	"github.com/Ratio1/cart_sdk_go/internal/telemetry"
	"github.com/Ratio1/cart_sdk_go/pkg/cart"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore/boltstore"
	cstoremock "github.com/Ratio1/cart_sdk_go/pkg/cstore/mock"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore/redisstore"
)

// Runtime bundles everything NewFromEnv wires together.
type Runtime struct {
	Config  *config.Config
	Mode    cstore.Mode
	Logger  logger.Logger
	Metrics *metrics.Metrics
	KV      *cstore.Client
	Store   *cart.Store

	shutdownTracing telemetry.ShutdownFunc
}

// Option customises New.
type Option func(*settings)

type settings struct {
	log        logger.Logger
	registerer prometheus.Registerer
	cartOpts   []cart.Option
}

// WithLogger replaces the logger built from Config.Logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithRegisterer registers the cart metrics with reg. Without it metrics are
// collected but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}

// WithCartOptions appends options passed to cart.Open after the ones derived
// from Config.Cart.
func WithCartOptions(opts ...cart.Option) Option {
	return func(s *settings) { s.cartOpts = append(s.cartOpts, opts...) }
}

// NewFromEnv loads configuration with config.LoadFromEnv and calls New.
func NewFromEnv(ctx context.Context, opts ...Option) (*Runtime, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("cartsdk: %w", err)
	}
	return New(ctx, cfg, opts...)
}

// New builds the runtime for cfg and waits for the cart to hydrate.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("cartsdk: config is nil")
	}
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	log := s.log
	if log == nil {
		log = logger.New(logger.Config{
			Level:      cfg.Logger.Level,
			Encoding:   cfg.Logger.Encoding,
			TimeFormat: cfg.Logger.TimeFormat,
		})
	}

	shutdown, err := telemetry.InitTracerProvider(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("cartsdk: %w", err)
	}

	rt := &Runtime{
		Config:          cfg,
		Logger:          log,
		Metrics:         metrics.New(s.registerer),
		shutdownTracing: shutdown,
	}

	rt.KV, rt.Mode, err = NewKV(ctx, cfg.Store, log)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}
	log.Infof("cartsdk: using %s storage", rt.Mode)

	cartOpts := append(CartOptions(cfg.Cart),
		cart.WithLogger(log),
		cart.WithMetrics(rt.Metrics),
	)
	rt.Store, err = cart.Open(ctx, rt.KV, append(cartOpts, s.cartOpts...)...)
	if err != nil {
		_ = rt.KV.Close()
		_ = shutdown(context.Background())
		return nil, fmt.Errorf("cartsdk: open cart: %w", err)
	}
	return rt, nil
}

// CartOptions translates cfg into cart options.
func CartOptions(cfg config.CartConfig) []cart.Option {
	return []cart.Option{
		cart.WithKey(cfg.StorageKey),
		cart.WithHydrateTimeout(cfg.HydrateTimeout),
		cart.WithWriteTimeout(cfg.WriteTimeout),
		cart.WithWriteRetries(cfg.WriteRetries),
	}
}

// NewKV resolves cfg.Mode and builds the matching client.
func NewKV(ctx context.Context, cfg config.StoreConfig, log logger.Logger, opts ...cstore.ClientOption) (*cstore.Client, cstore.Mode, error) {
	if log == nil {
		log = logger.NewNop()
	}
	mode, err := cstore.ResolveMode(cfg)
	if err != nil {
		return nil, "", err
	}

	switch mode {
	case cstore.ModeHTTP:
		client, err := cstore.NewHTTPFromConfig(cfg, log, opts...)
		if err != nil {
			return nil, "", err
		}
		return client, mode, nil

	case cstore.ModeRedis:
		store, err := redisstore.Open(ctx, redisstore.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			Prefix:      cfg.RedisPrefix,
			DialTimeout: cfg.DialTimeout,
			Logger:      log,
		})
		if err != nil {
			return nil, "", fmt.Errorf("cartsdk: %w", err)
		}
		return cstore.NewWithBackend(store, opts...), mode, nil

	case cstore.ModeBolt:
		store, err := boltstore.Open(cfg.BoltPath, cfg.DialTimeout)
		if err != nil {
			return nil, "", fmt.Errorf("cartsdk: %w", err)
		}
		return cstore.NewWithBackend(store, opts...), mode, nil

	default:
		store, err := newMock(cfg.MockSeed)
		if err != nil {
			return nil, "", err
		}
		return cstore.NewWithBackend(store, opts...), cstore.ModeMock, nil
	}
}

func newMock(seedPath string) (*cstoremock.Mock, error) {
	store := cstoremock.New()
	if path := strings.TrimSpace(seedPath); path != "" {
		entries, err := devseed.Load(path)
		if err != nil {
			return nil, fmt.Errorf("cartsdk: load mock seed: %w", err)
		}
		if err := store.Seed(entries); err != nil {
			return nil, fmt.Errorf("cartsdk: apply mock seed: %w", err)
		}
	}
	return store, nil
}

// Close flushes the cart, then releases the backend and the tracer.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Store != nil {
		errs = append(errs, r.Store.Close(ctx))
	}
	if r.KV != nil {
		errs = append(errs, r.KV.Close())
	}
	if r.shutdownTracing != nil {
		errs = append(errs, r.shutdownTracing(ctx))
	}
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
	return errors.Join(errs...)
}
