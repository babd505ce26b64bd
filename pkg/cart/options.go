package cart

import (
	"time"

	"github.com/Ratio1/cart_sdk_go/internal/metrics"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
)

// DefaultKey is the storage key the cart is persisted under.
const DefaultKey = "@GoMarketplace:products"

const (
	defaultHydrateTimeout = 5 * time.Second
	defaultWriteTimeout   = 5 * time.Second
	defaultRetryBase      = 100 * time.Millisecond
	defaultRetryMax       = 2 * time.Second
)

type options struct {
	key            string
	log            logger.Logger
	metrics        *metrics.Metrics
	hydrateTimeout time.Duration
	writeTimeout   time.Duration
	writeRetries   int
	retryBase      time.Duration
	retryMax       time.Duration
}

func defaultOptions() options {
	return options{
		key:            DefaultKey,
		log:            logger.NewNop(),
		hydrateTimeout: defaultHydrateTimeout,
		writeTimeout:   defaultWriteTimeout,
		retryBase:      defaultRetryBase,
		retryMax:       defaultRetryMax,
	}
}

// Option configures a Store.
type Option func(*options)

// WithKey overrides DefaultKey. Blank keys are ignored.
func WithKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

// WithLogger sets the logger for hydration and write failures. The default
// discards everything.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records operations, writes and hydration into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHydrateTimeout bounds the initial read. After it expires the store
// starts empty.
func WithHydrateTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.hydrateTimeout = d
		}
	}
}

// WithWriteTimeout bounds each write attempt.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithWriteRetries retries a failed write up to n more times with
// exponential backoff. The default is zero: a failed write is dropped.
func WithWriteRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.writeRetries = n
		}
	}
}

// WithRetryBackoff sets the first and the maximum delay between write
// attempts.
func WithRetryBackoff(base, max time.Duration) Option {
	return func(o *options) {
		if base > 0 {
			o.retryBase = base
		}
		if max > 0 {
			o.retryMax = max
		}
	}
}
