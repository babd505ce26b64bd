package cart

import (
	"context"
	"sync"
	"time"

	"github.com/Ratio1/cart_sdk_go/internal/httpx"
	"github.com/Ratio1/cart_sdk_go/internal/metrics"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
)

// writer persists cart payloads from a single goroutine. Only the newest
// payload that has not started yet is kept, so writes land in order and the
// last one always wins.
type writer struct {
	kv      KV
	key     string
	timeout time.Duration
	retries int
	backoff *httpx.Backoff
	log     logger.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	pending  []byte
	queued   bool
	enqueued uint64
	done     uint64
	progress chan struct{}

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

func newWriter(kv KV, o options, log logger.Logger) *writer {
	ctx, cancel := context.WithCancel(context.Background())
	w := &writer{
		kv:       kv,
		key:      o.key,
		timeout:  o.writeTimeout,
		retries:  o.writeRetries,
		backoff:  httpx.NewBackoff(o.retryBase, o.retryMax, 0.2),
		log:      log,
		metrics:  o.metrics,
		ctx:      ctx,
		cancel:   cancel,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue schedules payload, replacing any payload still waiting.
func (w *writer) enqueue(payload []byte) {
	w.mu.Lock()
	w.pending = payload
	w.queued = true
	w.enqueued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.stop:
			w.mu.Lock()
			if w.queued {
				w.log.Warnf("cart: dropping unflushed write of %q on close", w.key)
			}
			w.mu.Unlock()
			return
		case <-w.wake:
		}

		w.mu.Lock()
		if !w.queued {
			w.mu.Unlock()
			continue
		}
		payload, seq := w.pending, w.enqueued
		w.pending, w.queued = nil, false
		w.mu.Unlock()

		w.write(payload)

		w.mu.Lock()
		w.done = seq
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}
}

func (w *writer) write(payload []byte) {
	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			w.metrics.ObserveRetry()
			if sleepErr := httpx.Sleep(w.ctx, w.backoff.ForAttempt(attempt-1)); sleepErr != nil {
				break
			}
		}
		ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
		err = w.kv.Set(ctx, w.key, payload)
		cancel()
		if err == nil {
			break
		}
		w.log.Debugf("cart: write of %q attempt %d failed: %v", w.key, attempt+1, err)
	}
	w.metrics.ObserveWrite(err)
	if err != nil {
		w.log.Errorf("cart: persist %q failed after %d attempt(s): %v", w.key, w.retries+1, err)
	}
}

// flush waits until every payload enqueued so far has been attempted.
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.enqueued
	for w.done < target {
		ch := w.progress
		w.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopped:
			return nil
		case <-ch:
		}
		w.mu.Lock()
	}
	w.mu.Unlock()
	return nil
}

func (w *writer) close() {
	w.cancel()
	close(w.stop)
	<-w.stopped
}
