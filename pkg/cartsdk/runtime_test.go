package cartsdk_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ratio1/cart_sdk_go/internal/config"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
	"github.com/Ratio1/cart_sdk_go/pkg/cart"
	"github.com/Ratio1/cart_sdk_go/pkg/cartsdk"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore"
)

func baseConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Mode: "auto", DialTimeout: time.Second, HTTPTimeout: time.Second},
		Cart: config.CartConfig{
			StorageKey:     cart.DefaultKey,
			HydrateTimeout: time.Second,
			WriteTimeout:   time.Second,
		},
	}
}

func open(t *testing.T, cfg *config.Config) *cartsdk.Runtime {
	t.Helper()
	rt, err := cartsdk.New(context.Background(), cfg,
		cartsdk.WithLogger(logger.NewNop()),
		cartsdk.WithRegisterer(prometheus.NewRegistry()),
	)
	if err != nil {
		t.Fatalf("cartsdk.New: %v", err)
	}
	return rt
}

func TestNewDefaultsToMock(t *testing.T) {
	rt := open(t, baseConfig())
	defer rt.Close(context.Background())

	if rt.Mode != cstore.ModeMock {
		t.Fatalf("expected mock mode, got %q", rt.Mode)
	}
	rt.Store.AddToCart(cart.Candidate{ID: "a", Title: "Shoe", ImageURL: "u", Price: 10})
	if got := rt.Store.Snapshot().Units(); got != 1 {
		t.Fatalf("expected 1 unit, got %d", got)
	}
}

func TestNewMockSeed(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	content := `- key: "@GoMarketplace:products"
  value:
    - id: "7"
      title: Lamp
      image_url: lamp.png
      price: 19.9
      quantity: 2
`
	if err := os.WriteFile(seed, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.Store.MockSeed = seed
	rt := open(t, cfg)
	defer rt.Close(context.Background())

	snap := rt.Store.Snapshot()
	if len(snap) != 1 || snap[0].ID != "7" || snap[0].Quantity != 2 {
		t.Fatalf("unexpected hydrated cart: %+v", snap)
	}
}

func TestNewBoltPersistsAcrossRuntimes(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.BoltPath = filepath.Join(t.TempDir(), "cart.db")

	first := open(t, cfg)
	if first.Mode != cstore.ModeBolt {
		t.Fatalf("expected bolt mode, got %q", first.Mode)
	}
	first.Store.AddToCart(cart.Candidate{ID: "a", Title: "Shoe", ImageURL: "u", Price: 10})
	first.Store.AddToCart(cart.Candidate{ID: "b", Title: "Hat", ImageURL: "h", Price: 5})
	first.Store.Increment("a")
	if err := first.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := open(t, cfg)
	defer second.Close(context.Background())
	snap := second.Store.Snapshot()
	if got := snap.IDs(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected order %v", got)
	}
	if snap[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", snap[0].Quantity)
	}
}

func TestNewRedisMode(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Store.Mode = "redis"
	cfg.Store.RedisAddr = srv.Addr()
	cfg.Store.RedisPrefix = "shop:"

	rt := open(t, cfg)
	rt.Store.AddToCart(cart.Candidate{ID: "a", Title: "Shoe", ImageURL: "u", Price: 10})
	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	stored, err := srv.Get("shop:" + cart.DefaultKey)
	if err != nil {
		t.Fatalf("redis get: %v", err)
	}
	if stored != `[{"id":"a","title":"Shoe","image_url":"u","price":10,"quantity":1}]` {
		t.Fatalf("unexpected persisted value %s", stored)
	}
}

func TestNewHTTPMode(t *testing.T) {
	var (
		mu    sync.Mutex
		value string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/get":
			mu.Lock()
			defer mu.Unlock()
			if value == "" {
				io.WriteString(w, `{"result":null}`)
				return
			}
			io.WriteString(w, `{"result":`+strconv.Quote(value)+`}`)
		case "/set":
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			value = string(body)
			mu.Unlock()
			io.WriteString(w, `{"result":true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.Store.URL = srv.URL
	rt := open(t, cfg)
	if rt.Mode != cstore.ModeHTTP {
		t.Fatalf("expected http mode, got %q", rt.Mode)
	}
	rt.Store.AddToCart(cart.Candidate{ID: "a", Title: "Shoe", ImageURL: "u", Price: 10})
	if err := rt.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if value == "" {
		t.Fatal("expected a /set call")
	}
}

func TestNewRejectsBadMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Store.Mode = "bolt"
	if _, err := cartsdk.New(context.Background(), cfg, cartsdk.WithLogger(logger.NewNop())); err == nil {
		t.Fatal("expected error for bolt mode without a path")
	}
	if _, err := cartsdk.New(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("CART_STORE_MODE", "bolt")
	t.Setenv("CART_BOLT_PATH", filepath.Join(t.TempDir(), "env.db"))
	t.Setenv("CART_STORAGE_KEY", "env-cart")

	rt, err := cartsdk.NewFromEnv(context.Background(), cartsdk.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	defer rt.Close(context.Background())

	rt.Store.AddToCart(cart.Candidate{ID: "x", Price: 2})
	if err := rt.Store.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	raw, err := rt.KV.Get(context.Background(), "env-cart")
	if err != nil || raw == nil {
		t.Fatalf("expected cart under env-cart, got %s (%v)", raw, err)
	}
}
