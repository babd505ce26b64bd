// Command cart-sandbox serves the key-value HTTP API from an in-memory store
// so a cart can run in http mode without a real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/Ratio1/cart_sdk_go/internal/config"
	"github.com/Ratio1/cart_sdk_go/internal/devseed"
	"github.com/Ratio1/cart_sdk_go/internal/metrics"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
	"github.com/Ratio1/cart_sdk_go/internal/telemetry"
	cstoremock "github.com/Ratio1/cart_sdk_go/pkg/cstore/mock"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	addr := flag.String("addr", cfg.Sandbox.Addr, "listen address")
	kvSeed := flag.String("kv-seed", cfg.Store.MockSeed, "path to a JSON or YAML seed for the store")
	latency := flag.Duration("latency", 0, "artificial latency to inject per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flag.Parse()

	lg := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	defer lg.Sync()

	if err := run(cfg, *addr, *kvSeed, *latency, *fail, lg); err != nil {
		lg.Fatalf("cart-sandbox: %v", err)
	}
}

func run(cfg *config.Config, addr, seedPath string, latency time.Duration, fail string, lg logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failCfg, err := parseFailConfig(fail)
	if err != nil {
		return fmt.Errorf("parse fail flag: %w", err)
	}

	store := cstoremock.New()
	if seedPath != "" {
		entries, err := devseed.Load(seedPath)
		if err != nil {
			return err
		}
		if err := store.Seed(entries); err != nil {
			return err
		}
		lg.Infof("seeded %d key(s) from %s", len(entries), seedPath)
	}

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, "cart-sandbox", cfg.Tracing.Endpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &server{
		store:   store,
		log:     lg,
		metrics: metrics.New(reg),
		latency: latency,
		fail:    failCfg,
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	lg.Infof("cart-sandbox listening on %s", addr)
	fmt.Println()
	fmt.Println("export CART_STORE_MODE=http")
	fmt.Printf("export CART_STORE_URL=http://%s\n", host)
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
