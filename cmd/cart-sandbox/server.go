package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ratio1/cart_sdk_go/internal/metrics"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore"
	cstoremock "github.com/Ratio1/cart_sdk_go/pkg/cstore/mock"
)

type failConfig struct {
	rate float64
	code int
}

type server struct {
	store   *cstoremock.Mock
	log     logger.Logger
	metrics *metrics.Metrics
	latency time.Duration
	fail    failConfig
	// roll returns a value in [0,1); nil means math/rand.
	roll func() float64
}

func (s *server) routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.inject)
		r.Get("/get", s.handleGet)
		r.Post("/set", s.handleSet)
		r.Post("/delete", s.handleDelete)
		r.Get("/get_status", s.handleStatus)
	})
	return r
}

// observe logs each request and counts it by route pattern.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(route, status)
		s.log.Debugf("%s %s -> %d (%s) req=%s", r.Method, route, status, time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// inject applies the configured latency and random failures.
func (s *server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		if s.fail.rate > 0 && s.rollDice() < s.fail.rate {
			code := s.fail.code
			if code == 0 {
				code = http.StatusInternalServerError
			}
			http.Error(w, "failure injected", code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) rollDice() float64 {
	if s.roll != nil {
		return s.roll()
	}
	return rand.Float64()
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "missing key parameter", http.StatusBadRequest)
		return
	}
	raw, err := s.store.GetRaw(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if raw == nil {
		writeJSON(w, http.StatusOK, map[string]any{"result": nil})
		return
	}
	// values travel as JSON strings, like the hosted service
	writeJSON(w, http.StatusOK, map[string]any{"result": string(raw)})
}

func (s *server) handleSet(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Key) == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	if _, err := s.store.PutRaw(r.Context(), payload.Key, storedValue(payload.Value)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": true})
}

// storedValue turns a string-encoded document back into the document. Other
// values are stored as sent.
func storedValue(value json.RawMessage) []byte {
	var text string
	if err := json.Unmarshal(value, &text); err == nil && json.Valid([]byte(text)) {
		return []byte(text)
	}
	if len(value) == 0 {
		return []byte("null")
	}
	return value
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := s.store.DeleteRaw(r.Context(), payload.Key)
	switch {
	case errors.Is(err, cstore.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"result": true})
	}
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListKeys(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"keys": keys}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseFailConfig(input string) (failConfig, error) {
	cfg := failConfig{}
	if strings.TrimSpace(input) == "" {
		return cfg, nil
	}
	for _, part := range strings.Split(input, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			return cfg, fmt.Errorf("invalid segment %q", part)
		}
		switch strings.ToLower(kv[0]) {
		case "rate":
			rate, err := strconv.ParseFloat(kv[1], 64)
			if err != nil {
				return cfg, fmt.Errorf("invalid rate: %w", err)
			}
			if rate < 0 || rate > 1 {
				return cfg, fmt.Errorf("rate must be within [0,1], got %v", rate)
			}
			cfg.rate = rate
		case "code":
			code, err := strconv.Atoi(kv[1])
			if err != nil {
				return cfg, fmt.Errorf("invalid code: %w", err)
			}
			if code < 400 || code > 599 {
				return cfg, fmt.Errorf("code must be an HTTP error status, got %d", code)
			}
			cfg.code = code
		default:
			return cfg, fmt.Errorf("unknown key %q", kv[0])
		}
	}
	return cfg, nil
}
