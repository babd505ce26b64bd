package cstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ratio1/cart_sdk_go/internal/apienvelope"
	"github.com/Ratio1/cart_sdk_go/internal/httpx"
)

const instrumentationName = "github.com/Ratio1/cart_sdk_go/pkg/cstore"

// Backend is the storage contract behind a Client. GetRaw returns nil (or
// the JSON literal null) for a missing key.
type Backend interface {
	GetRaw(ctx context.Context, key string) ([]byte, error)
	PutRaw(ctx context.Context, key string, raw []byte) (*RawItem, error)
	ListKeys(ctx context.Context) ([]string, error)
	DeleteRaw(ctx context.Context, key string) error
}

// Pinger is implemented by backends with a cheap liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTracerProvider traces calls with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// Client provides Get/Set access to a key-value backend.
type Client struct {
	backend Backend
	tracer  trace.Tracer
}

// New constructs a Client for the REST API at baseURL.
func New(baseURL string, opts ...httpx.Option) (*Client, error) {
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client, opts ...ClientOption) *Client {
	return NewWithBackend(&httpBackend{client: httpClient}, opts...)
}

// NewWithBackend binds a Client to b (Redis, bbolt, mock or a custom one).
func NewWithBackend(b Backend, opts ...ClientOption) *Client {
	c := &Client{
		backend: b,
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend exposes the underlying backend.
func (c *Client) Backend() Backend {
	if c == nil {
		return nil
	}
	return c.backend
}

// Get returns the JSON document stored under key, or nil when absent.
func (c *Client) Get(ctx context.Context, key string) (value []byte, err error) {
	if err := c.check(key); err != nil {
		return nil, err
	}
	ctx, span := c.start(ctx, "Get", key)
	defer func() { endSpan(span, err) }()

	raw, err := c.backend.GetRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	if apienvelope.IsNull(raw) {
		span.SetAttributes(attribute.Bool("cstore.hit", false))
		return nil, nil
	}
	span.SetAttributes(attribute.Bool("cstore.hit", true), attribute.Int("cstore.bytes", len(raw)))
	return bytes.TrimSpace(raw), nil
}

// Set stores value, which must be a JSON document, under key.
func (c *Client) Set(ctx context.Context, key string, value []byte) (err error) {
	if err := c.check(key); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("cstore: value for %q is not valid JSON", key)
	}
	ctx, span := c.start(ctx, "Set", key)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("cstore.bytes", len(value)))

	_, err = c.backend.PutRaw(ctx, key, value)
	return err
}

// Delete removes key; ErrNotFound when it does not exist.
func (c *Client) Delete(ctx context.Context, key string) (err error) {
	if err := c.check(key); err != nil {
		return err
	}
	ctx, span := c.start(ctx, "Delete", key)
	defer func() { endSpan(span, err) }()
	return c.backend.DeleteRaw(ctx, key)
}

// GetStatus lists the stored keys in sorted order.
func (c *Client) GetStatus(ctx context.Context) (status *Status, err error) {
	if c == nil || c.backend == nil {
		return nil, ErrNilClient
	}
	ctx, span := c.start(ctx, "GetStatus", "")
	defer func() { endSpan(span, err) }()

	keys, err := c.backend.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return &Status{Keys: sorted}, nil
}

// Ping checks the backend. Backends without a Pinger are probed with a key
// listing.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return ErrNilClient
	}
	if p, ok := c.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := c.backend.ListKeys(ctx)
	return err
}

// Close releases the backend if it holds resources (connections, files).
func (c *Client) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// GetItem decodes the value under key into T. A missing key yields nil.
func GetItem[T any](ctx context.Context, client *Client, key string) (*Item[T], error) {
	raw, err := client.Get(ctx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("cstore: decode %q: %w", key, err)
	}
	return &Item[T]{Key: key, Value: value}, nil
}

// PutItem encodes value as JSON and stores it under key.
func PutItem[T any](ctx context.Context, client *Client, key string, value T) (*Item[T], error) {
	payload, err := Encode(value)
	if err != nil {
		return nil, fmt.Errorf("cstore: encode %q: %w", key, err)
	}
	if err := client.check(key); err != nil {
		return nil, err
	}
	meta, err := client.backend.PutRaw(ctx, key, payload)
	if err != nil {
		return nil, err
	}
	item := &Item[T]{Key: key, Value: value}
	if meta != nil {
		item.ETag = meta.ETag
	}
	return item, nil
}

// List pages through keys with the given prefix in lexical order. cursor is
// the last key of the previous page; limit <= 0 returns everything.
func List[T any](ctx context.Context, client *Client, prefix, cursor string, limit int) (*ListResult[T], error) {
	status, err := client.GetStatus(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(status.Keys))
	for _, k := range status.Keys {
		if strings.HasPrefix(k, prefix) && (cursor == "" || k > cursor) {
			keys = append(keys, k)
		}
	}

	next := ""
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		next = keys[limit-1]
	}

	items := make([]Item[T], 0, len(keys))
	for _, key := range keys {
		item, err := GetItem[T](ctx, client, key)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}
	return &ListResult[T]{Items: items, NextCursor: next}, nil
}

// Encode marshals v without HTML escaping and without a trailing newline.
func Encode(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *Client) check(key string) error {
	if c == nil || c.backend == nil {
		return ErrNilClient
	}
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	return nil
}

func (c *Client) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("cstore.op", op)}
	if key != "" {
		attrs = append(attrs, attribute.String("cstore.key", key))
	}
	return c.tracer.Start(ctx, "cstore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
