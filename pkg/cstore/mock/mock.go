// Package mock provides an in-memory cstore.Backend for development, tests
// and the sandbox server.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Ratio1/cart_sdk_go/internal/devseed"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore"
)

type entry struct {
	data []byte
	etag string
}

// Mock implements cstore.Backend on a map. Reads and writes can be made to
// fail to exercise error paths.
type Mock struct {
	mu       sync.RWMutex
	items    map[string]*entry
	readErr  error
	writeErr error
	writes   int
}

var _ cstore.Backend = (*Mock)(nil)

// New creates an empty mock store.
func New() *Mock {
	return &Mock{items: make(map[string]*entry)}
}

// Seed loads initial items, typically decoded via devseed.Load.
func (m *Mock) Seed(entries []devseed.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return fmt.Errorf("mock cstore: seed entry missing key")
		}
		data := append([]byte(nil), e.Value...)
		if len(data) == 0 {
			data = []byte("null")
		}
		m.items[e.Key] = &entry{data: data, etag: newETag()}
	}
	return nil
}

// FailReads makes every GetRaw and ListKeys return err. nil restores normal
// behaviour.
func (m *Mock) FailReads(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// FailWrites makes every PutRaw and DeleteRaw return err.
func (m *Mock) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Writes reports how many PutRaw calls succeeded.
func (m *Mock) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// GetRaw returns a copy of the stored document or nil.
func (m *Mock) GetRaw(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	ent, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), ent.data...), nil
}

// PutRaw replaces the document under key and assigns a fresh ETag.
func (m *Mock) PutRaw(ctx context.Context, key string, raw []byte) (*cstore.RawItem, error) {
	if strings.TrimSpace(key) == "" {
		return nil, cstore.ErrKeyRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	ent := &entry{data: append([]byte(nil), raw...), etag: newETag()}
	m.items[key] = ent
	m.writes++
	return &cstore.RawItem{Key: key, Value: json.RawMessage(ent.data), ETag: ent.etag}, nil
}

// ListKeys returns all keys in lexical order.
func (m *Mock) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteRaw removes key; cstore.ErrNotFound when absent.
func (m *Mock) DeleteRaw(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	if _, ok := m.items[key]; !ok {
		return cstore.ErrNotFound
	}
	delete(m.items, key)
	return nil
}

// ETag returns the current ETag of key, empty when absent.
func (m *Mock) ETag(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ent, ok := m.items[key]; ok {
		return ent.etag
	}
	return ""
}

// Get decodes the value under key into T.
func Get[T any](ctx context.Context, store *Mock, key string) (*cstore.Item[T], error) {
	raw, err := store.GetRaw(ctx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("mock cstore: decode value: %w", err)
	}
	return &cstore.Item[T]{Key: key, Value: value, ETag: store.ETag(key)}, nil
}

// Put encodes value and stores it.
func Put[T any](ctx context.Context, store *Mock, key string, value T) (*cstore.Item[T], error) {
	payload, err := cstore.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("mock cstore: encode value: %w", err)
	}
	meta, err := store.PutRaw(ctx, key, payload)
	if err != nil {
		return nil, err
	}
	return &cstore.Item[T]{Key: key, Value: value, ETag: meta.ETag}, nil
}

func newETag() string {
	return uuid.NewString()
}
