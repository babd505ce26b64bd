package cstore

import (
	"encoding/json"
	"errors"
)

// Item is a stored key/value pair.
type Item[T any] struct {
	Key   string
	Value T
	ETag  string
}

// ListResult is one page of a List call.
type ListResult[T any] struct {
	Items      []Item[T]
	NextCursor string
}

// Status is the payload of /get_status.
type Status struct {
	Keys []string `json:"keys"`
}

// RawItem is what backends return from PutRaw.
type RawItem = Item[json.RawMessage]

var (
	// ErrNotFound is returned by Delete when the key is missing.
	ErrNotFound = errors.New("cstore: not found")
	// ErrKeyRequired is returned for blank keys.
	ErrKeyRequired = errors.New("cstore: key is required")
	// ErrNilClient is returned when a Client has no backend.
	ErrNilClient = errors.New("cstore: client is nil")
	// ErrUnsupportedFeature marks capabilities a backend does not offer.
	ErrUnsupportedFeature = errors.New("cstore: unsupported feature")
)
