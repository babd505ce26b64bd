package cart

import "context"

// UsageError reports a programming mistake such as using a Store outside its
// scope or after Close. It is raised with panic, never returned.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	return "cart: " + e.Op + ": " + e.Msg
}

func usage(op, msg string) *UsageError {
	return &UsageError{Op: op, Msg: msg}
}

type scopeKey struct{}

// WithStore returns a context that carries s.
func WithStore(ctx context.Context, s *Store) context.Context {
	if s == nil {
		panic(usage("WithStore", "store is nil"))
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the store bound by WithStore. It panics with
// *UsageError when ctx carries none.
func FromContext(ctx context.Context) *Store {
	s, ok := Lookup(ctx)
	if !ok {
		panic(usage("FromContext", "must be used within a scope created by WithStore"))
	}
	return s
}

// Lookup is FromContext without the panic.
func Lookup(ctx context.Context) (*Store, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(scopeKey{}).(*Store)
	return s, ok && s != nil
}
