// Package cart holds a single shopping cart in memory and keeps it in sync
// with a key-value store.
//
// A Store hydrates itself once from the store on construction, applies
// AddToCart, Increment, Decrement and Clear as copy-on-write updates through
// Reduce, and hands every resulting cart to a background writer. Callers never
// wait for a write; failed writes are logged and counted but not returned, so
// durability of an individual mutation is best effort. Flush and Close wait
// for the queue to drain when the caller needs that guarantee.
//
// Stores are passed explicitly. WithStore and FromContext bind one to a
// context for code that cannot take it as a parameter; FromContext panics
// with *UsageError when none is bound.
package cart
