// Package cstore is the key-value client the cart persists through. A Client
// wraps a Backend: the HTTP backend in this package talks to a CStore-style
// REST API (/get, /set, /get_status, /delete), while sibling packages provide
// Redis (redisstore), local bbolt (boltstore) and in-memory (mock) backends.
//
// Values are opaque JSON documents. Get reports an absent key as (nil, nil)
// so callers can tell "missing" from "failed".
package cstore
