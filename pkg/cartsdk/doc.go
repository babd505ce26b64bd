// Package cartsdk bootstraps a ready-to-use cart from configuration: it
// loads settings (CART_CONFIG_PATH, .env and the environment), builds the
// logger, picks a key-value backend by CART_STORE_MODE and opens a hydrated
// cart.Store on top of it. Without any storage settings the runtime falls
// back to an in-memory mock so examples and tests work out of the box.
package cartsdk
