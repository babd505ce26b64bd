package boltstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/cart_sdk_go/pkg/cstore"
	"github.com/Ratio1/cart_sdk_go/pkg/cstore/boltstore"
)

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	ctx := context.Background()

	store, err := boltstore.Open(path, 0)
	require.NoError(t, err)
	doc := []byte(`[{"id":"x","title":"Mug","image_url":"m.png","price":7,"quantity":2}]`)
	_, err = store.PutRaw(ctx, "@GoMarketplace:products", doc)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := boltstore.Open(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetRaw(ctx, "@GoMarketplace:products")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestStoreKeysAndDelete(t *testing.T) {
	store, err := boltstore.Open(filepath.Join(t.TempDir(), "c.db"), 0)
	require.NoError(t, err)
	client := cstore.NewWithBackend(store)
	defer client.Close()
	ctx := context.Background()

	missing, err := client.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, client.Set(ctx, "b", []byte(`2`)))
	require.NoError(t, client.Set(ctx, "a", []byte(`1`)))
	require.NoError(t, client.Ping(ctx))

	status, err := client.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, status.Keys)

	require.NoError(t, client.Delete(ctx, "a"))
	assert.ErrorIs(t, client.Delete(ctx, "a"), cstore.ErrNotFound)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := boltstore.Open("  ", 0)
	assert.Error(t, err)
}
