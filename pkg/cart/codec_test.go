package cart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/cart_sdk_go/pkg/cart"
)

func TestEncodeFieldNames(t *testing.T) {
	data, err := cart.Encode(cart.Cart{{ID: "a", Title: "Shoe", ImageURL: "u", Price: 10, Quantity: 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","title":"Shoe","image_url":"u","price":10,"quantity":2}]`, string(data))

	empty, err := cart.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    cart.Cart
		wantErr bool
	}{
		{name: "empty input", in: "", want: cart.Cart{}},
		{name: "null", in: " null ", want: cart.Cart{}},
		{name: "empty array", in: "[]", want: cart.Cart{}},
		{
			name: "ordered items",
			in:   `[{"id":"b","title":"B","image_url":"b","price":2,"quantity":1},{"id":"a","title":"A","image_url":"a","price":1,"quantity":3}]`,
			want: cart.Cart{
				{ID: "b", Title: "B", ImageURL: "b", Price: 2, Quantity: 1},
				{ID: "a", Title: "A", ImageURL: "a", Price: 1, Quantity: 3},
			},
		},
		{
			name: "drops invalid records",
			in:   `[{"id":"","quantity":1},{"id":"z","quantity":0},{"id":"n","quantity":-2},{"id":"ok","quantity":1}]`,
			want: cart.Cart{{ID: "ok", Quantity: 1}},
		},
		{
			name: "merges duplicate ids",
			in:   `[{"id":"a","title":"first","quantity":1},{"id":"b","quantity":1},{"id":"a","title":"second","quantity":2}]`,
			want: cart.Cart{{ID: "a", Title: "first", Quantity: 3}, {ID: "b", Quantity: 1}},
		},
		{name: "object", in: `{"id":"a"}`, wantErr: true},
		{name: "garbage", in: `not json`, wantErr: true},
		{name: "wrong field type", in: `[{"id":"a","quantity":"two"}]`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cart.Decode([]byte(tc.in))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeDecodeKeepsOrder(t *testing.T) {
	c := cart.Cart{
		{ID: "3", Title: "c", ImageURL: "c", Price: 0.99, Quantity: 1},
		{ID: "1", Title: "a", ImageURL: "a", Price: 12.5, Quantity: 4},
		{ID: "2", Title: "b", ImageURL: "b", Price: 3, Quantity: 2},
	}
	data, err := cart.Encode(c)
	require.NoError(t, err)
	back, err := cart.Decode(data)
	require.NoError(t, err)
	assert.True(t, back.Equal(c))
}
