package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serialises c as a JSON array. An empty or nil cart encodes as [].
func Encode(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cart: encode: %w", err)
	}
	return data, nil
}

// Decode parses a persisted cart. null and empty input decode to an empty
// cart. Items without an ID or with a quantity below one are dropped, and
// repeated IDs are folded into their first occurrence, so the result always
// satisfies the cart invariants.
func Decode(data []byte) (Cart, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Cart{}, nil
	}
	var raw []LineItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	return sanitize(raw), nil
}

func sanitize(items []LineItem) Cart {
	out := make(Cart, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		if i, ok := index[item.ID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}
