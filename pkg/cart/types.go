package cart

import "math"

// LineItem is one product in the cart. The JSON field names are the persisted
// format and must not change.
type LineItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Candidate describes a product that is about to be added.
type Candidate struct {
	ID       string
	Title    string
	ImageURL string
	Price    float64
}

// Valid reports whether c can enter a cart: it needs an ID and a positive,
// finite price. Anything else could not be persisted and reloaded as is.
func (c Candidate) Valid() bool {
	return c.ID != "" && c.Price > 0 && !math.IsInf(c.Price, 0)
}

func (c Candidate) lineItem() LineItem {
	return LineItem{
		ID:       c.ID,
		Title:    c.Title,
		ImageURL: c.ImageURL,
		Price:    c.Price,
		Quantity: 1,
	}
}

// Cart is an ordered list of line items, unique by ID. Insertion order is
// display order.
type Cart []LineItem

// Find returns the item with id and its index.
func (c Cart) Find(id string) (LineItem, int, bool) {
	for i, item := range c {
		if item.ID == id {
			return item, i, true
		}
	}
	return LineItem{}, -1, false
}

// Len is the number of distinct items.
func (c Cart) Len() int { return len(c) }

// Units is the sum of all quantities.
func (c Cart) Units() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// IDs lists item IDs in cart order.
func (c Cart) IDs() []string {
	ids := make([]string, len(c))
	for i, item := range c {
		ids[i] = item.ID
	}
	return ids
}

// Clone returns a copy that shares nothing with c. The result is never nil.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Equal reports whether both carts hold the same items in the same order.
// A nil cart equals an empty one.
func (c Cart) Equal(other Cart) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}
