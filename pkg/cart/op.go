package cart

// Op is a cart mutation. The set of operations is closed: Add, Increment,
// Decrement and Clear.
type Op interface {
	// Name is a short label used in logs and metrics.
	Name() string
	isOp()
}

// Add appends Item with quantity 1, or increments it when already present.
// A candidate without an ID or with a price that is not a positive finite
// number is ignored.
type Add struct{ Item Candidate }

// Increment raises the quantity of ID by one.
type Increment struct{ ID string }

// Decrement lowers the quantity of ID by one and removes the item at zero.
type Decrement struct{ ID string }

// Clear removes every item.
type Clear struct{}

func (Add) Name() string       { return "add" }
func (Increment) Name() string { return "increment" }
func (Decrement) Name() string { return "decrement" }
func (Clear) Name() string     { return "clear" }

func (Add) isOp()       {}
func (Increment) isOp() {}
func (Decrement) isOp() {}
func (Clear) isOp()     {}

// Reduce applies op to c. It never modifies c: when the cart changes the
// result is a new slice, otherwise c itself is returned with changed false.
// Unknown IDs are a no-op for Increment and Decrement.
func Reduce(c Cart, op Op) (next Cart, changed bool) {
	switch op := op.(type) {
	case Add:
		if !op.Item.Valid() {
			return c, false
		}
		if _, _, ok := c.Find(op.Item.ID); ok {
			return Reduce(c, Increment{ID: op.Item.ID})
		}
		next = make(Cart, len(c), len(c)+1)
		copy(next, c)
		return append(next, op.Item.lineItem()), true

	case Increment:
		_, idx, ok := c.Find(op.ID)
		if !ok {
			return c, false
		}
		next = c.Clone()
		next[idx].Quantity++
		return next, true

	case Decrement:
		item, idx, ok := c.Find(op.ID)
		if !ok {
			return c, false
		}
		if item.Quantity <= 1 {
			next = make(Cart, 0, len(c)-1)
			next = append(next, c[:idx]...)
			return append(next, c[idx+1:]...), true
		}
		next = c.Clone()
		next[idx].Quantity--
		return next, true

	case Clear:
		if len(c) == 0 {
			return c, false
		}
		return Cart{}, true
	}
	return c, false
}
