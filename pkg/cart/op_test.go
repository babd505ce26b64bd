package cart_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/cart_sdk_go/pkg/cart"
)

func shoe() cart.Candidate {
	return cart.Candidate{ID: "a", Title: "Shoe", ImageURL: "u", Price: 10}
}

func candidate(id string) cart.Candidate {
	return cart.Candidate{ID: id, Title: "item " + id, ImageURL: id + ".png", Price: 1.5}
}

func apply(t *testing.T, c cart.Cart, ops ...cart.Op) cart.Cart {
	t.Helper()
	for _, op := range ops {
		c, _ = cart.Reduce(c, op)
	}
	return c
}

func TestReduceScenario(t *testing.T) {
	c := cart.Cart{}

	c = apply(t, c, cart.Add{Item: shoe()})
	require.Equal(t, cart.Cart{{ID: "a", Title: "Shoe", ImageURL: "u", Price: 10, Quantity: 1}}, c)

	c = apply(t, c, cart.Add{Item: shoe()})
	require.Len(t, c, 1)
	assert.Equal(t, 2, c[0].Quantity)

	c = apply(t, c, cart.Decrement{ID: "a"})
	require.Len(t, c, 1)
	assert.Equal(t, 1, c[0].Quantity)

	c = apply(t, c, cart.Decrement{ID: "a"})
	assert.Empty(t, c)
}

func TestReducePreservesOrder(t *testing.T) {
	c := apply(t, nil,
		cart.Add{Item: candidate("a")},
		cart.Add{Item: candidate("b")},
		cart.Add{Item: candidate("c")},
		cart.Increment{ID: "b"},
		cart.Add{Item: candidate("a")},
	)
	assert.Equal(t, []string{"a", "b", "c"}, c.IDs())
	assert.Equal(t, 5, c.Units())

	c = apply(t, c, cart.Decrement{ID: "b"}, cart.Decrement{ID: "b"})
	assert.Equal(t, []string{"a", "c"}, c.IDs())
}

func TestReduceUnknownIDIsNoop(t *testing.T) {
	start := apply(t, nil, cart.Add{Item: candidate("a")})

	for _, op := range []cart.Op{cart.Increment{ID: "zz"}, cart.Decrement{ID: "zz"}} {
		next, changed := cart.Reduce(start, op)
		assert.False(t, changed, op.Name())
		assert.True(t, next.Equal(start))
	}

	next, changed := cart.Reduce(cart.Cart{}, cart.Clear{})
	assert.False(t, changed)
	assert.Empty(t, next)
}

func TestReduceIgnoresInvalidCandidates(t *testing.T) {
	start := apply(t, nil, cart.Add{Item: candidate("a")})

	for name, item := range map[string]cart.Candidate{
		"blank id":     {Title: "x", Price: 1},
		"nan":          {ID: "n", Price: math.NaN()},
		"+inf":         {ID: "n", Price: math.Inf(1)},
		"-inf":         {ID: "n", Price: math.Inf(-1)},
		"zero":         {ID: "n"},
		"negative":     {ID: "n", Price: -3},
		"existing nan": {ID: "a", Price: math.NaN()},
	} {
		assert.False(t, item.Valid(), name)
		next, changed := cart.Reduce(start, cart.Add{Item: item})
		assert.False(t, changed, name)
		assert.True(t, next.Equal(start), name)
		_, err := cart.Encode(next)
		assert.NoError(t, err, name)
	}
	assert.True(t, candidate("b").Valid())
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	start := apply(t, nil, cart.Add{Item: candidate("a")}, cart.Add{Item: candidate("b")})
	before := start.Clone()

	for _, op := range []cart.Op{
		cart.Add{Item: candidate("a")},
		cart.Add{Item: candidate("c")},
		cart.Increment{ID: "b"},
		cart.Decrement{ID: "a"},
		cart.Clear{},
	} {
		next, changed := cart.Reduce(start, op)
		require.True(t, changed, op.Name())
		assert.Equal(t, before, start, "input changed by %s", op.Name())
		if len(next) > 0 && len(start) > 0 {
			assert.NotSame(t, &start[0], &next[0], "%s shares backing array", op.Name())
		}
	}
}

func TestDecrementQuantityTimesRemoves(t *testing.T) {
	c := apply(t, nil, cart.Add{Item: candidate("x")})
	for i := 0; i < 3; i++ {
		c = apply(t, c, cart.Increment{ID: "x"})
	}
	item, _, ok := c.Find("x")
	require.True(t, ok)

	for i := 0; i < item.Quantity; i++ {
		c = apply(t, c, cart.Decrement{ID: "x"})
	}
	_, _, ok = c.Find("x")
	assert.False(t, ok)

	next, changed := cart.Reduce(c, cart.Decrement{ID: "x"})
	assert.False(t, changed)
	assert.True(t, next.Equal(c))
}

func TestIncrementDecrementRoundTrip(t *testing.T) {
	c := apply(t, nil, cart.Add{Item: candidate("a")}, cart.Add{Item: candidate("b")}, cart.Increment{ID: "b"})
	for _, id := range []string{"a", "b"} {
		back := apply(t, c, cart.Increment{ID: id}, cart.Decrement{ID: id})
		assert.True(t, back.Equal(c), id)
	}
}

func TestReduceRandomSequencesKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d"}

	for run := 0; run < 200; run++ {
		var c cart.Cart
		for step := 0; step < 50; step++ {
			id := ids[rnd.Intn(len(ids))]
			var op cart.Op
			switch rnd.Intn(10) {
			case 0:
				op = cart.Clear{}
			case 1, 2, 3:
				op = cart.Add{Item: candidate(id)}
			case 4, 5, 6:
				op = cart.Increment{ID: id}
			default:
				op = cart.Decrement{ID: id}
			}
			c, _ = cart.Reduce(c, op)

			seen := map[string]bool{}
			for _, item := range c {
				require.False(t, seen[item.ID], "duplicate id %s", item.ID)
				seen[item.ID] = true
				require.GreaterOrEqual(t, item.Quantity, 1)
			}
		}
	}
}

func TestCartHelpers(t *testing.T) {
	c := apply(t, nil, cart.Add{Item: candidate("a")}, cart.Add{Item: candidate("b")}, cart.Increment{ID: "a"})

	item, idx, ok := c.Find("b")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "item b", item.Title)

	_, idx, ok = c.Find("nope")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c.Units())

	clone := c.Clone()
	clone[0].Quantity = 99
	assert.Equal(t, 2, c[0].Quantity)

	var empty cart.Cart
	assert.True(t, empty.Equal(cart.Cart{}))
	assert.NotNil(t, empty.Clone())
	assert.False(t, c.Equal(clone))
}
