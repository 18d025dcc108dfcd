package counter

import (
	"context"
	"testing"

	"github.com/caravalia/reservas/internal/kvstore"
	"github.com/stretchr/testify/assert"
)

func newCounter(opts ...Option) (*Counter, kvstore.Store) {
	store := kvstore.NewAdapter(kvstore.NewMemoryBackend())
	return New(store, opts...), store
}

func TestCounter_PeekNextFromUnsetKey(t *testing.T) {
	ctx := context.Background()
	c, store := newCounter()

	assert.Equal(t, 1, c.PeekNext(ctx, "294TL"))

	raw, ok := store.Get(ctx, "last-number-294TL")
	assert.True(t, ok)
	assert.Equal(t, "0", raw)

	// peek does not persist
	assert.Equal(t, 1, c.PeekNext(ctx, "294TL"))
}

func TestCounter_Commit(t *testing.T) {
	ctx := context.Background()
	c, _ := newCounter()

	c.Commit(ctx, "294TL", 5)
	assert.Equal(t, 6, c.PeekNext(ctx, "294TL"))

	c.Commit(ctx, "294TL", 2)
	assert.Equal(t, 3, c.PeekNext(ctx, "294TL"))
}

func TestCounter_PerModel(t *testing.T) {
	ctx := context.Background()
	c, _ := newCounter()

	c.Commit(ctx, "294TL", 40)
	assert.Equal(t, 41, c.PeekNext(ctx, "294TL"))
	assert.Equal(t, 1, c.PeekNext(ctx, "294TL Automática"))
}

func TestCounter_InitialValue(t *testing.T) {
	ctx := context.Background()
	c, _ := newCounter(WithInitialValue(100))

	assert.Equal(t, 100, c.CurrentValue(ctx, "294TL"))
	assert.Equal(t, 101, c.PeekNext(ctx, "294TL"))
}

func TestCounter_CorruptValueDegradesToDefault(t *testing.T) {
	ctx := context.Background()
	c, store := newCounter()

	store.Set(ctx, "last-number-294TL", "abc")
	assert.Equal(t, 0, c.CurrentValue(ctx, "294TL"))
	assert.Equal(t, 1, c.PeekNext(ctx, "294TL"))
}

func TestCounter_CommitIfAhead(t *testing.T) {
	testCases := []struct {
		name      string
		current   int
		number    string
		committed bool
		want      int
	}{
		{name: "ahead", current: 5, number: "9", committed: true, want: 9},
		{name: "equal", current: 5, number: "5", committed: true, want: 5},
		{name: "behind", current: 5, number: "3", committed: false, want: 5},
		{name: "not numeric", current: 5, number: "A-12", committed: false, want: 5},
		{name: "padded", current: 5, number: " 7 ", committed: true, want: 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			c, _ := newCounter()
			c.Commit(ctx, "294TL", tc.current)

			assert.Equal(t, tc.committed, c.CommitIfAhead(ctx, "294TL", tc.number))
			assert.Equal(t, tc.want, c.CurrentValue(ctx, "294TL"))
		})
	}
}

func TestCounter_Session(t *testing.T) {
	ctx := context.Background()
	c, _ := newCounter()
	c.Commit(ctx, "294TL", 7)

	_, ok := c.SessionNumber(ctx, "294TL")
	assert.False(t, ok)

	c.SetSessionNumber(ctx, "294TL", "15")
	n, ok := c.SessionNumber(ctx, "294TL")
	assert.True(t, ok)
	assert.Equal(t, "15", n)
	assert.Equal(t, 8, c.PeekNext(ctx, "294TL"), "session number does not move the counter")

	c.ClearSession(ctx, "294TL")
	_, ok = c.SessionNumber(ctx, "294TL")
	assert.False(t, ok)
}
