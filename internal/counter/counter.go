package counter

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/caravalia/reservas/internal/kvstore"
)

const (
	lastNumberPrefix = "last-number-"
	sessionPrefix    = "reservation-session-"
)

func LastNumberKey(model string) string {
	return lastNumberPrefix + model
}

func SessionKey(model string) string {
	return sessionPrefix + model
}

// Counter suggests the next reservation number per vehicle model. It never
// enforces monotonicity itself: Commit overwrites, CommitIfAhead is the guarded
// variant callers use.
type Counter struct {
	store        kvstore.Store
	initialValue int
}

type Option func(*Counter)

func WithInitialValue(v int) Option {
	return func(c *Counter) {
		c.initialValue = v
	}
}

func New(store kvstore.Store, opts ...Option) *Counter {
	c := &Counter{store: store}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentValue returns the stored counter, seeding the key with the initial
// value when it is absent.
func (c *Counter) CurrentValue(ctx context.Context, model string) int {
	key := LastNumberKey(model)

	raw, ok := c.store.Get(ctx, key)
	if !ok || raw == "" {
		c.store.Set(ctx, key, strconv.Itoa(c.initialValue))
		return c.initialValue
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("counter: %s holds %q, using %d: %v", key, raw, c.initialValue, err)
		return c.initialValue
	}
	return n
}

func (c *Counter) PeekNext(ctx context.Context, model string) int {
	return c.CurrentValue(ctx, model) + 1
}

func (c *Counter) Commit(ctx context.Context, model string, value int) {
	c.store.Set(ctx, LastNumberKey(model), strconv.Itoa(value))
}

// CommitIfAhead commits number when it parses as an integer not below the
// current value. It reports whether the counter was written.
func (c *Counter) CommitIfAhead(ctx context.Context, model, number string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return false
	}
	if n < c.CurrentValue(ctx, model) {
		return false
	}
	c.Commit(ctx, model, n)
	return true
}

// SessionNumber is the number already chosen for the in-progress booking of model.
func (c *Counter) SessionNumber(ctx context.Context, model string) (string, bool) {
	v, ok := c.store.Get(ctx, SessionKey(model))
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (c *Counter) SetSessionNumber(ctx context.Context, model, number string) {
	c.store.Set(ctx, SessionKey(model), number)
}

func (c *Counter) ClearSession(ctx context.Context, model string) {
	c.store.Remove(ctx, SessionKey(model))
}
