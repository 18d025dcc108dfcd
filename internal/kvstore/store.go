package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"
)

var ErrNotFound = errors.New("key not found")

// Backend is a raw string key/value storage. Get returns ErrNotFound for absent keys.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is what the counter, the repository and the wizard drafts depend on.
// Failures are never returned: a failed read looks like a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Remove(ctx context.Context, key string)
}

type Adapter struct {
	backend Backend
}

var _ Store = (*Adapter)(nil)

func NewAdapter(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

func (a *Adapter) Get(ctx context.Context, key string) (string, bool) {
	value, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("kvstore: get %q: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (a *Adapter) Set(ctx context.Context, key, value string) {
	if err := a.backend.Set(ctx, key, value); err != nil {
		log.Printf("kvstore: set %q: %v", key, err)
	}
}

func (a *Adapter) Remove(ctx context.Context, key string) {
	if err := a.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("kvstore: remove %q: %v", key, err)
	}
}

// GetJSON decodes the value under key into dst. It reports false when the key
// is absent or holds something that does not decode.
func GetJSON(ctx context.Context, s Store, key string, dst any) bool {
	raw, ok := s.Get(ctx, key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Printf("kvstore: decode %q: %v", key, err)
		return false
	}
	return true
}

func SetJSON(ctx context.Context, s Store, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("kvstore: encode %q: %v", key, err)
		return
	}
	s.Set(ctx, key, string(data))
}
