package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/caravalia/reservas/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (string, error) {
	return "", errors.New("quota exceeded")
}
func (failingBackend) Set(context.Context, string, string) error { return errors.New("quota exceeded") }
func (failingBackend) Delete(context.Context, string) error      { return errors.New("quota exceeded") }

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	file, err := NewFileBackend(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	sqlite, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestBackends_GetSetDelete(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get(ctx, "last-number-294TL")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Set(ctx, "last-number-294TL", "4"))
			require.NoError(t, b.Set(ctx, "last-number-294TL", "5"))

			v, err := b.Get(ctx, "last-number-294TL")
			require.NoError(t, err)
			assert.Equal(t, "5", v)

			require.NoError(t, b.Delete(ctx, "last-number-294TL"))
			require.NoError(t, b.Delete(ctx, "last-number-294TL"))

			_, err = b.Get(ctx, "last-number-294TL")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFileBackend_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "reservation-session-294TL", "12"))

	reopened, err := NewFileBackend(path)
	require.NoError(t, err)

	v, err := reopened.Get(ctx, "reservation-session-294TL")
	require.NoError(t, err)
	assert.Equal(t, "12", v)
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileBackend(path)
	assert.Error(t, err)
}

func TestAdapter_SwallowsErrors(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(failingBackend{})

	v, ok := a.Get(ctx, "all-reservations")
	assert.False(t, ok)
	assert.Empty(t, v)

	assert.NotPanics(t, func() {
		a.Set(ctx, "all-reservations", "[]")
		a.Remove(ctx, "all-reservations")
	})
}

func TestAdapter_JSON(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemoryBackend())

	type draft struct {
		Number string `json:"reservationNumber"`
	}

	var got draft
	assert.False(t, GetJSON(ctx, a, "reservation-draft", &got))

	SetJSON(ctx, a, "reservation-draft", draft{Number: "17"})
	require.True(t, GetJSON(ctx, a, "reservation-draft", &got))
	assert.Equal(t, "17", got.Number)

	a.Set(ctx, "reservation-draft", "{broken")
	assert.False(t, GetJSON(ctx, a, "reservation-draft", &got))
}

func TestOpen(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{
		Backend:    config.StorageSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "kv.db"),
	}}

	b, closeFn, err := Open(cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &SQLiteBackend{}, b)

	cfg.Storage.Backend = "etcd"
	_, closeFn, err = Open(cfg)
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	b := NewRedisBackend(config.RedisConfig{Addr: addr})
	defer b.Close()
	require.NoError(t, b.Ping(ctx))

	client := redis.NewClient(&redis.Options{Addr: addr})
	shared := NewRedisBackendWithClient(client)
	defer shared.Close()
	require.NoError(t, shared.Ping(ctx))

	require.NoError(t, b.Set(ctx, "test-key", "value"))
	v, err := shared.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	raw, err := client.Get(ctx, "reservas:test-key").Result()
	require.NoError(t, err)
	assert.Equal(t, "value", raw, "keys are namespaced")

	require.NoError(t, shared.Delete(ctx, "test-key"))
	_, err = b.Get(ctx, "test-key")
	assert.ErrorIs(t, err, ErrNotFound)
}
