package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/domain"
	"github.com/caravalia/reservas/internal/service/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(`
storage:
  backend: file
  file_path: "` + filepath.Join(dir, "storage.json") + `"
kafka:
  brokers: []
locale:
  timezone: UTC
export:
  dir: "` + filepath.Join(dir, "exports") + `"
business:
  models:
    - name: "294TL"
      plate: "9243MBV"
`))
	require.NoError(t, err)
	return cfg
}

func TestNewServices_UnknownStorage(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Storage.Backend = "etcd"

	_, err := NewServices(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSnapshot_ReadsWhatAnotherProcessWrote(t *testing.T) {
	cfg := fileConfig(t)
	ctx := context.Background()

	services, err := NewServices(ctx, cfg)
	require.NoError(t, err)
	defer services.Close()

	// the snapshot opens its own storage, so the file must already hold the record
	_, err = services.Reservations.SaveDetails(ctx, "294TL", reservation.DetailsInput{
		Number:     "17",
		EntryDate:  time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		ReturnDate: time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = services.Reservations.SaveCustomer(ctx, "294TL", domain.CustomerData{FullName: "Ana", NationalID: "1Z", Phone: "600"})
	require.NoError(t, err)
	_, err = services.Reservations.Save(ctx, "294TL", reservation.FinalizeInput{Number: "17"})
	require.NoError(t, err)

	path, err := Snapshot(ctx, cfg, time.Date(2024, time.June, 3, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Export.Dir, "reservations-20240603-030000.xlsx"), path)
	assert.FileExists(t, path)
}
