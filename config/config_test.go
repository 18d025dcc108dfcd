package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  address: \":9999\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Address)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, RepositoryKV, cfg.Repository.Backend)
	assert.Equal(t, 0.30, cfg.Pricing.DepositRate)
	assert.Equal(t, 10.0, cfg.Pricing.DepositRoundTo)
	assert.Equal(t, 900.0, cfg.Business.SecurityDeposit)
	assert.Equal(t, "Europe/Madrid", cfg.Locale.Timezone)
	assert.Equal(t, "html", cfg.Export.DocumentExt)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Parse([]byte("storage:\n  backend: memory\n"))
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{name: "unknown storage", yaml: "storage:\n  backend: etcd\n"},
		{name: "unknown repository", yaml: "repository:\n  backend: mongo\n"},
		{name: "deposit rate above one", yaml: "pricing:\n  deposit_rate: 1.5\n"},
		{name: "negative rounding", yaml: "pricing:\n  deposit_round_to: -10\n"},
		{name: "bad snapshot schedule", yaml: "export:\n  snapshot_schedule: \"every night\"\n"},
		{name: "broken yaml", yaml: "http: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `business:
  models:
    - name: "294TL"
      plate: "9243MBV"
    - name: "294TL Automática"
      plate: "5957MXW"
      aliases: ["294TL-Automatica"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9243MBV", cfg.Business.Plate("294TL"))
	assert.Equal(t, "5957MXW", cfg.Business.Plate("294TL Automática"))
	assert.Equal(t, "5957MXW", cfg.Business.Plate("294TL-Automatica"))
	assert.Equal(t, "", cfg.Business.Plate("Unknown"))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())

	d.URL = "postgres://u:p@db/n"
	assert.Equal(t, "postgres://u:p@db/n", d.DSN())
}

func TestLocale_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	assert.Equal(t, "UTC", LocaleConfig{Timezone: "Mars/Olympus"}.Location().String())
}
