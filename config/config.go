package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Repository RepositoryConfig `yaml:"repository"`
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Business   BusinessConfig   `yaml:"business"`
	Locale     LocaleConfig     `yaml:"locale"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Export     ExportConfig     `yaml:"export"`
	Notify     NotifyConfig     `yaml:"notify"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type StorageConfig struct {
	Backend    string `yaml:"backend"`
	FilePath   string `yaml:"file_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

const (
	RepositoryKV       = "kv"
	RepositoryPostgres = "postgres"
)

type RepositoryConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	// URL takes precedence over the discrete fields when set.
	URL string `yaml:"url"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationTopic   string   `yaml:"reservation_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.ReservationTopic != ""
}

type PricingConfig struct {
	DepositRate    float64 `yaml:"deposit_rate"`
	DepositRoundTo float64 `yaml:"deposit_round_to"`
}

type VehicleModel struct {
	Name    string   `yaml:"name"`
	Plate   string   `yaml:"plate"`
	Aliases []string `yaml:"aliases"`
}

type BusinessConfig struct {
	Name             string         `yaml:"name"`
	CalendarLocation string         `yaml:"calendar_location"`
	SecurityDeposit  float64        `yaml:"security_deposit"`
	DailyKmLimit     int            `yaml:"daily_km_limit"`
	SignedBy         string         `yaml:"signed_by"`
	Footer           string         `yaml:"footer"`
	Models           []VehicleModel `yaml:"models"`
}

type LocaleConfig struct {
	Timezone string `yaml:"timezone"`
}

// Location resolves the configured timezone, falling back to UTC.
func (l LocaleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		log.Printf("config: unknown timezone %q, using UTC: %v", l.Timezone, err)
		return time.UTC
	}
	return loc
}

type CalendarConfig struct {
	BaseURL string `yaml:"base_url"`
}

type ExportConfig struct {
	Dir              string `yaml:"dir"`
	DocumentExt      string `yaml:"document_ext"`
	SnapshotSchedule string `yaml:"snapshot_schedule"`
}

type NotifyConfig struct {
	TwilioAccountSID string `yaml:"twilio_account_sid"`
	TwilioAuthToken  string `yaml:"twilio_auth_token"`
	SMSFrom          string `yaml:"sms_from"`
	WhatsAppFrom     string `yaml:"whatsapp_from"`
}

func (n NotifyConfig) TwilioEnabled() bool {
	return n.TwilioAccountSID != "" && n.TwilioAuthToken != ""
}

func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies env overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		c.HTTP.Address = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("REPOSITORY_BACKEND"); v != "" {
		c.Repository.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		c.Notify.TwilioAccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Notify.TwilioAuthToken = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageFile
	}
	if c.Storage.FilePath == "" {
		c.Storage.FilePath = "data/storage.json"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/storage.db"
	}
	if c.Repository.Backend == "" {
		c.Repository.Backend = RepositoryKV
	}
	if c.Pricing.DepositRate == 0 {
		c.Pricing.DepositRate = 0.30
	}
	if c.Pricing.DepositRoundTo == 0 {
		c.Pricing.DepositRoundTo = 10
	}
	if c.Business.Name == "" {
		c.Business.Name = "Caravalia"
	}
	if c.Business.CalendarLocation == "" {
		c.Business.CalendarLocation = c.Business.Name
	}
	if c.Business.SecurityDeposit == 0 {
		c.Business.SecurityDeposit = 900
	}
	if c.Business.DailyKmLimit == 0 {
		c.Business.DailyKmLimit = 300
	}
	if c.Locale.Timezone == "" {
		c.Locale.Timezone = "Europe/Madrid"
	}
	if c.Calendar.BaseURL == "" {
		c.Calendar.BaseURL = "https://calendar.google.com/calendar/render"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "exports"
	}
	if c.Export.DocumentExt == "" {
		c.Export.DocumentExt = "html"
	}
	if c.Export.SnapshotSchedule == "" {
		c.Export.SnapshotSchedule = "0 3 * * *"
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageFile, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Repository.Backend {
	case RepositoryKV, RepositoryPostgres:
	default:
		return fmt.Errorf("unknown repository backend %q", c.Repository.Backend)
	}
	if c.Pricing.DepositRate < 0 || c.Pricing.DepositRate > 1 {
		return fmt.Errorf("deposit rate must be within [0, 1], got %v", c.Pricing.DepositRate)
	}
	if c.Pricing.DepositRoundTo <= 0 {
		return errors.New("deposit rounding step must be positive")
	}
	if _, err := cron.ParseStandard(c.Export.SnapshotSchedule); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", c.Export.SnapshotSchedule, err)
	}
	return nil
}

// Plate returns the licence plate configured for a vehicle model name or one of its aliases.
func (b BusinessConfig) Plate(model string) string {
	for _, m := range b.Models {
		if m.Name == model {
			return m.Plate
		}
		for _, alias := range m.Aliases {
			if alias == model {
				return m.Plate
			}
		}
	}
	return ""
}
