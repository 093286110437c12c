package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/refund"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP           HTTPConfig      `yaml:"http"`
	Database       DatabaseConfig  `yaml:"database"`
	Redis          RedisConfig     `yaml:"redis"`
	Kafka          KafkaConfig     `yaml:"kafka"`
	Booking        BookingConfig   `yaml:"booking"`
	Worker         WorkerConfig    `yaml:"worker"`
	Log            LogConfig       `yaml:"log"`
	RefundPolicies []refund.Policy `yaml:"refund_policies" validate:"dive"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gt=0"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `yaml:"max_conns" validate:"gte=0"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers" validate:"required,min=1"`
	CommandsTopic string   `yaml:"commands_topic" validate:"required"`
	GroupID       string   `yaml:"group_id" validate:"required"`
}

type BookingConfig struct {
	HoldTTL         time.Duration `yaml:"hold_ttl" validate:"gt=0"`
	HoldExtension   time.Duration `yaml:"hold_extension" validate:"gt=0"`
	DuplicateWindow time.Duration `yaml:"duplicate_window" validate:"gt=0"`
	LockTTL         time.Duration `yaml:"lock_ttl" validate:"gt=0"`
	FlightsCacheTTL time.Duration `yaml:"flights_cache_ttl" validate:"gt=0"`
	// DefaultTaxRate applies to flights without their own rate.
	DefaultTaxRate *decimal.Decimal `yaml:"default_tax_rate"`
}

type WorkerConfig struct {
	HoldSweepSpec    string        `yaml:"hold_sweep_spec" validate:"required"`
	SeatConflictSpec string        `yaml:"seat_conflict_spec" validate:"required"`
	OutboxRelaySpec  string        `yaml:"outbox_relay_spec" validate:"required"`
	OutboxBatchSize  int           `yaml:"outbox_batch_size" validate:"gt=0"`
	CommandDedupeTTL time.Duration `yaml:"command_dedupe_ttl" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// LoadConfig reads the YAML file at path. A .env file next to the process is loaded first
// and ${VAR} references in the YAML are expanded from the environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.CommandsTopic == "" {
		c.Kafka.CommandsTopic = "booking-commands"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "booking-notifier"
	}
	if c.Booking.HoldTTL == 0 {
		c.Booking.HoldTTL = 24 * time.Hour
	}
	if c.Booking.HoldExtension == 0 {
		c.Booking.HoldExtension = 24 * time.Hour
	}
	if c.Booking.DuplicateWindow == 0 {
		c.Booking.DuplicateWindow = 30 * time.Minute
	}
	if c.Booking.LockTTL == 0 {
		c.Booking.LockTTL = 10 * time.Second
	}
	if c.Booking.FlightsCacheTTL == 0 {
		c.Booking.FlightsCacheTTL = time.Minute
	}
	if c.Booking.DefaultTaxRate == nil {
		rate := decimal.RequireFromString("0.15")
		c.Booking.DefaultTaxRate = &rate
	}
	if c.Worker.HoldSweepSpec == "" {
		c.Worker.HoldSweepSpec = "@every 1m"
	}
	if c.Worker.SeatConflictSpec == "" {
		c.Worker.SeatConflictSpec = "@every 5m"
	}
	if c.Worker.OutboxRelaySpec == "" {
		c.Worker.OutboxRelaySpec = "@every 15s"
	}
	if c.Worker.OutboxBatchSize == 0 {
		c.Worker.OutboxBatchSize = 100
	}
	if c.Worker.CommandDedupeTTL == 0 {
		c.Worker.CommandDedupeTTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}
