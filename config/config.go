package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "BOOKING"

type Config struct {
	HTTP        HTTPConfig        `yaml:"http" envconfig:"http"`
	GRPC        GRPCConfig        `yaml:"grpc" envconfig:"grpc"`
	Database    DatabaseConfig    `yaml:"database" envconfig:"database"`
	Redis       RedisConfig       `yaml:"redis" envconfig:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka" envconfig:"kafka"`
	Inventory   InventoryConfig   `yaml:"inventory" envconfig:"inventory"`
	Booking     BookingConfig     `yaml:"booking" envconfig:"booking"`
	Idempotency IdempotencyConfig `yaml:"idempotency" envconfig:"idempotency"`
	Worker      WorkerConfig      `yaml:"worker" envconfig:"worker"`
	Log         LogConfig         `yaml:"log" envconfig:"log"`
}

type HTTPConfig struct {
	Address string `yaml:"address" envconfig:"address"`
}

type GRPCConfig struct {
	Address string `yaml:"address" envconfig:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" envconfig:"host"`
	Port     int    `yaml:"port" envconfig:"port"`
	User     string `yaml:"user" envconfig:"user"`
	Password string `yaml:"password" envconfig:"password"`
	Name     string `yaml:"name" envconfig:"name"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"addr"`
	Password string `yaml:"password" envconfig:"password"`
	DB       int    `yaml:"db" envconfig:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" envconfig:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic" envconfig:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic" envconfig:"notifications_topic"`
	GroupID            string   `yaml:"group_id" envconfig:"group_id"`
}

type InventoryConfig struct {
	BaseURL          string `yaml:"base_url" envconfig:"base_url"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" envconfig:"timeout_seconds"`
	BreakerThreshold int64  `yaml:"breaker_threshold" envconfig:"breaker_threshold"`
}

func (c InventoryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type BookingConfig struct {
	PaymentWindowSeconds int `yaml:"payment_window_seconds" envconfig:"payment_window_seconds"`
}

func (c BookingConfig) PaymentWindow() time.Duration {
	return time.Duration(c.PaymentWindowSeconds) * time.Second
}

// IdempotencyConfig selects where successful payment keys are recorded.
// Backend is "postgres" or "redis".
type IdempotencyConfig struct {
	Backend  string `yaml:"backend" envconfig:"backend"`
	TTLHours int    `yaml:"ttl_hours" envconfig:"ttl_hours"`
}

func (c IdempotencyConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type WorkerConfig struct {
	SweepSchedule  string `yaml:"sweep_schedule" envconfig:"sweep_schedule"`
	SweepBatchSize int    `yaml:"sweep_batch_size" envconfig:"sweep_batch_size"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"level"`
	Format string `yaml:"format" envconfig:"format"`
}

// LoadConfig reads the YAML file at path, then applies BOOKING_* environment
// overrides (a .env file in the working directory is loaded first if present).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	_ = godotenv.Load()
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Inventory.BaseURL == "" {
		c.Inventory.BaseURL = "http://localhost:3000/api/v1"
	}
	if c.Inventory.TimeoutSeconds <= 0 {
		c.Inventory.TimeoutSeconds = 5
	}
	if c.Inventory.BreakerThreshold <= 0 {
		c.Inventory.BreakerThreshold = 5
	}
	if c.Booking.PaymentWindowSeconds <= 0 {
		c.Booking.PaymentWindowSeconds = 300
	}
	if c.Idempotency.Backend == "" {
		c.Idempotency.Backend = "postgres"
	}
	if c.Idempotency.TTLHours <= 0 {
		c.Idempotency.TTLHours = 24
	}
	if c.Worker.SweepSchedule == "" {
		c.Worker.SweepSchedule = "@every 1m"
	}
	if c.Worker.SweepBatchSize <= 0 {
		c.Worker.SweepBatchSize = 100
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "booking-notifications"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
