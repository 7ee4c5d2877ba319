package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address             string `yaml:"address"`
	SwaggerDir          string `yaml:"swagger_dir"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// DSN returns URL when set, otherwise a keyword/value string built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type BookingConfig struct {
	DefaultTimezone   string `yaml:"default_timezone"`
	ClassesCacheTTL   int    `yaml:"classes_cache_ttl_seconds"`
	SeedSampleClasses bool   `yaml:"seed_sample_classes"`
}

func (b BookingConfig) CacheTTL() time.Duration {
	return time.Duration(b.ClassesCacheTTL) * time.Second
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:             ":8000",
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "fitness_studio",
			SSLMode:  "disable",
			MaxConns: 20,
			MinConns: 2,
		},
		Kafka: KafkaConfig{
			BookingTopic:       "fitness.bookings",
			NotificationsTopic: "fitness.notifications",
			GroupID:            "fitbooking-worker",
		},
		Booking: BookingConfig{
			DefaultTimezone: "Asia/Kolkata",
			ClassesCacheTTL: 30,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("HTTP_ADDRESS"); ok {
		cfg.HTTP.Address = v
	}
	if v, ok := lookup("GRPC_ADDRESS"); ok {
		cfg.GRPC.Address = v
	}
	if v, ok := lookup("STORAGE_DRIVER"); ok {
		cfg.Database.Driver = v
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		cfg.Database.URL = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitCSV(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required"))
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL != "" {
			if _, err := url.Parse(c.Database.URL); err != nil {
				errs = append(errs, fmt.Errorf("database.url: %w", err))
			}
		} else if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.host and database.name are required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver))
	}
	if c.Booking.DefaultTimezone == "" {
		errs = append(errs, errors.New("booking.default_timezone is required"))
	} else if _, err := time.LoadLocation(c.Booking.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("booking.default_timezone: %w", err))
	}
	if c.Booking.ClassesCacheTTL < 0 {
		errs = append(errs, errors.New("booking.classes_cache_ttl_seconds must not be negative"))
	}
	if c.Kafka.Enabled() && c.Kafka.BookingTopic == "" {
		errs = append(errs, errors.New("kafka.booking_topic is required when brokers are set"))
	}

	return errors.Join(errs...)
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
