// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nyaruka/phonenumbers"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/codr1/Courtside/internal/schedule"
)

const (
	AuthProviderLocal   = "local"
	AuthProviderCognito = "cognito"

	DefaultConfigPath = "config.yaml"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type ClubConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
	Locale   string `yaml:"locale"`
}

type CalendarConfig struct {
	StartHour   int           `yaml:"start_hour"`
	EndHour     int           `yaml:"end_hour"`
	LiveRefresh time.Duration `yaml:"live_refresh"`
}

type ClientsConfig struct {
	PhoneRegion   string `yaml:"phone_region"`
	AggregateCron string `yaml:"aggregate_cron"`
}

type AuthConfig struct {
	Provider   string        `yaml:"provider"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Cognito    struct {
		PoolID   string `yaml:"pool_id"`
		ClientID string `yaml:"client_id"`
	} `yaml:"cognito"`
	MaxAttemptsPerEmail int           `yaml:"max_attempts_per_email"`
	Lockout             time.Duration `yaml:"lockout"`
	MaxAttemptsPerIP    int           `yaml:"max_attempts_per_ip"`
	IPWindow            time.Duration `yaml:"ip_window"`
}

type EmailConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // Loaded from environment
}

type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exchange string `yaml:"exchange"`
	URL      string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Club     ClubConfig     `yaml:"club"`
	Calendar CalendarConfig `yaml:"calendar"`
	Clients  ClientsConfig  `yaml:"clients"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Redis    RedisConfig    `yaml:"redis"`
	Events   EventsConfig   `yaml:"events"`

	Features struct {
		EnableDebug bool `yaml:"enable_debug"`
		LiveUpdates bool `yaml:"live_updates"`
	} `yaml:"features"`

	location *time.Location
	locale   schedule.Locale
}

// Default returns a config with every optional field filled in.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Courtside"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Filename == "" {
		c.Database.Filename = "data/courtside.db"
	}
	if c.Club.Timezone == "" {
		c.Club.Timezone = "Local"
	}
	if c.Club.Locale == "" {
		c.Club.Locale = "en"
	}
	if c.Calendar.StartHour == 0 && c.Calendar.EndHour == 0 {
		c.Calendar.StartHour = 8
		c.Calendar.EndHour = 24
	}
	if c.Calendar.LiveRefresh == 0 {
		c.Calendar.LiveRefresh = time.Minute
	}
	if c.Clients.PhoneRegion == "" {
		c.Clients.PhoneRegion = "AR"
	}
	if c.Clients.AggregateCron == "" {
		c.Clients.AggregateCron = "*/15 * * * *"
	}
	if c.Auth.Provider == "" {
		c.Auth.Provider = AuthProviderLocal
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 8 * time.Hour
	}
	if c.Auth.MaxAttemptsPerEmail == 0 {
		c.Auth.MaxAttemptsPerEmail = 5
	}
	if c.Auth.Lockout == 0 {
		c.Auth.Lockout = 15 * time.Minute
	}
	if c.Auth.MaxAttemptsPerIP == 0 {
		c.Auth.MaxAttemptsPerIP = 30
	}
	if c.Auth.IPWindow == 0 {
		c.Auth.IPWindow = time.Hour
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "courtside.events"
	}
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults, reads secrets from the environment
// and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Events.URL = os.Getenv("AMQP_URL")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app port must be between 1 and 65535")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	// Validate based on database driver
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	loc, err := time.LoadLocation(c.Club.Timezone)
	if err != nil {
		return fmt.Errorf("invalid club timezone %q: %w", c.Club.Timezone, err)
	}
	locale, err := schedule.ParseLocale(c.Club.Locale)
	if err != nil {
		return fmt.Errorf("invalid club locale: %w", err)
	}

	if c.Calendar.StartHour < 0 || c.Calendar.EndHour > 24 || c.Calendar.StartHour >= c.Calendar.EndHour {
		return fmt.Errorf("calendar hours must satisfy 0 <= start_hour < end_hour <= 24")
	}
	if c.Calendar.LiveRefresh < time.Second {
		return fmt.Errorf("calendar live_refresh must be at least 1s")
	}

	region := strings.ToUpper(strings.TrimSpace(c.Clients.PhoneRegion))
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return fmt.Errorf("unknown clients phone_region %q", c.Clients.PhoneRegion)
	}
	c.Clients.PhoneRegion = region
	if _, err := cron.ParseStandard(c.Clients.AggregateCron); err != nil {
		return fmt.Errorf("invalid clients aggregate_cron: %w", err)
	}

	switch c.Auth.Provider {
	case AuthProviderLocal:
		if len(c.App.SecretKey) < 16 {
			return fmt.Errorf("APP_SECRET_KEY must be at least 16 bytes for local auth")
		}
	case AuthProviderCognito:
		if c.Auth.Cognito.PoolID == "" || c.Auth.Cognito.ClientID == "" {
			return fmt.Errorf("cognito pool_id and client_id are required")
		}
	default:
		return fmt.Errorf("unsupported auth provider: %s", c.Auth.Provider)
	}
	if c.Auth.SessionTTL < time.Minute {
		return fmt.Errorf("auth session_ttl must be at least 1m")
	}
	if c.Auth.MaxAttemptsPerEmail < 1 || c.Auth.MaxAttemptsPerIP < 1 {
		return fmt.Errorf("auth attempt limits must be positive")
	}

	if c.Email.Enabled {
		if c.Email.Region == "" || c.Email.Sender == "" {
			return fmt.Errorf("email region and sender are required when email is enabled")
		}
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("AMQP_URL is required when events are enabled")
	}

	c.location = loc
	c.locale = locale
	return nil
}

// Location is the club timezone. Only valid after Validate.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Locale is the club locale used for weekday labels. Only valid after Validate.
func (c *Config) Locale() schedule.Locale {
	if c.locale == "" {
		return schedule.LocaleEnglish
	}
	return c.locale
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
