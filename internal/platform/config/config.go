package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppEnv        string
	HTTPPort      string
	LogLevel      string
	StoreDriver   string
	PublicBaseURL string

	Database Database
	Redis    Redis
	Core     Core
}

type Database struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

type Redis struct {
	Host string
	Port string
}

// Enabled is false when no redis host is configured; the service then falls
// back to no-op cache and notifier.
func (r Redis) Enabled() bool { return r.Host != "" }

func (r Redis) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

type Core struct {
	OfferWindow       time.Duration
	CheckinCodeLength int
	InviteCodeLength  int
	OfferCodeLength   int
	CodeMaxAttempts   int
	RetryAttempts     int
	CapacityCacheTTL  time.Duration
	SweepInterval     time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "local")
	v.SetDefault("http_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("store_driver", StoreDriverPostgres)
	v.SetDefault("public_base_url", "http://localhost:8080")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "eventpass")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 25)

	v.SetDefault("redis_host", "")
	v.SetDefault("redis_port", "6379")

	v.SetDefault("offer_window", 30*time.Minute)
	v.SetDefault("checkin_code_length", 6)
	v.SetDefault("invite_code_length", 8)
	v.SetDefault("offer_code_length", 10)
	v.SetDefault("code_max_attempts", 8)
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("capacity_cache_ttl", 30*time.Second)
	v.SetDefault("sweep_interval", time.Minute)
}

// Load reads envFile (if present) into the process environment and then
// resolves every setting from the environment over the defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Info("env file not loaded, using process environment", "file", envFile)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		AppEnv:        v.GetString("app_env"),
		HTTPPort:      v.GetString("http_port"),
		LogLevel:      v.GetString("log_level"),
		StoreDriver:   strings.ToLower(v.GetString("store_driver")),
		PublicBaseURL: strings.TrimRight(v.GetString("public_base_url"), "/"),
		Database: Database{
			Host:         v.GetString("db_host"),
			Port:         v.GetString("db_port"),
			User:         v.GetString("db_user"),
			Password:     v.GetString("db_password"),
			DBName:       v.GetString("db_name"),
			SSLMode:      v.GetString("db_sslmode"),
			MaxOpenConns: v.GetInt("db_max_open_conns"),
		},
		Redis: Redis{
			Host: v.GetString("redis_host"),
			Port: v.GetString("redis_port"),
		},
		Core: Core{
			OfferWindow:       v.GetDuration("offer_window"),
			CheckinCodeLength: v.GetInt("checkin_code_length"),
			InviteCodeLength:  v.GetInt("invite_code_length"),
			OfferCodeLength:   v.GetInt("offer_code_length"),
			CodeMaxAttempts:   v.GetInt("code_max_attempts"),
			RetryAttempts:     v.GetInt("retry_attempts"),
			CapacityCacheTTL:  v.GetDuration("capacity_cache_ttl"),
			SweepInterval:     v.GetDuration("sweep_interval"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Core.OfferWindow <= 0 {
		return fmt.Errorf("config: OFFER_WINDOW must be positive")
	}
	if c.Core.CheckinCodeLength < 4 || c.Core.InviteCodeLength < 4 || c.Core.OfferCodeLength < 4 {
		return fmt.Errorf("config: code lengths must be at least 4")
	}
	if c.Core.RetryAttempts < 1 {
		return fmt.Errorf("config: RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}
