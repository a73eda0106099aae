package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/sourcing/internal/apperr"
	"github.com/Simplici0/sourcing/internal/fxrate"
	"github.com/Simplici0/sourcing/internal/logging"
	"github.com/Simplici0/sourcing/internal/pricing"
)

const envDevelopment = "development"

// Config holds application configuration. Values come from struct defaults,
// then an optional YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	Env           string `yaml:"env" default:"development"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	SessionSecret string `yaml:"session_secret"`
	DBPath        string `yaml:"db_path" default:"./dev.db"`
	Port          string `yaml:"port" default:"8080"`

	Log     logging.Config `yaml:"log"`
	FX      FXConfig       `yaml:"fx"`
	Redis   RedisConfig    `yaml:"redis"`
	Pricing PricingConfig  `yaml:"pricing"`
}

// FXConfig configures the live exchange-rate feed.
type FXConfig struct {
	URL          string        `yaml:"url" default:"https://open.er-api.com/v6/latest/SGD"`
	Currency     string        `yaml:"currency" default:"CNY"`
	Timeout      time.Duration `yaml:"timeout" default:"3s"`
	FallbackRate float64       `yaml:"fallback_rate" default:"5.35"`
	CacheTTL     time.Duration `yaml:"cache_ttl" default:"1h"`
}

// RedisConfig configures the rate cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PricingConfig holds the pricing defaults used until the stored settings say otherwise.
type PricingConfig struct {
	AirChannel  string           `yaml:"air_channel" default:"air-general"`
	DomesticFee float64          `yaml:"domestic_fee"`
	AdFraction  float64          `yaml:"ad_fraction"`
	Fees        pricing.FeeModel `yaml:"fees"`
}

// Load reads configuration from defaults, CONFIG_FILE and the environment.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit YAML file. An empty path falls back to
// CONFIG_FILE.
func LoadFile(path string) (Config, error) {
	// Local development only; production injects real environment variables.
	if _, err := loadDotEnv(".env"); err != nil {
		return Config{}, apperr.Config("read .env", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, apperr.Config("apply config defaults", err)
	}

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return apperr.Config("read config file", err).WithContext("path", path)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return apperr.Config("parse config file", err).WithContext("path", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.AdminEmail, "ADMIN_EMAIL")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.DBPath, "DB_PATH")
	setString(&cfg.Port, "PORT")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.FX.URL, "FX_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Pricing.AirChannel, "AIR_CHANNEL")

	if v := os.Getenv("FX_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("FX_TIMEOUT", err)
		}
		cfg.FX.Timeout = d
	}
	if err := setFloat(&cfg.FX.FallbackRate, "FX_FALLBACK_RATE"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Pricing.DomesticFee, "DOMESTIC_FEE"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Pricing.AdFraction, "AD_FRACTION"); err != nil {
		return err
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("REDIS_DB", err)
		}
		cfg.Redis.DB = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return envError(key, err)
	}
	*dst = f
	return nil
}

func envError(key string, err error) error {
	return apperr.Config(fmt.Sprintf("invalid %s", key), err)
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, envDevelopment) || c.Env == "dev"
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set")
	}
	return out
}

// PricingDefaults converts the configured pricing defaults into engine settings at rate.
func (c Config) PricingDefaults(rate pricing.Rate) pricing.Settings {
	return pricing.Settings{
		ExchangeRate: rate,
		AirChannel:   pricing.Channel(c.Pricing.AirChannel),
		DomesticFee:  pricing.SourceAmount(c.Pricing.DomesticFee),
		AdFraction:   c.Pricing.AdFraction,
		Fees:         c.Pricing.Fees,
	}
}

// RateOptions maps the FX and Redis sections onto the rate provider options.
func (c Config) RateOptions() (fxrate.Options, fxrate.CacheOptions) {
	return fxrate.Options{
			URL:      c.FX.URL,
			Currency: c.FX.Currency,
			Timeout:  c.FX.Timeout,
			Fallback: pricing.Rate(c.FX.FallbackRate),
		}, fxrate.CacheOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			TTL:      c.FX.CacheTTL,
		}
}
