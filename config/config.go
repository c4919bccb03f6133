// Package config loads the immutable process configuration. Values come from
// defaults, then an optional YAML file named by CONFIG_FILE, then the
// environment (a .env file is loaded first when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`

	StoreDriver  string `yaml:"store_driver"`
	MongoURI     string `yaml:"mongodb_uri"`
	DatabaseName string `yaml:"database_name"`
	PostgresDSN  string `yaml:"postgres_dsn"`

	AccessTokenSecret  string        `yaml:"access_token_secret"`
	AccessTokenTTL     time.Duration `yaml:"-"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret"`
	RefreshTokenTTL    time.Duration `yaml:"-"`

	CookieSecure bool   `yaml:"cookie_secure"`
	CookieDomain string `yaml:"cookie_domain"`

	RedisAddr        string        `yaml:"redis_addr"`
	LoginMaxAttempts int           `yaml:"login_max_attempts"`
	LoginCooldown    time.Duration `yaml:"-"`

	Media MediaConfig `yaml:"media"`
	Seed  SeedConfig  `yaml:"seed"`
}

type MediaConfig struct {
	Backend            string `yaml:"backend"` // "r2", "gcs" or empty
	R2Bucket           string `yaml:"r2_bucket"`
	R2AccessKeyID      string `yaml:"r2_access_key_id"`
	R2SecretAccessKey  string `yaml:"r2_secret_access_key"`
	R2Endpoint         string `yaml:"r2_endpoint"`
	R2PublicDomain     string `yaml:"r2_public_domain"`
	GCSBucket          string `yaml:"gcs_bucket"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`
}

type SeedConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// fileConfig mirrors the YAML document; durations are strings there so they
// can use the same "15m" / "10d" syntax as the environment.
type fileConfig struct {
	Config             `yaml:",inline"`
	AccessTokenExpiry  string `yaml:"access_token_expiry"`
	RefreshTokenExpiry string `yaml:"refresh_token_expiry"`
	LoginCooldown      string `yaml:"login_cooldown"`
}

func (c *Config) LoadDefaults() {
	c.Port = "8000"
	c.LogLevel = "info"
	c.StoreDriver = "mongo"
	c.MongoURI = "mongodb://localhost:27017"
	c.DatabaseName = "sessionauth"
	c.CookieSecure = true
	c.LoginMaxAttempts = 5
	c.LoginCooldown = 15 * time.Minute
}

// Load builds the configuration and validates it. A validation error is a
// startup failure; callers should exit.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.LoadDefaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	*c = fc.Config

	durations := []struct {
		raw  string
		dest *time.Duration
		name string
	}{
		{fc.AccessTokenExpiry, &c.AccessTokenTTL, "access_token_expiry"},
		{fc.RefreshTokenExpiry, &c.RefreshTokenTTL, "refresh_token_expiry"},
		{fc.LoginCooldown, &c.LoginCooldown, "login_cooldown"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dest = v
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.StoreDriver, "STORE_DRIVER")
	setString(&c.MongoURI, "MONGODB_URI")
	setString(&c.DatabaseName, "DATABASE_NAME")
	setString(&c.PostgresDSN, "POSTGRES_DSN")
	setString(&c.AccessTokenSecret, "ACCESS_TOKEN_SECRET")
	setString(&c.RefreshTokenSecret, "REFRESH_TOKEN_SECRET")
	setString(&c.CookieDomain, "COOKIE_DOMAIN")
	setString(&c.RedisAddr, "REDIS_ADDR")

	setString(&c.Media.Backend, "MEDIA_BACKEND")
	setString(&c.Media.R2Bucket, "R2_BUCKET")
	setString(&c.Media.R2AccessKeyID, "R2_ACCESS_KEY_ID")
	setString(&c.Media.R2SecretAccessKey, "R2_SECRET_ACCESS_KEY")
	setString(&c.Media.R2Endpoint, "R2_ENDPOINT")
	setString(&c.Media.R2PublicDomain, "R2_PUBLIC_DOMAIN")
	setString(&c.Media.GCSBucket, "GCS_BUCKET")
	setString(&c.Media.GCSCredentialsFile, "CREDENTIALS_FILE_LOCATION")

	setString(&c.Seed.Username, "SEED_USERNAME")
	setString(&c.Seed.Email, "SEED_EMAIL")
	setString(&c.Seed.Password, "SEED_PASSWORD")

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	if v := os.Getenv("LOGIN_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOGIN_MAX_ATTEMPTS: %w", err)
		}
		c.LoginMaxAttempts = n
	}

	for name, dest := range map[string]*time.Duration{
		"ACCESS_TOKEN_EXPIRY":  &c.AccessTokenTTL,
		"REFRESH_TOKEN_EXPIRY": &c.RefreshTokenTTL,
		"LOGIN_COOLDOWN":       &c.LoginCooldown,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dest = d
	}
	return nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRY is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.LoginMaxAttempts > 0 && c.LoginCooldown <= 0 {
		errs = append(errs, errors.New("LOGIN_COOLDOWN must be positive when LOGIN_MAX_ATTEMPTS is set"))
	}
	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo store"))
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres store"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.Media.Backend {
	case "", "r2", "gcs":
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_BACKEND %q", c.Media.Backend))
	}
	return errors.Join(errs...)
}

// ParseDuration accepts Go durations ("15m", "1h") and whole days ("10d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d, nil
}

func setString(dest *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dest = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
