package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/2beens/garminpartner/pkg"

	"github.com/BurntSushi/toml"
)

const (
	SessionStoreFile  = "file"
	SessionStoreRedis = "redis"

	HistoryNone     = "none"
	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
)

type Config struct {
	// garmin endpoints
	SSOURL              string `toml:"sso_url"`
	ConnectURL          string `toml:"connect_url"`
	APIURL              string `toml:"api_url"`
	OAuthConsumerURL    string `toml:"oauth_consumer_url"`
	OAuthConsumerKey    string `toml:"oauth_consumer_key"`
	OAuthConsumerSecret string `toml:"oauth_consumer_secret"`
	UserAgent           string `toml:"user_agent"`
	SSOUserAgent        string `toml:"sso_user_agent"`

	// http
	HTTPTimeout       Duration `toml:"http_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	MaxRetries        uint64   `toml:"max_retries"`
	CacheSizeMB       int      `toml:"cache_size_mb"`
	CacheTTL          Duration `toml:"cache_ttl"`

	// session
	TokenRefreshBuffer Duration `toml:"token_refresh_buffer"`
	OAuth1TTL          Duration `toml:"oauth1_ttl"`
	SessionStore       string   `toml:"session_store"`
	SessionFilePath    string   `toml:"session_file_path"`
	SessionProfile     string   `toml:"session_profile"`
	RedisHost          string   `toml:"redis_host"`
	RedisPort          string   `toml:"redis_port"`
	RedisDB            int      `toml:"redis_db"`

	// upload history
	HistoryDriver  string `toml:"history_driver"`
	SQLitePath     string `toml:"sqlite_path"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// telemetry
	HoneycombEnabled bool   `toml:"honeycomb_enabled"`
	PushgatewayURL   string `toml:"pushgateway_url"`

	// secrets, never read from the TOML file
	Email             string `toml:"-"`
	Password          string `toml:"-"`
	SessionPassphrase string `toml:"-"`
	RedisPassword     string `toml:"-"`
	SentryDSN         string `toml:"-"`
	HoneycombAPIKey   string `toml:"-"`
	Environment       string `toml:"-"`
}

// Duration lets TOML values like "15s" decode into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	name, err := envName(env)
	if err != nil {
		return nil, err
	}

	cfg := t.Production
	if name == "development" {
		cfg = t.Development
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}

	return cfg, nil
}

// Load reads the TOML file, picks the section for env, applies defaults
// and environment secrets, and validates the result.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	// t.Get already rejected unknown names
	cfg.Environment, _ = envName(env)
	cfg.ApplyDefaults()
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a config usable without a file, pointing at the real Garmin hosts.
func Default() *Config {
	cfg := &Config{Environment: "production"}
	cfg.ApplyDefaults()
	return cfg
}

// FromEnv is Default for the given env, with secrets read through lookup
// and home paths expanded.
func FromEnv(env string, lookup func(string) string) (*Config, error) {
	name, err := envName(env)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Environment = name
	cfg.ApplyEnv(lookup)
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	setString(&c.SSOURL, "https://sso.garmin.com")
	setString(&c.ConnectURL, "https://connect.garmin.com")
	setString(&c.APIURL, "https://connectapi.garmin.com")
	setString(&c.OAuthConsumerURL, "https://thegarth.s3.amazonaws.com/oauth_consumer.json")
	setString(&c.UserAgent, "com.garmin.android.apps.connectmobile")
	setString(&c.SSOUserAgent, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	setString(&c.SessionStore, SessionStoreFile)
	setString(&c.SessionFilePath, "~/.garminpartner/session.bin")
	setString(&c.SessionProfile, "default")
	setString(&c.RedisHost, "localhost")
	setString(&c.RedisPort, "6379")
	setString(&c.HistoryDriver, HistorySQLite)
	setString(&c.SQLitePath, "~/.garminpartner/history.db")
	setString(&c.PostgresHost, "localhost")
	setString(&c.PostgresPort, "5432")
	setString(&c.PostgresDBName, "garminpartner")
	setString(&c.LogLevel, "info")

	if c.HTTPTimeout.Duration == 0 {
		c.HTTPTimeout.Duration = 30 * time.Second
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 2
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.CacheSizeMB == 0 {
		c.CacheSizeMB = 5
	}
	if c.CacheTTL.Duration == 0 {
		c.CacheTTL.Duration = 5 * time.Minute
	}
	if c.TokenRefreshBuffer.Duration == 0 {
		c.TokenRefreshBuffer.Duration = time.Minute
	}
	if c.OAuth1TTL.Duration == 0 {
		c.OAuth1TTL.Duration = 365 * 24 * time.Hour
	}
}

// ApplyEnv reads secrets from the environment, lookup is usually os.Getenv.
func (c *Config) ApplyEnv(lookup func(string) string) {
	c.Email = lookup("GARMIN_EMAIL")
	c.Password = lookup("GARMIN_PASSWORD")
	c.SessionPassphrase = lookup("GARMINPARTNER_PASSPHRASE")
	c.RedisPassword = lookup("GARMINPARTNER_REDIS_PASS")
	c.SentryDSN = lookup("SENTRY_DSN")
	c.HoneycombAPIKey = lookup("HONEYCOMB_API_KEY")
}

func (c *Config) Validate() error {
	var problems []string

	switch c.SessionStore {
	case SessionStoreFile, SessionStoreRedis:
	default:
		problems = append(problems, fmt.Sprintf("unknown session_store %q", c.SessionStore))
	}

	switch c.HistoryDriver {
	case HistoryNone, HistorySQLite, HistoryPostgres:
	default:
		problems = append(problems, fmt.Sprintf("unknown history_driver %q", c.HistoryDriver))
	}

	if c.RequestsPerSecond < 0 {
		problems = append(problems, "requests_per_second must not be negative")
	}
	// freecache counts whole seconds, 0 would never expire
	if c.CacheTTL.Duration > 0 && c.CacheTTL.Duration < time.Second {
		problems = append(problems, "cache_ttl must be at least 1s")
	}
	if c.OAuth1TTL.Duration < 0 {
		problems = append(problems, "oauth1_ttl must not be negative")
	}
	if c.SentryEnabled && c.SentryDSN == "" {
		problems = append(problems, "sentry enabled but SENTRY_DSN not set")
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}

	return nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.SessionFilePath, &c.SQLitePath, &c.LogsPath} {
		expanded, err := pkg.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func envName(env string) (string, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return "development", nil
	case "prod", "production":
		return "production", nil
	default:
		return "", fmt.Errorf("unknown env: %s", env)
	}
}

func setString(field *string, def string) {
	if *field == "" {
		*field = def
	}
}
