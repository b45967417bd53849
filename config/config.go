package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Brawl345/supacreds/model"
	"github.com/Brawl345/supacreds/utils"
	"github.com/sosodev/duration"
	"golang.org/x/exp/slices"
)

const (
	BackendMySQL   = "mysql"
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendNone    = "none"
)

var Backends = []string{BackendMySQL, BackendSQLite, BackendKeyring, BackendNone}

type (
	Config struct {
		BaseURL      string
		ProjectID    int64
		UserIdentity string
		AuthToken    string
		FallbackKey  string
		// Current seeds resolution with values the operator already has.
		Current model.Bundle

		HTTPTimeout time.Duration

		FallbackBackend string
		MySQL           MySQL
		SQLitePath      string
		KeyringService  string
		IgnoreMigration bool

		ListenAddr string
	}

	MySQL struct {
		Host     string
		Port     string
		User     string
		Password string
		DB       string
		TLS      string
	}
)

// Load reads the configuration through getenv, usually os.Getenv.
func Load(getenv func(string) string) (*Config, error) {
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}
	withDefault := func(key, def string) string {
		if v := env(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		BaseURL:      env("API_BASE_URL"),
		UserIdentity: env("USER_IDENTITY"),
		AuthToken:    env("AUTH_TOKEN"),
		FallbackKey:  env("FALLBACK_KEY"),
		Current: model.Bundle{
			EndpointURL:  env("SUPABASE_URL"),
			AnonymousKey: env("SUPABASE_ANON_KEY"),
			ServiceToken: env("SUPABASE_SERVICE_TOKEN"),
			StorageURL:   env("SUPABASE_DB_URL"),
		},
		FallbackBackend: strings.ToLower(withDefault("FALLBACK_BACKEND", BackendSQLite)),
		MySQL: MySQL{
			Host:     withDefault("MYSQL_HOST", "localhost"),
			Port:     withDefault("MYSQL_PORT", "3306"),
			User:     env("MYSQL_USER"),
			Password: env("MYSQL_PASSWORD"),
			DB:       env("MYSQL_DB"),
			TLS:      withDefault("MYSQL_TLS", "false"),
		},
		SQLitePath:      withDefault("SQLITE_PATH", "supacreds.db"),
		KeyringService:  withDefault("KEYRING_SERVICE", "supacreds"),
		IgnoreMigration: getenv("IGNORE_SQL_MIGRATION") != "",
		ListenAddr:      withDefault("LISTEN_ADDR", "127.0.0.1:8787"),
	}

	if v := env("PROJECT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PROJECT_ID %q: %w", v, err)
		}
		cfg.ProjectID = id
	}

	timeout, err := ParseTimeout(withDefault("HTTP_TIMEOUT", "PT15S"))
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	if err := cfg.ValidateBackend(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseTimeout accepts an ISO 8601 duration such as PT30S. Zero falls back to
// the default request timeout.
func ParseTimeout(s string) (time.Duration, error) {
	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", s, err)
	}
	timeout := d.ToTimeDuration()
	if timeout < 0 {
		return 0, fmt.Errorf("invalid HTTP_TIMEOUT %q: negative duration", s)
	}
	if timeout == 0 {
		return utils.DefaultRequestTimeout, nil
	}
	return timeout, nil
}

func (c *Config) ValidateBackend() error {
	if !slices.Contains(Backends, c.FallbackBackend) {
		return fmt.Errorf("unknown FALLBACK_BACKEND %q, expected one of %s", c.FallbackBackend, strings.Join(Backends, ", "))
	}
	return nil
}

func (m MySQL) Complete() bool {
	return m.User != "" && m.DB != ""
}
