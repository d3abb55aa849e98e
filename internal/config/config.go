package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DefaultSessionFile is the session database path relative to the home directory.
const DefaultSessionFile = ".rentctl/session.db"

// Config holds runtime configuration for the rental client.
type Config struct {
	APIBaseURL    string        `env:"RENTAL_API_BASE_URL,default=http://localhost:3000/api"`
	SessionDB     string        `env:"RENTAL_SESSION_DB"`
	LogLevel      string        `env:"RENTAL_LOG_LEVEL,default=warn"`
	NotifyTTL     time.Duration `env:"RENTAL_NOTIFY_TTL,default=5s"`
	RedirectDelay time.Duration `env:"RENTAL_REDIRECT_DELAY,default=1s"`
	OTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith returns a Config populated from l. An unset session path
// resolves to DefaultSessionFile under the user's home directory.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, err
	}
	if cfg.SessionDB == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve session path: %w", err)
		}
		cfg.SessionDB = filepath.Join(home, DefaultSessionFile)
	}
	if cfg.NotifyTTL <= 0 {
		return Config{}, fmt.Errorf("RENTAL_NOTIFY_TTL must be positive, got %s", cfg.NotifyTTL)
	}
	if cfg.RedirectDelay < 0 {
		return Config{}, fmt.Errorf("RENTAL_REDIRECT_DELAY must not be negative, got %s", cfg.RedirectDelay)
	}
	return cfg, nil
}
