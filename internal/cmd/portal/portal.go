// Package portal parses portal command flags and starts the admin portal.
package portal

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/ieltsportal/internal/platform/cmd"
	"github.com/louisbranch/ieltsportal/internal/services/portal"
)

// devSecretBytes sizes the throwaway session secret used by -dev.
const devSecretBytes = 32

// Config holds the portal command configuration.
type Config struct {
	HTTPAddr        string        `env:"PORTAL_HTTP_ADDR"        envDefault:":8090"`
	Storage         string        `env:"PORTAL_STORAGE"          envDefault:"sqlite"`
	DBPath          string        `env:"PORTAL_DB_PATH"          envDefault:"data/portal.db"`
	SessionSecret   string        `env:"PORTAL_SESSION_SECRET"`
	SessionTTL      time.Duration `env:"PORTAL_SESSION_TTL"      envDefault:"12h"`
	AccessTablePath string        `env:"PORTAL_ACCESS_TABLE"`
	AuthMode        string        `env:"PORTAL_AUTH_MODE"        envDefault:"local"`
	RemoteAPIURL    string        `env:"PORTAL_REMOTE_API_URL"`
	AllowUserLogin  bool          `env:"PORTAL_ALLOW_USER_LOGIN" envDefault:"true"`
	LoginRate       int           `env:"PORTAL_LOGIN_RATE"       envDefault:"10"`
	TrustProxy      bool          `env:"PORTAL_TRUST_PROXY"`
	Seed            bool          `env:"PORTAL_SEED"`
	LogLevel        string        `env:"PORTAL_LOG_LEVEL"        envDefault:"info"`
	Dev             bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "storage backend (sqlite or memory)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the sqlite database")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "session lifetime")
	fs.StringVar(&cfg.AccessTablePath, "access-table", cfg.AccessTablePath, "access table YAML override")
	fs.StringVar(&cfg.AuthMode, "auth-mode", cfg.AuthMode, "credential check (local or remote)")
	fs.StringVar(&cfg.RemoteAPIURL, "remote-api-url", cfg.RemoteAPIURL, "remote auth API base URL")
	fs.BoolVar(&cfg.AllowUserLogin, "allow-user-login", cfg.AllowUserLogin, "let the User role sign in")
	fs.IntVar(&cfg.LoginRate, "login-rate", cfg.LoginRate, "login attempts per minute per client IP (0 disables)")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "key the login limit on X-Forwarded-For (only behind a proxy that sets it)")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "load sample exercises into an empty store")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.Dev, "dev", false, "development mode: generate a session secret when none is set")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.LoginRate < 0 {
		return Config{}, errors.New("-login-rate must be >= 0")
	}
	return cfg, nil
}

// Run builds the portal server and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger := newLogger(cfg.LogLevel)
	secret, err := sessionSecret(cfg, logger)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServicePortal, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		server, err := portal.NewServer(ctx, portal.Config{
			HTTPAddr:        cfg.HTTPAddr,
			Storage:         cfg.Storage,
			DBPath:          cfg.DBPath,
			SessionSecret:   secret,
			SessionTTL:      cfg.SessionTTL,
			AccessTablePath: cfg.AccessTablePath,
			AuthMode:        cfg.AuthMode,
			RemoteAPIURL:    cfg.RemoteAPIURL,
			AllowUserLogin:  cfg.AllowUserLogin,
			LoginRate:       cfg.LoginRate,
			TrustProxy:      cfg.TrustProxy,
			Seed:            cfg.Seed,
			Logger:          logger,
		})
		if err != nil {
			return fmt.Errorf("init portal server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve portal: %w", err)
		}
		return nil
	})
}

// sessionSecret returns the configured secret. In dev mode a missing secret
// is replaced by a random one, so sessions do not survive a restart.
func sessionSecret(cfg Config, logger *slog.Logger) ([]byte, error) {
	if secret := strings.TrimSpace(cfg.SessionSecret); secret != "" {
		return []byte(secret), nil
	}
	if !cfg.Dev {
		return nil, errors.New("PORTAL_SESSION_SECRET is required (or pass -dev)")
	}
	secret := make([]byte, devSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	logger.Warn("using a generated session secret; sessions end on restart")
	return secret, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
