package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/ieltsportal/internal/platform/metrics"
	"github.com/louisbranch/ieltsportal/internal/platform/ratelimit"
	"github.com/louisbranch/ieltsportal/internal/platform/timeouts"
	"github.com/louisbranch/ieltsportal/internal/services/portal/account"
	"github.com/louisbranch/ieltsportal/internal/services/portal/activity"
	"github.com/louisbranch/ieltsportal/internal/services/portal/answer"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/integration/remoteapi"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage/memory"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage/sqlite"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Authentication modes.
const (
	AuthLocal  = "local"
	AuthRemote = "remote"
)

// loginLimiterTTL evicts idle per-IP login limiters.
const loginLimiterTTL = 10 * time.Minute

// Config defines the portal server configuration.
type Config struct {
	HTTPAddr        string
	Storage         string
	DBPath          string
	SessionSecret   []byte
	SessionTTL      time.Duration
	AccessTablePath string
	AuthMode        string
	RemoteAPIURL    string
	AllowUserLogin  bool
	// LoginRate is the number of login attempts per minute per client IP.
	// Zero disables the limit.
	LoginRate int
	// TrustProxy keys the login limit on X-Forwarded-For.
	TrustProxy bool
	// Seed loads the sample exercises into an empty store.
	Seed   bool
	Logger *slog.Logger
}

// Server hosts the portal HTTP interface.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	store      storage.Store
	sessions   *session.Manager
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// OpenStore opens the storage backend named by kind.
func OpenStore(ctx context.Context, kind, path string) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", StorageSQLite:
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// NewServer builds the portal server and its services.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	table, err := navigation.LoadAccessTable(cfg.AccessTablePath)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, cfg.Storage, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	srv, err := newServer(ctx, cfg, httpAddr, logger, table, store)
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("close store", "error", closeErr)
		}
		return nil, err
	}
	return srv, nil
}

func newServer(ctx context.Context, cfg Config, httpAddr string, logger *slog.Logger, table navigation.AccessTable, store storage.Store) (*Server, error) {
	m := metrics.New()
	router := navigation.NewRouter(table, logger, m)
	activityLog := activity.NewLog(store, nil)

	accounts := account.NewService(store,
		account.WithActivity(activityLog),
		account.WithDecisionRecorder(m),
		account.WithLogger(logger),
	)
	exercises := exercise.NewService(store, router,
		exercise.WithActivity(activityLog),
		exercise.WithLogger(logger),
	)
	if cfg.Seed {
		n, err := exercises.Seed(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed exercises: %w", err)
		}
		if n > 0 {
			logger.Info("seeded sample exercises", "count", n)
		}
	}
	answers := answer.NewService(store, exercises, nil)

	auth, err := authenticator(cfg, store)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewManager(session.Config{
		Secret:         cfg.SessionSecret,
		TTL:            cfg.SessionTTL,
		AllowUserLogin: cfg.AllowUserLogin,
		InitialView:    router.Initial(),
	}, auth,
		session.WithRecordStore(store),
		session.WithLogger(logger),
		session.WithRecorder(m),
	)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	var limiter *ratelimit.Limiter
	if cfg.LoginRate > 0 {
		limiter = ratelimit.PerMinute(cfg.LoginRate, loginLimiterTTL, ratelimit.WithTrustedProxy(cfg.TrustProxy))
	}
	handler, err := NewHandler(Dependencies{
		Sessions:     sessions,
		Router:       router,
		Accounts:     accounts,
		Exercises:    exercises,
		Answers:      answers,
		Activity:     activityLog,
		Metrics:      m,
		LoginLimiter: limiter,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		store:    store,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger,
	}, nil
}

func authenticator(cfg Config, store storage.AccountStore) (session.Authenticator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AuthMode)) {
	case "", AuthLocal:
		return account.NewLocalAuthenticator(store), nil
	case AuthRemote:
		client, err := remoteapi.NewClient(cfg.RemoteAPIURL, &http.Client{Timeout: timeouts.RemoteRequest})
		if err != nil {
			return nil, fmt.Errorf("remote authenticator: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// ListenAndServe serves HTTP until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("portal server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.sessions.Run(ctx, timeouts.SessionSweep)
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	serveErr := make(chan error, 1)
	s.logger.Info("portal listening", "addr", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the store.
func (s *Server) Close() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("close store", "error", err)
	}
}
