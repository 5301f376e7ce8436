package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/pkg/adapters/file"
	"github.com/aretw0/turing/pkg/adapters/redis"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/persistence/middleware"
	"github.com/aretw0/turing/pkg/session"
)

// NewEngine initializes an engine with the configured tape and the standard CLI hooks.
// Extra hooks, such as metrics, run after the debug hooks.
func NewEngine(cfg config.Config, logger *slog.Logger, debug bool, extra ...domain.LifecycleHooks) (*turing.Engine, error) {
	initial, err := domain.ParseSymbol(cfg.InitialSymbol)
	if err != nil {
		return nil, fmt.Errorf("invalid initsymbol: %w", err)
	}

	hooks := extra
	if debug {
		hooks = append([]domain.LifecycleHooks{createDebugHooks(logger)}, extra...)
	}

	engine, err := turing.New(
		turing.WithLogger(logger),
		turing.WithLifecycleHooks(domain.MergeHooks(hooks...)),
		turing.WithMaxMemorySize(cfg.MaxMemorySize),
		turing.WithMemorySize(cfg.MemorySize),
		turing.WithInitialSymbol(initial),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// NewSessionManager builds the checkpoint store selected by cfg: Redis when
// redis.url is set, JSON files under session_dir otherwise. Snapshots are
// sealed when an encryption key is configured. closer releases the store's
// connections.
func NewSessionManager(cfg config.Config, logger *slog.Logger) (mgr *session.Manager, closer func() error, err error) {
	mws, err := storeMiddlewares(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Redis.URL == "" {
		logger.Debug("Using file session store", "dir", cfg.SessionDir)
		store := middleware.Chain(file.New(cfg.SessionDir), mws...)
		return session.NewManager(store, session.WithLogger(logger)), func() error { return nil }, nil
	}

	store, err := redis.NewFromURL(cfg.Redis.URL, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.TTL))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Using redis session store", "prefix", store.Prefix())
	mgr = session.NewManager(middleware.Chain(store, mws...),
		session.WithLocker(redis.NewLocker(store.Client(), store.Prefix())),
		session.WithLogger(logger),
	)
	return mgr, store.Close, nil
}

func storeMiddlewares(cfg config.Config, logger *slog.Logger) ([]middleware.Middleware, error) {
	if !cfg.Encryption.Enabled() {
		return nil, nil
	}
	active, fallback, err := cfg.Encryption.Keys()
	if err != nil {
		return nil, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	if err != nil {
		return nil, err
	}
	logger.Debug("Session snapshots are encrypted", "fallback_keys", len(fallback))
	return []middleware.Middleware{mw}, nil
}
