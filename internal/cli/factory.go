// Package cli wires the configuration into a running bot for the corebot commands.
package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aretw0/corebot"
	"github.com/aretw0/corebot/internal/config"
	"github.com/aretw0/corebot/pkg/adapters/badger"
	"github.com/aretw0/corebot/pkg/adapters/file"
	"github.com/aretw0/corebot/pkg/adapters/memory"
	"github.com/aretw0/corebot/pkg/adapters/redis"
	"github.com/aretw0/corebot/pkg/adapters/sqlite"
	"github.com/aretw0/corebot/pkg/locale"
	"github.com/aretw0/corebot/pkg/observability"
	"github.com/aretw0/corebot/pkg/persistence/middleware"
	"github.com/aretw0/corebot/pkg/ports"
	"github.com/aretw0/corebot/pkg/recognizer/clu"
	"github.com/prometheus/client_golang/prometheus"
)

// Default locations of the on-disk backends.
const (
	defaultBadgerDir = ".corebot/badger"
	defaultSQLiteDB  = ".corebot/corebot.db"
)

// Persistence is the store selected by the configuration.
type Persistence struct {
	Store  ports.StackStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend.
func (p *Persistence) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// NewPersistence opens the configured backend and wraps it with the
// configured middleware (PII masking outermost, then encryption).
func NewPersistence(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{}

	switch cfg.Backend {
	case config.StoreMemory, "":
		p.Store = memory.NewStore()

	case config.StoreFile:
		p.Store = file.New(cfg.Path)

	case config.StoreRedis:
		opts := []redis.Option{redis.WithTTL(cfg.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		p.Store = store
		p.Locker = redis.NewLocker(store.Client(), store.Prefix())
		p.close = store.Close

	case config.StoreSQLite:
		path := cfg.Path
		if path == "" {
			path = defaultSQLiteDB
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		store, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
		if err != nil {
			return nil, err
		}
		p.Store, p.close = store, store.Close

	case config.StoreBadger:
		dir := cfg.Path
		if dir == "" {
			dir = defaultBadgerDir
		}
		store, err := badger.Open(dir, badger.WithTTL(cfg.TTL))
		if err != nil {
			return nil, err
		}
		p.Store, p.close = store, store.Close

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Store = middleware.Chain(p.Store, mws...)

	logger.Info("stack store ready", "backend", cfg.Backend, "middleware", len(mws), "distributed_lock", p.Locker != nil)
	return p, nil
}

func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIKeys) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIKeys))
	}
	if cfg.EncryptionKey != "" {
		active, err := decodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return mws, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, errors.New("key must decode to 32 bytes (AES-256)")
	}
	return key, nil
}

// NewRecognizer builds the CLU recognizer. It is unconfigured unless all four settings are present.
func NewRecognizer(cfg config.CLUConfig, logger *slog.Logger) ports.Recognizer {
	return clu.New(clu.Config{
		ProjectName:    cfg.ProjectName,
		DeploymentName: cfg.DeploymentName,
		APIKey:         cfg.APIKey,
		APIHostName:    cfg.APIHostName,
	}, clu.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}), clu.WithLogger(logger))
}

// NewCatalog loads the resource catalog: the embedded one, or cfg.Dir
// (hot reloaded until ctx is done when cfg.Watch is set).
func NewCatalog(ctx context.Context, cfg config.LocaleConfig, logger *slog.Logger) (*locale.Catalog, error) {
	opts := []locale.Option{locale.WithLogger(logger)}
	if cfg.Fallback != "" {
		opts = append(opts, locale.WithFallback(cfg.Fallback))
	}
	if cfg.Dir == "" {
		return locale.Default(opts...)
	}

	catalog, err := locale.Load(os.DirFS(cfg.Dir), ".", opts...)
	if err != nil {
		return nil, err
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if cfg.Watch {
		if err := catalog.Watch(ctx, cfg.Dir); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// App is a bot built from the configuration, plus what must be closed with it.
type App struct {
	Bot         *corebot.Bot
	Persistence *Persistence
	Catalog     *locale.Catalog
}

// Close releases the store.
func (a *App) Close() error {
	return a.Persistence.Close()
}

// NewApp builds a bot from cfg. Turn metrics are registered on reg (nil
// keeps them unregistered). Extra options are applied last.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, extra ...corebot.Option) (*App, error) {
	persistence, err := NewPersistence(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalog(ctx, cfg.Locale, logger)
	if err != nil {
		_ = persistence.Close()
		return nil, err
	}

	rec := NewRecognizer(cfg.CLU, logger)
	if !rec.IsConfigured() {
		logger.Warn("CLU is not configured; every message starts the booking dialog")
	}

	opts := []corebot.Option{
		corebot.WithStore(persistence.Store),
		corebot.WithRecognizer(rec),
		corebot.WithLocalizers(catalog),
		corebot.WithLogger(logger),
		corebot.WithWelcome(cfg.Server.Welcome),
		corebot.WithLifecycleHooks(observability.Combine(
			observability.NewMetrics(reg).Hooks(),
			observability.LogHooks(logger),
		)),
	}
	if persistence.Locker != nil {
		opts = append(opts, corebot.WithLocker(persistence.Locker, cfg.Store.Redis.LockTTL))
	}
	opts = append(opts, extra...)

	bot, err := corebot.New(opts...)
	if err != nil {
		_ = persistence.Close()
		return nil, err
	}
	return &App{Bot: bot, Persistence: persistence, Catalog: catalog}, nil
}
