// Package setup bootstraps all application dependencies in the correct order.
package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/sleighlabs/nicelist/internal/ai"
	aiClient "github.com/sleighlabs/nicelist/internal/ai/client"
	"github.com/sleighlabs/nicelist/internal/cache"
	"github.com/sleighlabs/nicelist/internal/checker"
	"github.com/sleighlabs/nicelist/internal/redis"
	"github.com/sleighlabs/nicelist/internal/setup/config"
	"github.com/sleighlabs/nicelist/internal/social"
	"github.com/sleighlabs/nicelist/internal/store"
	"go.uber.org/zap"
)

// DefaultRequestTimeout bounds upstream calls when the config leaves the
// timeout unset.
const DefaultRequestTimeout = 10 * time.Second

// App bundles all core dependencies and services needed by the application.
// Each field represents a subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	RedisManager *redis.Manager     // Redis connection manager, nil for memory cache
	Social       *social.Client     // socialdata.tools client
	AIClient     *aiClient.AIClient // Chat completion client
	Status       *store.Service     // Durable status service
	Checker      *checker.Checker   // Pipeline orchestrator

	statusCloser interface{ Close() error }
}

// InitializeApp bootstraps all application dependencies, ensuring each
// component has its required dependencies available. A non-empty logLevel
// overrides the configured logging level.
func InitializeApp(ctx context.Context, logLevel string) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	// Logging system is initialized next to capture setup issues
	logger, err := NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("configDir", configDir))

	requestTimeout := DefaultRequestTimeout
	if cfg.Server.RequestTimeout > 0 {
		requestTimeout = time.Duration(cfg.Server.RequestTimeout) * time.Millisecond
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		Social: social.NewClient(&cfg.Social, requestTimeout, logger),
	}

	// Durable status store
	statusStore, err := app.initStatusStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app.Status = store.NewService(statusStore, logger)

	// Verdict cache
	verdicts, err := app.initCache(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Classifier
	app.AIClient = aiClient.NewClient(&cfg.OpenAI, logger)
	analyzer := ai.NewSentimentAnalyzer(app.AIClient.Chat(), cfg.OpenAI.Model, logger)

	app.Checker = checker.New(app.Social, analyzer, app.Status, verdicts, cfg.Cache.TTL(), logger)

	return app, nil
}

// initStatusStore selects the durable backend from config.
func (a *App) initStatusStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.StatusStore, error) {
	switch cfg.Status.Backend {
	case "postgres":
		pg, err := store.NewPostgres(ctx, &cfg.Status.PostgreSQL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres status store: %w", err)
		}

		a.statusCloser = pg

		return pg, nil
	case "sanity", "":
		return store.NewSanity(&cfg.Status.Sanity, logger), nil
	default:
		return nil, fmt.Errorf("unknown status backend %q", cfg.Status.Backend)
	}
}

// initCache selects the verdict cache backend from config.
func (a *App) initCache(cfg *config.Config, logger *zap.Logger) (cache.Cache[*checker.Verdict], error) {
	switch cfg.Cache.Backend {
	case "redis":
		a.RedisManager = redis.NewManager(&cfg.Redis, logger)

		client, err := a.RedisManager.GetClient(redis.CacheDBIndex)
		if err != nil {
			return nil, err
		}

		return cache.NewRedis[*checker.Verdict](client, "verdict:", logger), nil
	case "memory", "":
		return cache.NewMemory[*checker.Verdict](logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Cleanup gracefully shuts down all subsystems.
func (a *App) Cleanup() {
	if a.RedisManager != nil {
		a.RedisManager.Close()
	}

	if a.statusCloser != nil {
		if err := a.statusCloser.Close(); err != nil {
			a.Logger.Error("Failed to close status store", zap.Error(err))
		}
	}

	_ = a.Logger.Sync()
}
