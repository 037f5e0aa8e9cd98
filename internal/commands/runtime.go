package commands

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/therapy_scheduler/internal/app"
	"github.com/Freeeeeet/therapy_scheduler/internal/config"
	"github.com/Freeeeeet/therapy_scheduler/internal/repository"
	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/Freeeeeet/therapy_scheduler/internal/storage/memory"
	"github.com/Freeeeeet/therapy_scheduler/internal/storage/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// runtime общие зависимости команд: конфиг, логгер и выбранное хранилище
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *pgxpool.Pool // nil для sqlite и memory
	store   service.Store
	closers []func()
}

// services собранные сервисы приложения
type services struct {
	scheduling    *service.SchedulingService
	usage         *service.UsageService
	subscriptions *service.SubscriptionService
}

// openRuntime загружает конфиг и открывает хранилище.
// migrate=true применяет миграции postgres независимо от MIGRATIONS_ENABLED.
func openRuntime(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	rt := &runtime{cfg: cfg, logger: logger}

	logger.Info("Opening store", zap.String("backend", cfg.StoreBackend))

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
		if err != nil {
			return nil, fmt.Errorf("create connection pool: %w", err)
		}
		rt.pool = pool
		rt.closers = append(rt.closers, pool.Close)

		if err := pool.Ping(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		if migrate || cfg.MigrationsEnabled {
			if err := rt.migrate(ctx); err != nil {
				rt.Close()
				return nil, err
			}
		}

		rt.store = repository.NewStore(pool, logger)

	case config.BackendSQLite:
		st, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		rt.closers = append(rt.closers, func() {
			if err := st.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		})
		rt.store = st

	case config.BackendMemory:
		logger.Warn("Using in-memory store, data is lost on exit")
		rt.store = memory.New()

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	return rt, nil
}

// migrate применяет встроенные миграции postgres
func (rt *runtime) migrate(ctx context.Context) error {
	migrator, err := app.NewMigrator(rt.pool, rt.logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			rt.logger.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := migrator.Run(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (rt *runtime) services() *services {
	return &services{
		scheduling: service.NewSchedulingService(
			rt.store,
			rt.store,
			rt.store,
			rt.store,
			rt.store,
			service.SchedulingOptions{
				Location:  rt.cfg.Timezone,
				BatchSize: rt.cfg.SessionBatchSize,
			},
			rt.logger,
		),
		usage:         service.NewUsageService(rt.store, rt.store, rt.store, rt.logger),
		subscriptions: service.NewSubscriptionService(rt.store, rt.logger),
	}
}

// Close освобождает ресурсы в обратном порядке
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
	_ = rt.logger.Sync()
}
