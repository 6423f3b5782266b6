package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/cache"
	"github.com/frahmantamala/pos-backoffice/internal/core/events"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	menuPostgres "github.com/frahmantamala/pos-backoffice/internal/menu/postgres"
	"github.com/frahmantamala/pos-backoffice/internal/observability"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	permissionPostgres "github.com/frahmantamala/pos-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/pos-backoffice/internal/user"
	userPostgres "github.com/frahmantamala/pos-backoffice/internal/user/postgres"
	"github.com/frahmantamala/pos-backoffice/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// application holds every long-lived dependency shared by the commands.
type application struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	Bus      *events.EventBus
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Cache    *permission.Cache

	Users       *user.Service
	Menus       *menu.Service
	Permissions *permission.Service

	Logger *slog.Logger
}

func newApplication(ctx context.Context, cfg *internal.Config) (*application, error) {
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	app := &application{
		Config:   cfg,
		DB:       db,
		Gorm:     gormDB,
		Bus:      events.NewEventBus(lg),
		Registry: registry,
		Metrics:  metrics,
		Logger:   lg,
	}

	backend := app.initCacheBackend(ctx)
	app.Cache = permission.NewCache(backend, cfg.Cache.UserTTL, cfg.Cache.HierarchyTTL, metrics, lg)

	app.Users = user.NewService(userPostgres.NewUserRepository(db), lg)
	app.Menus = menu.NewService(menuPostgres.NewMenuRepository(gormDB), app.Bus, lg)
	app.Permissions = permission.NewService(
		permissionPostgres.NewGrantRepository(gormDB),
		app.Users,
		app.Menus,
		app.Cache,
		app.Bus,
		metrics,
		lg,
	)

	permission.NewInvalidator(app.Cache, app.Users, lg).Register(app.Bus)

	return app, nil
}

// initCacheBackend falls back to the in-process backend when redis cannot be reached at startup;
// the cache only ever speeds up reads.
func (a *application) initCacheBackend(ctx context.Context) cache.Backend {
	cfg := a.Config.Cache
	if cfg.Driver == internal.CacheDriverRedis {
		client, err := cache.NewRedisClient(ctx, a.Config.Redis)
		if err == nil {
			a.Redis = client
			a.Logger.Info("permission cache backend ready", "driver", internal.CacheDriverRedis)
			return cache.NewRedisBackend(client)
		}
		a.Logger.Warn("redis unavailable, using in-process permission cache", "error", err)
	}

	a.Logger.Info("permission cache backend ready", "driver", internal.CacheDriverMemory, "size", cfg.MemorySize)
	return cache.NewMemoryBackend(cfg.MemorySize, max(cfg.UserTTL, cfg.HierarchyTTL))
}

func (a *application) Close() {
	a.Bus.Wait()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis close error", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
}
