package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"imsystem/internal/auditlog"
	"imsystem/internal/core/config"
	"imsystem/internal/core/metrics"
	"imsystem/internal/integrations/supabase"
	"imsystem/internal/inventory/grid"
	inventorylog "imsystem/internal/inventory/inventory_log"
	"imsystem/internal/inventory/records"
	"imsystem/internal/inventory/snapshotcache"
	"imsystem/internal/inventory/viewer"
	"imsystem/internal/rate_limiter"
	"imsystem/internal/repository"
	"imsystem/internal/users"
	auditLogger "imsystem/pkg/auditlog"
	"imsystem/pkg/security"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	loginAttempts = 10
	loginWindow   = 5 * time.Minute
)

type Container struct {
	Config           *config.Config
	Logger           *zap.Logger
	Repository       *repository.Repository
	Metrics          *metrics.Metrics
	Refresher        *grid.Refresher
	Tokens           *security.TokenManager
	AuditLog         *auditLogger.Auditlog
	Sessions         *viewer.Registry
	LoginHandler     *security.LoginHandler
	UserHandler      *users.UsersHandler
	InventoryHandler *viewer.InventoryHandler
	InventoryLog     *inventorylog.InventoryLog

	rateLimiter *rate_limiter.RateLimiter
	redis       *redis.Client
}

func NewAppContainer(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (*Container, error) {
	locale, err := cfg.Grid.Tag()
	if err != nil {
		return nil, err
	}

	tokens, err := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}

	repo := repository.NewRepository(db)
	source, err := NewDataSource(cfg, repo, logger)
	if err != nil {
		return nil, err
	}

	appMetrics := metrics.New()
	opts := []grid.RefresherOption{
		grid.WithInterval(cfg.Grid.RefreshInterval),
		grid.WithFetchTimeout(cfg.Grid.FetchTimeout),
		grid.WithObserver(appMetrics),
	}

	redisClient := ConnectRedis(ctx, cfg, logger)
	if redisClient != nil {
		opts = append(opts, grid.WithCache(snapshotcache.New(redisClient, "", 0)))
	}

	refresher := grid.NewRefresher(source, grid.NewStore(), logger.Named("refresher"), opts...)

	auditRepo := auditlog.NewRepository(repo)
	auditLog := auditLogger.NewAuditLog(auditRepo, logger.Named("auditlog"))
	userRepo := users.NewRepository(repo)
	limiter := rate_limiter.NewRateLimiter(loginAttempts, loginWindow)
	sessions := viewer.NewRegistry(cfg.Auth.SessionTTL, grid.FlashDuration)
	service := viewer.NewService(refresher, sessions, locale, auditLog, logger.Named("viewer"))

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Repository:       repo,
		Metrics:          appMetrics,
		Refresher:        refresher,
		Tokens:           tokens,
		AuditLog:         auditLog,
		Sessions:         sessions,
		LoginHandler:     security.NewLoginHandler(userRepo, tokens, limiter, logger.Named("auth")),
		UserHandler:      users.NewHandler(userRepo, logger.Named("users")),
		InventoryHandler: viewer.NewInventoryHandler(service, tokens, logger.Named("inventory")),
		InventoryLog:     inventorylog.NewInventoryLog(auditRepo, logger.Named("inventory_log")),
		rateLimiter:      limiter,
		redis:            redisClient,
	}, nil
}

// NewDataSource picks the record source named by the configuration. repo
// may be nil when the rest source is configured.
func NewDataSource(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) (grid.DataSource, error) {
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		if repo == nil {
			return nil, fmt.Errorf("postgres data source needs a database connection")
		}
		return records.NewRepository(repo), nil
	case config.SourceREST:
		return supabase.NewClient(supabase.Config{
			URL:     cfg.Source.Supabase.URL,
			Key:     cfg.Source.Supabase.Key,
			Table:   cfg.Source.Supabase.Table,
			Timeout: cfg.Grid.FetchTimeout,
		}, logger.Named("supabase"))
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source.Kind)
	}
}

// ConnectRedis returns a client for the snapshot cache, or nil when redis
// is not configured or does not answer. Warm start is optional.
func ConnectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := snapshotcache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := snapshotcache.Ping(ctx, client); err != nil {
		logger.Warn("Redis unavailable, snapshot warm start disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// Close releases everything except the refresher, which the caller stops
// first so no fetch runs against closed resources.
func (c *Container) Close() {
	c.rateLimiter.Stop()
	c.Sessions.Close()
	c.AuditLog.Close()
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.Logger.Warn("Unable to close redis client", zap.Error(err))
		}
	}
}
