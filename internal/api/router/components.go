package router

import (
	"context"
	"fmt"
	"time"

	"skillswap/internal/api/handlers"
	"skillswap/internal/api/middleware"
	"skillswap/internal/auth"
	"skillswap/internal/config"
	"skillswap/internal/infrastructure/cache"
	"skillswap/internal/infrastructure/database"
	"skillswap/internal/infrastructure/index"
	"skillswap/internal/infrastructure/queue"
	"skillswap/internal/infrastructure/repository"
	interfaces "skillswap/internal/interfaces/infrastructure"
	service "skillswap/internal/interfaces/service"
	"skillswap/internal/metrics"
	svc "skillswap/internal/service"
	"skillswap/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Components is everything the HTTP layer and the CLI need, built once from config.
type Components struct {
	Directory   service.DirectoryService
	Search      service.SearchService
	Swaps       service.SwapService
	Auth        service.AuthService
	Idempotency service.IdempotencyService
	Admin       service.AdminService

	Registry    *prometheus.Registry
	Collector   *metrics.Collector
	RateLimiter *middleware.RateLimiter
	Repairs     interfaces.QueueService
	Checkers    map[string]handlers.Checker

	DB    *gorm.DB
	Cache *cache.RedisCache
}

// NewComponents connects the configured backends and assembles the services.
// Call Close when done.
func NewComponents(ctx context.Context, cfg *config.Config) (*Components, error) {
	comp := &Components{
		Registry: prometheus.NewRegistry(),
		Checkers: map[string]handlers.Checker{},
	}
	comp.Collector = metrics.NewCollector(comp.Registry)

	if err := comp.connect(ctx, cfg); err != nil {
		comp.Close()
		return nil, err
	}

	var (
		users     interfaces.UserRepository
		snapshots interfaces.SkillSnapshotSource
		swaps     interfaces.SwapRequestRepository
		adminLogs interfaces.AdminLogRepository
	)
	switch cfg.Store.Driver {
	case DriverPostgres:
		users = repository.NewUserRepository(comp.DB)
		swaps = repository.NewSwapRequestRepository(comp.DB)
		sqlxDB, err := database.NewSQLX(comp.DB)
		if err != nil {
			comp.Close()
			return nil, err
		}
		snapshots = repository.NewSkillSnapshotRepository(sqlxDB)
		adminLogs = repository.NewAdminLogRepository(comp.DB)
	case DriverMemory, "":
		memUsers := repository.NewMemoryUserRepository()
		users, snapshots = memUsers, memUsers
		swaps = repository.NewMemorySwapRepository()
		adminLogs = repository.NewMemoryAdminLogRepository()
	default:
		comp.Close()
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	var skillIndex interfaces.SkillIndex
	switch cfg.Index.Driver {
	case DriverRedis:
		skillIndex = index.NewRedisIndex(comp.Cache.Client(), cfg.Index.Prefix)
	case DriverMemory, "":
		skillIndex = index.NewMemoryIndex()
	default:
		comp.Close()
		return nil, fmt.Errorf("unknown index driver %q", cfg.Index.Driver)
	}

	var idempotencyRepo interfaces.IdempotencyRepository
	switch cfg.Idempotency.Driver {
	case DriverRedis:
		idempotencyRepo = repository.NewRedisIdempotencyRepository(comp.Cache.Client(), cfg.Idempotency.TTLDuration())
	case DriverMemory, "":
		idempotencyRepo = repository.NewMemoryIdempotencyRepository()
	default:
		comp.Close()
		return nil, fmt.Errorf("unknown idempotency driver %q", cfg.Idempotency.Driver)
	}

	switch cfg.Queue.Driver {
	case DriverRedis:
		comp.Repairs = queue.NewRedisQueue(comp.Cache.Client(), cfg.Queue.Workers, cfg.Queue.MaxAttempts)
	case DriverMemory, "":
		comp.Repairs = queue.NewInMemoryQueue(cfg.Queue.BufferSize, cfg.Queue.Workers, cfg.Queue.MaxAttempts)
	default:
		comp.Close()
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
	}

	clock := svc.NewMonotonicClock()
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL())

	comp.Directory = svc.NewDirectoryService(users, snapshots, skillIndex, hasher, clock, comp.Collector,
		svc.WithRepairQueue(comp.Repairs))
	comp.Repairs.SetRepairer(comp.Directory)
	comp.Repairs.StartWorkers()
	comp.Search = svc.NewSearchService(comp.Directory, skillIndex, cfg.Search.DefaultLimit, cfg.Search.MaxLimit, comp.Collector)
	comp.Swaps = svc.NewSwapService(swaps, users, clock, comp.Collector)
	comp.Auth = svc.NewAuthService(users, hasher, tokens)
	comp.Idempotency = svc.NewIdempotencyService(idempotencyRepo, cfg.Idempotency.TTLDuration())

	var clearer svc.KeyClearer
	if cfg.Idempotency.Driver == DriverRedis {
		clearer = comp.Cache
	}
	comp.Admin = svc.NewAdminService(comp.Directory, adminLogs, clearer, repository.IdempotencyKeyPrefix+"*", clock)

	if cfg.RateLimit.Enabled {
		comp.RateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			GeneralRate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			GeneralBurst: cfg.RateLimit.Burst,
			CreateRate:   rate.Limit(cfg.RateLimit.CreatePerMinute / 60.0),
			CreateBurst:  cfg.RateLimit.CreateBurst,
		})
	}

	logger.Info("Components ready (store=%s, index=%s, idempotency=%s, queue=%s)",
		orMemory(cfg.Store.Driver), orMemory(cfg.Index.Driver), orMemory(cfg.Idempotency.Driver), orMemory(cfg.Queue.Driver))
	return comp, nil
}

// connect opens Postgres and Redis only when a configured driver needs them.
func (c *Components) connect(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Driver == DriverPostgres {
		db, err := database.NewConnection(database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.Username,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.Name,
			SSLMode:         cfg.Database.SSLMode,
			LogLevel:        cfg.Database.LogLevel,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return err
		}
		c.DB = db
		c.Checkers["database"] = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }

		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(db); err != nil {
				return err
			}
		}
	}

	if cfg.Index.Driver == DriverRedis || cfg.Idempotency.Driver == DriverRedis || cfg.Queue.Driver == DriverRedis {
		c.Cache = cache.NewRedisCache(cache.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Cache.Host, cfg.Cache.Port),
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := c.Cache.Health(ctx); err != nil {
			return err
		}
		c.Checkers["cache"] = c.Cache.Health
	}
	return nil
}

// Close stops background work and releases connections. It is safe on a partly built value.
func (c *Components) Close() {
	if c.Repairs != nil {
		c.Repairs.StopWorkers()
	}
	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			logger.Warn("Failed to close redis: %v", err)
		}
	}
	if c.DB != nil {
		if err := database.Close(c.DB); err != nil {
			logger.Warn("Failed to close database: %v", err)
		}
	}
}

func orMemory(driver string) string {
	if driver == "" {
		return DriverMemory
	}
	return driver
}
