package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/productlobby/signal/internal/api"
	"github.com/productlobby/signal/internal/app/intake"
	"github.com/productlobby/signal/internal/app/rescore"
	"github.com/productlobby/signal/internal/app/signal"
	"github.com/productlobby/signal/internal/domain"
	"github.com/productlobby/signal/internal/infra/gormstore"
	"github.com/productlobby/signal/internal/infra/redislock"
	"github.com/productlobby/signal/internal/infra/sqlite"
)

const shutdownTimeout = 15 * time.Second

// Store is a campaign store the daemon owns.
type Store interface {
	domain.CampaignStore
	Ping(ctx context.Context) error
	Close() error
}

// OpenStore opens the configured campaign store.
func OpenStore(ctx context.Context, cfg StorageConfig) (Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		db, err := gormstore.Connect(ctx, cfg.DSN, int32(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		if err := gormstore.AutoMigrate(ctx, db); err != nil {
			if sqlDB, derr := db.DB(); derr == nil {
				sqlDB.Close()
			}
			return nil, err
		}
		return gormstore.New(db), nil
	default:
		db, err := sqlite.Open(cfg.SQLiteDir())
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}
}

// NewScoreService builds the scoring service over store.
func NewScoreService(cfg signal.Config, store signal.ScoreStore, logger *slog.Logger) (*signal.Service, error) {
	calc, err := signal.NewCalculator(cfg)
	if err != nil {
		return nil, fmt.Errorf("signal config: %w", err)
	}
	return signal.NewService(store, calc, logger), nil
}

// Daemon owns the store, the rescore pipeline, and the HTTP server.
type Daemon struct {
	cfg    Config
	logger *slog.Logger

	store  Store
	redis  *redis.Client
	scores *signal.Service

	queue     *rescore.Queue
	worker    *rescore.Worker
	scheduler *rescore.Scheduler

	api    *api.Server
	server *http.Server
}

// New wires every component. The caller must Close the daemon.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{cfg: cfg, logger: logger.With("module", "daemon")}

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	d.store = store

	d.scores, err = NewScoreService(cfg.Signal, store, logger)
	if err != nil {
		d.Close()
		return nil, err
	}

	var trigger intake.Trigger
	if cfg.Rescore.Enabled {
		var locker rescore.Locker = redislock.Noop{}
		if cfg.Storage.RedisURL != "" {
			d.redis, err = redislock.Connect(ctx, cfg.Storage.RedisURL)
			if err != nil {
				d.Close()
				return nil, err
			}
			locker = redislock.New(d.redis)
		}

		d.queue = rescore.NewQueue(rescore.QueueConfig{
			BoostInterval: duration(cfg.Rescore.BoostInterval, time.Minute),
			MaxBoost:      rescore.DefaultQueueConfig().MaxBoost,
		})
		d.worker = rescore.NewWorker(rescore.WorkerConfig{
			MaxConcurrent: cfg.Rescore.Workers,
			JobTimeout:    duration(cfg.Rescore.JobTimeout, 30*time.Second),
		}, d.queue, d.scores, logger)
		d.scheduler = rescore.NewScheduler(store, d.queue, locker,
			duration(cfg.Rescore.Interval, 15*time.Minute), logger)
		trigger = d.queue
	}

	d.api = api.NewServer(d.scores, store)
	d.api.SetLogger(logger)
	d.api.SetIntake(intake.New(store, trigger, cfg.Signal.PhoneVerificationPrice, logger))
	d.api.SetRequestTimeout(duration(cfg.API.RequestTimeout, 15*time.Second))
	if cfg.API.RateLimitRPM > 0 {
		d.api.SetRateLimiter(api.NewRateLimiter(api.RateLimit{
			RequestsPerMinute: float64(cfg.API.RateLimitRPM),
			Burst:             cfg.API.RateLimitBurst,
		}))
	}
	if cfg.Metrics.Enabled {
		d.api.EnableMetrics()
	}

	d.server = &http.Server{
		Addr:              cfg.API.Addr(),
		Handler:           d.api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       duration(cfg.API.ReadTimeout, 10*time.Second),
		WriteTimeout:      duration(cfg.API.WriteTimeout, 30*time.Second),
	}
	return d, nil
}

// Handler returns the API handler.
func (d *Daemon) Handler() http.Handler { return d.server.Handler }

// Store returns the campaign store.
func (d *Daemon) Store() Store { return d.store }

// Run serves until ctx is cancelled, then shuts the server down and waits
// for in-flight rescore jobs.
func (d *Daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.logger.InfoContext(gctx, "api listening",
			"operation", "serve",
			"addr", d.server.Addr,
			"driver", d.cfg.Storage.Driver,
			"rescore", d.cfg.Rescore.Enabled,
		)
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	})

	if d.worker != nil {
		g.Go(func() error { return d.worker.Run(gctx) })
		g.Go(func() error { return d.scheduler.Run(gctx) })
	}

	err := g.Wait()
	d.logger.Info("daemon stopped", "operation", "serve", "outcome", outcome(err))
	return err
}

// Close releases the store and the Redis client.
func (d *Daemon) Close() error {
	var errs []error
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
