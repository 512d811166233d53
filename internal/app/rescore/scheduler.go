package rescore

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/productlobby/signal/internal/domain"
	"github.com/productlobby/signal/internal/infra/observability"
)

// SweepLockKey is the lock name replicas contend on before sweeping.
const SweepLockKey = "rescore-sweep"

// Lister enumerates campaigns by status.
type Lister interface {
	ListCampaignIDs(ctx context.Context, status domain.CampaignStatus) ([]string, error)
}

// Locker grants a time-bounded lease. ok=false means another owner holds it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

// Scheduler periodically enqueues every LIVE campaign at routine priority.
type Scheduler struct {
	lister   Lister
	queue    *Queue
	locker   Locker
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a sweep scheduler.
func NewScheduler(lister Lister, q *Queue, locker Locker, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		lister:   lister,
		queue:    q,
		locker:   locker,
		interval: interval,
		logger:   logger.With("module", "rescore"),
	}
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("rescore interval must be positive, got %s", s.interval)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "rescore sweep failed",
				"operation", "sweep",
				"outcome", "error",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep enqueues all LIVE campaigns if this replica wins the sweep lease.
// The lease is not released; it expires just before the next tick so peers
// skip the rest of this interval.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	ttl := s.interval * 9 / 10
	if ttl <= 0 {
		ttl = time.Second
	}
	_, ok, err := s.locker.TryLock(ctx, SweepLockKey, ttl)
	if err != nil {
		observability.RescoreSweeps.WithLabelValues("error").Inc()
		return 0, err
	}
	if !ok {
		observability.RescoreSweeps.WithLabelValues("skipped_locked").Inc()
		s.logger.DebugContext(ctx, "rescore sweep skipped, lease held elsewhere",
			"operation", "sweep",
			"outcome", "skipped_locked",
		)
		return 0, nil
	}

	ids, err := s.lister.ListCampaignIDs(ctx, domain.CampaignLive)
	if err != nil {
		observability.RescoreSweeps.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("list live campaigns: %w", err)
	}

	queued := 0
	for _, id := range ids {
		if s.queue.Push(id, PriorityRoutine) {
			queued++
		}
	}
	observability.RescoreSweeps.WithLabelValues("ran").Inc()
	s.logger.InfoContext(ctx, "rescore sweep enqueued",
		"operation", "sweep",
		"outcome", "ran",
		"live_campaigns", len(ids),
		"queued", queued,
	)
	return queued, nil
}

// ─── One-shot Sweep ─────────────────────────────────────────────────────────

// Summary reports a RunOnce sweep.
type Summary struct {
	Total     int `json:"total"`
	Refreshed int `json:"refreshed"`
	NotFound  int `json:"not_found"`
	Failed    int `json:"failed"`
}

// RunOnce synchronously refreshes every LIVE campaign with at most
// concurrency refreshes in flight. Per-campaign failures are counted, not
// returned; only a failure to list campaigns is an error.
func RunOnce(ctx context.Context, lister Lister, r Refresher, concurrency int, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "rescore")

	ids, err := lister.ListCampaignIDs(ctx, domain.CampaignLive)
	if err != nil {
		return Summary{}, fmt.Errorf("list live campaigns: %w", err)
	}

	var refreshed, notFound, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, id := range ids {
		g.Go(func() error {
			switch refreshOne(gctx, r, id, logger) {
			case outcomeSuccess:
				refreshed.Add(1)
			case outcomeNotFound:
				notFound.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{
		Total:     len(ids),
		Refreshed: int(refreshed.Load()),
		NotFound:  int(notFound.Load()),
		Failed:    int(failed.Load()),
	}
	logger.InfoContext(ctx, "rescore run completed",
		"operation", "run_once",
		"total", sum.Total,
		"refreshed", sum.Refreshed,
		"failed", sum.Failed,
	)
	return sum, ctx.Err()
}
