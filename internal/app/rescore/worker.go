package rescore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/productlobby/signal/internal/app/signal"
	"github.com/productlobby/signal/internal/domain"
	"github.com/productlobby/signal/internal/infra/observability"
)

// Refresher recomputes and persists one campaign's score.
type Refresher interface {
	Refresh(ctx context.Context, campaignID string) (signal.Evaluation, error)
}

// WorkerConfig controls worker behavior.
type WorkerConfig struct {
	MaxConcurrent int           // Maximum refreshes in flight (default: 4)
	JobTimeout    time.Duration // Per-refresh timeout (default: 30s)
}

// DefaultWorkerConfig returns safe worker defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxConcurrent: 4,
		JobTimeout:    30 * time.Second,
	}
}

// Worker drains a Queue with bounded concurrency.
type Worker struct {
	mu        sync.RWMutex
	config    WorkerConfig
	queue     *Queue
	refresher Refresher
	logger    *slog.Logger
	sem       chan struct{} // Concurrency semaphore
	wg        sync.WaitGroup
	active    int
	completed int64
	failed    int64
}

// NewWorker creates a worker. A nil logger uses slog.Default().
func NewWorker(cfg WorkerConfig, q *Queue, r Refresher, logger *slog.Logger) *Worker {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		config:    cfg,
		queue:     q,
		refresher: r,
		logger:    logger.With("module", "rescore"),
		sem:       make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Run processes jobs until ctx is cancelled, then waits for in-flight
// refreshes to finish.
func (w *Worker) Run(ctx context.Context) error {
	defer w.wg.Wait()
	for {
		id, ok := w.queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-w.queue.Ready():
				continue
			}
		}

		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			// Put it back for the next run or replica.
			w.queue.Push(id, PriorityUrgent)
			return nil
		}

		w.wg.Add(1)
		go w.process(ctx, id)
	}
}

func (w *Worker) process(ctx context.Context, campaignID string) {
	defer w.wg.Done()
	defer func() { <-w.sem }()

	w.mu.Lock()
	w.active++
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.active--
		w.mu.Unlock()
	}()

	jobCtx := ctx
	if w.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.config.JobTimeout)
		defer cancel()
	}

	outcome := refreshOne(jobCtx, w.refresher, campaignID, w.logger)

	w.mu.Lock()
	if outcome == outcomeError {
		w.failed++
	} else {
		w.completed++
	}
	w.mu.Unlock()
}

const (
	outcomeSuccess  = "success"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// refreshOne runs a single refresh and records its outcome. Errors are logged,
// never returned: one failing campaign must not stop the others.
func refreshOne(ctx context.Context, r Refresher, campaignID string, logger *slog.Logger) string {
	ev, err := r.Refresh(ctx, campaignID)
	switch {
	case err == nil:
		observability.RescoreJobs.WithLabelValues(outcomeSuccess).Inc()
		logger.DebugContext(ctx, "campaign rescored",
			"operation", "rescore",
			"campaign_id", campaignID,
			"score", ev.Result.Score,
			"tier", ev.Result.Tier,
			"outcome", outcomeSuccess,
		)
		return outcomeSuccess
	case errors.Is(err, domain.ErrCampaignNotFound):
		observability.RescoreJobs.WithLabelValues(outcomeNotFound).Inc()
		logger.WarnContext(ctx, "rescore skipped, campaign gone",
			"operation", "rescore",
			"campaign_id", campaignID,
			"outcome", outcomeNotFound,
		)
		return outcomeNotFound
	default:
		observability.RescoreJobs.WithLabelValues(outcomeError).Inc()
		logger.ErrorContext(ctx, "rescore failed",
			"operation", "rescore",
			"campaign_id", campaignID,
			"outcome", outcomeError,
			"error", err,
		)
		return outcomeError
	}
}

// Stats reports worker counters.
type Stats struct {
	Active    int   `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	MaxSlots  int   `json:"max_slots"`
	Queued    int   `json:"queued"`
}

// Stats returns current worker statistics.
func (w *Worker) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Stats{
		Active:    w.active,
		Completed: w.completed,
		Failed:    w.failed,
		MaxSlots:  w.config.MaxConcurrent,
		Queued:    w.queue.Len(),
	}
}
