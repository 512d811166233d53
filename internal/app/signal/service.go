package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/productlobby/signal/internal/domain"
	"github.com/productlobby/signal/internal/infra/observability"
)

// Window is the length of each momentum window.
const Window = 7 * 24 * time.Hour

// Evaluation is a computed result together with the campaign it describes and
// the cache value the caller should persist.
type Evaluation struct {
	Campaign domain.Campaign   `json:"campaign"`
	Result   Result            `json:"result"`
	Cache    domain.ScoreCache `json:"cache"`
}

// ScoreStore is the storage surface the service needs.
type ScoreStore interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	SaveSignalScore(ctx context.Context, cache domain.ScoreCache) error
	domain.SignalAggregates
}

// Service loads campaign aggregates, runs the calculator, and writes the
// score back onto the campaign.
type Service struct {
	store  ScoreStore
	calc   *Calculator
	logger *slog.Logger

	// Injectable clock for testing.
	now func() time.Time
}

// NewService creates a scoring service. A nil logger uses slog.Default().
func NewService(store ScoreStore, calc *Calculator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		calc:   calc,
		logger: logger.With("module", "signal"),
		now:    time.Now,
	}
}

// Calculator returns the underlying calculator.
func (s *Service) Calculator() *Calculator { return s.calc }

// Evaluate computes the signal score for a campaign without persisting it.
// Returns domain.ErrCampaignNotFound when the campaign does not exist.
func (s *Service) Evaluate(ctx context.Context, campaignID string) (Evaluation, error) {
	start := s.now()

	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			observability.SignalNotFound.Inc()
			return Evaluation{}, err
		}
		observability.StoreErrors.WithLabelValues("get_campaign").Inc()
		return Evaluation{}, fmt.Errorf("load campaign %s: %w", campaignID, err)
	}

	inputs, err := s.gather(ctx, campaignID, start)
	if err != nil {
		return Evaluation{}, err
	}

	result := s.calc.Calculate(inputs)
	now := s.now().UTC()

	observability.SignalComputations.WithLabelValues(string(result.Tier)).Inc()
	observability.SignalScores.Observe(result.Score)
	observability.SignalComputeDuration.Observe(s.now().Sub(start).Seconds())

	return Evaluation{
		Campaign: *campaign,
		Result:   result,
		Cache: domain.ScoreCache{
			CampaignID: campaignID,
			Score:      result.Score,
			UpdatedAt:  now,
		},
	}, nil
}

// Refresh evaluates a campaign and writes the score through to storage.
// Concurrent refreshes of the same campaign are last-writer-wins.
func (s *Service) Refresh(ctx context.Context, campaignID string) (Evaluation, error) {
	ev, err := s.Evaluate(ctx, campaignID)
	if err != nil {
		return Evaluation{}, err
	}
	if err := s.Persist(ctx, ev.Cache); err != nil {
		return Evaluation{}, err
	}

	score, at := ev.Cache.Score, ev.Cache.UpdatedAt
	ev.Campaign.SignalScore = &score
	ev.Campaign.SignalScoreUpdatedAt = &at

	s.logger.DebugContext(ctx, "signal score refreshed",
		"operation", "refresh",
		"campaign_id", campaignID,
		"score", ev.Result.Score,
		"tier", ev.Result.Tier,
		"momentum_trend", ev.Result.Momentum.Trend,
	)
	return ev, nil
}

// Persist writes a cache value onto its campaign.
func (s *Service) Persist(ctx context.Context, cache domain.ScoreCache) error {
	if err := s.store.SaveSignalScore(ctx, cache); err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			return err
		}
		observability.StoreErrors.WithLabelValues("save_signal_score").Inc()
		return fmt.Errorf("save signal score %s: %w", cache.CampaignID, err)
	}
	return nil
}

// gather issues the aggregate reads concurrently.
func (s *Service) gather(ctx context.Context, campaignID string, now time.Time) (domain.SignalInputs, error) {
	var (
		in     domain.SignalInputs
		prices []float64
	)
	now = now.UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := s.store.LobbyHistogram(gctx, campaignID)
		if err != nil {
			return storeErr("lobby_histogram", err)
		}
		in.Lobbies = h
		return nil
	})
	g.Go(func() error {
		h, err := s.store.PledgeHistogram(gctx, campaignID)
		if err != nil {
			return storeErr("pledge_histogram", err)
		}
		in.Pledges = h
		return nil
	})
	g.Go(func() error {
		p, err := s.store.IntentPriceCeilings(gctx, campaignID)
		if err != nil {
			return storeErr("intent_price_ceilings", err)
		}
		prices = p
		return nil
	})
	g.Go(func() error {
		n, err := s.store.IntentCountBetween(gctx, campaignID, now.Add(-Window), now)
		if err != nil {
			return storeErr("intent_count_last", err)
		}
		in.IntentLast7Days = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.IntentCountBetween(gctx, campaignID, now.Add(-2*Window), now.Add(-Window))
		if err != nil {
			return storeErr("intent_count_prev", err)
		}
		in.IntentPrev7Days = n
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "signal aggregate read failed",
			"operation", "gather",
			"campaign_id", campaignID,
			"outcome", "error",
			"error", err,
		)
		return domain.SignalInputs{}, err
	}

	in.Prices = domain.NewPriceStats(prices)
	return in, nil
}

func storeErr(op string, err error) error {
	observability.StoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w", op, err)
}
