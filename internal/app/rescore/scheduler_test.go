package rescore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/productlobby/signal/internal/app/signal"
	"github.com/productlobby/signal/internal/domain"
	"github.com/productlobby/signal/internal/infra/redislock"
	"github.com/productlobby/signal/internal/infra/sqlite"
)

type staticLister struct {
	ids []string
	err error
}

func (s staticLister) ListCampaignIDs(context.Context, domain.CampaignStatus) ([]string, error) {
	return s.ids, s.err
}

type denyLocker struct{ err error }

func (d denyLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return nil, false, d.err
}

// ─── Sweep ──────────────────────────────────────────────────────────────────

func TestSweep_EnqueuesLiveCampaigns(t *testing.T) {
	q := NewQueue(DefaultQueueConfig())
	q.Urgent("b")
	s := NewScheduler(staticLister{ids: []string{"a", "b", "c"}}, q, redislock.Noop{}, time.Minute, nil)

	n, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if n != 2 {
		t.Errorf("queued = %d, want 2 (b already queued at better priority)", n)
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	if first, _ := q.Pop(); first != "b" {
		t.Errorf("first pop = %s, want urgent b", first)
	}
}

func TestSweep_SkipsWhenLockHeld(t *testing.T) {
	q := NewQueue(DefaultQueueConfig())
	s := NewScheduler(staticLister{ids: []string{"a"}}, q, denyLocker{}, time.Minute, nil)

	n, err := s.Sweep(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Sweep() = %d, %v; want 0, nil", n, err)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestSweep_Errors(t *testing.T) {
	q := NewQueue(DefaultQueueConfig())
	boom := errors.New("redis down")

	s := NewScheduler(staticLister{}, q, denyLocker{err: boom}, time.Minute, nil)
	if _, err := s.Sweep(context.Background()); !errors.Is(err, boom) {
		t.Errorf("lock error = %v, want %v", err, boom)
	}

	s = NewScheduler(staticLister{err: boom}, q, redislock.Noop{}, time.Minute, nil)
	if _, err := s.Sweep(context.Background()); !errors.Is(err, boom) {
		t.Errorf("list error = %v, want %v", err, boom)
	}
}

func TestSchedulerRun_StopsOnCancel(t *testing.T) {
	q := NewQueue(DefaultQueueConfig())
	s := NewScheduler(staticLister{ids: []string{"a"}}, q, redislock.Noop{}, 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (deduplicated across ticks)", q.Len())
	}
}

func TestSchedulerRun_RejectsZeroInterval(t *testing.T) {
	s := NewScheduler(staticLister{}, NewQueue(DefaultQueueConfig()), redislock.Noop{}, 0, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run() with zero interval should fail")
	}
}

// ─── RunOnce ────────────────────────────────────────────────────────────────

func TestRunOnce_RefreshesLiveCampaigns(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("sqlite.Open() error: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	for _, c := range []domain.Campaign{
		{ID: "live-1", Title: "A", Status: domain.CampaignLive, CreatedAt: time.Now()},
		{ID: "live-2", Title: "B", Status: domain.CampaignLive, CreatedAt: time.Now()},
		{ID: "draft", Title: "C", Status: domain.CampaignDraft, CreatedAt: time.Now()},
	} {
		if err := db.CreateCampaign(ctx, c); err != nil {
			t.Fatalf("CreateCampaign() error: %v", err)
		}
	}
	if err := db.CreateLobby(ctx, domain.Lobby{
		ID: "l1", CampaignID: "live-1", UserID: "u1", Intensity: domain.IntensityTakeMyMoney,
		Status: domain.LobbyPending, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("CreateLobby() error: %v", err)
	}

	calc, err := signal.NewCalculator(signal.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	svc := signal.NewService(db, calc, nil)

	sum, err := RunOnce(ctx, db, svc, 2, nil)
	if err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	if sum.Total != 2 || sum.Refreshed != 2 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want 2 total, 2 refreshed", sum)
	}

	c, err := db.GetCampaign(ctx, "live-1")
	if err != nil {
		t.Fatal(err)
	}
	if c.SignalScore == nil || *c.SignalScore <= 0 {
		t.Errorf("live-1 score = %v, want positive cached score", c.SignalScore)
	}
	d, _ := db.GetCampaign(ctx, "draft")
	if d.SignalScore != nil {
		t.Error("draft campaign should not be rescored")
	}
}

func TestRunOnce_CountsFailures(t *testing.T) {
	r := newFakeRefresher()
	r.fail["x"] = errors.New("timeout")
	r.fail["y"] = domain.ErrCampaignNotFound

	sum, err := RunOnce(context.Background(), staticLister{ids: []string{"x", "y", "z"}}, r, 4, nil)
	if err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	want := Summary{Total: 3, Refreshed: 1, NotFound: 1, Failed: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
}
