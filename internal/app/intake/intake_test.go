package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productlobby/signal/internal/domain"
	"github.com/productlobby/signal/internal/infra/sqlite"
)

type recordingTrigger struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingTrigger) Urgent(id string) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
}

func (r *recordingTrigger) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type fixture struct {
	svc     *Service
	db      *sqlite.DB
	trigger *recordingTrigger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	trig := &recordingTrigger{}
	svc := New(db, trig, 200, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, db: db, trigger: trig}
}

func (f fixture) campaign(t *testing.T, id string, status domain.CampaignStatus) {
	t.Helper()
	require.NoError(t, f.db.CreateCampaign(context.Background(), domain.Campaign{
		ID: id, Title: "Compostable phone case", Brand: "Pela", Status: status, CreatedAt: time.Now(),
	}))
}

func price(v float64) *float64 { return &v }

// ─── Lobbies ────────────────────────────────────────────────────────────────

func TestCreateLobby(t *testing.T) {
	f := newFixture(t)
	f.campaign(t, "c1", domain.CampaignLive)

	l, err := f.svc.CreateLobby(context.Background(), LobbyRequest{CampaignID: "c1", UserID: "u1", Intensity: "take_my_money"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntensityTakeMyMoney, l.Intensity)
	assert.Equal(t, domain.LobbyPending, l.Status)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, []string{"c1"}, f.trigger.calls())

	h, err := f.db.LobbyHistogram(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, h.TakeMyMoney)
}

func TestCreateLobby_Rejections(t *testing.T) {
	f := newFixture(t)
	f.campaign(t, "live", domain.CampaignLive)
	f.campaign(t, "draft", domain.CampaignDraft)

	tests := []struct {
		name string
		req  LobbyRequest
		want error
	}{
		{"missing user", LobbyRequest{CampaignID: "live", Intensity: "NEAT_IDEA"}, domain.ErrInvalidInput},
		{"bad intensity", LobbyRequest{CampaignID: "live", UserID: "u", Intensity: "MEH"}, domain.ErrInvalidIntensity},
		{"unknown campaign", LobbyRequest{CampaignID: "nope", UserID: "u", Intensity: "NEAT_IDEA"}, domain.ErrCampaignNotFound},
		{"draft campaign", LobbyRequest{CampaignID: "draft", UserID: "u", Intensity: "NEAT_IDEA"}, domain.ErrCampaignNotLive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateLobby(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.trigger.calls())
}

func TestCreateLobby_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.campaign(t, "c1", domain.CampaignLive)
	ctx := context.Background()

	_, err := f.svc.CreateLobby(ctx, LobbyRequest{CampaignID: "c1", UserID: "u1", Intensity: "NEAT_IDEA"})
	require.NoError(t, err)
	_, err = f.svc.CreateLobby(ctx, LobbyRequest{CampaignID: "c1", UserID: "u1", Intensity: "PROBABLY_BUY"})
	assert.ErrorIs(t, err, domain.ErrDuplicateLobby)
	assert.Len(t, f.trigger.calls(), 1)
}

// ─── Pledges ────────────────────────────────────────────────────────────────

func TestCreatePledge_PricePolicy(t *testing.T) {
	tests := []struct {
		name    string
		req     PledgeRequest
		wantErr error
	}{
		{"support without price", PledgeRequest{UserID: "u", Type: "SUPPORT"}, nil},
		{"intent without price", PledgeRequest{UserID: "u", Type: "INTENT"}, nil},
		{"intent at threshold unverified", PledgeRequest{UserID: "u", Type: "INTENT", PriceCeiling: price(200)}, nil},
		{"intent above threshold verified", PledgeRequest{UserID: "u", Type: "INTENT", PriceCeiling: price(450), PhoneVerified: true}, nil},
		{"intent above threshold unverified", PledgeRequest{UserID: "u", Type: "INTENT", PriceCeiling: price(200.01)}, domain.ErrPhoneVerificationRequired},
		{"support with price", PledgeRequest{UserID: "u", Type: "SUPPORT", PriceCeiling: price(10)}, domain.ErrInvalidPrice},
		{"negative price", PledgeRequest{UserID: "u", Type: "INTENT", PriceCeiling: price(-1)}, domain.ErrInvalidPrice},
		{"unknown type", PledgeRequest{UserID: "u", Type: "GIFT"}, domain.ErrInvalidPledgeType},
		{"missing user", PledgeRequest{Type: "SUPPORT"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.campaign(t, "c1", domain.CampaignLive)
			tt.req.CampaignID = "c1"

			p, err := f.svc.CreatePledge(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.trigger.calls())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "c1", p.CampaignID)
			assert.Equal(t, []string{"c1"}, f.trigger.calls())
		})
	}
}

func TestCreatePledge_CountsTowardAggregates(t *testing.T) {
	f := newFixture(t)
	f.campaign(t, "c1", domain.CampaignLive)
	ctx := context.Background()

	_, err := f.svc.CreatePledge(ctx, PledgeRequest{CampaignID: "c1", UserID: "a", Type: "INTENT", PriceCeiling: price(300), PhoneVerified: true})
	require.NoError(t, err)
	_, err = f.svc.CreatePledge(ctx, PledgeRequest{CampaignID: "c1", UserID: "a", Type: "SUPPORT"})
	require.NoError(t, err)
	_, err = f.svc.CreatePledge(ctx, PledgeRequest{CampaignID: "c1", UserID: "a", Type: "SUPPORT"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePledge)

	h, err := f.db.PledgeHistogram(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.PledgeHistogram{Support: 1, Intent: 1, IntentPhoneVerified: 1, PriceCeilingSum: 300}, h)
}

type failingStore struct{ Store }

func (failingStore) GetCampaign(context.Context, string) (*domain.Campaign, error) {
	return nil, errors.New("database is locked")
}

func TestCreatePledge_StoreFailureWrapped(t *testing.T) {
	svc := New(failingStore{}, nil, 200, nil)

	_, err := svc.CreatePledge(context.Background(), PledgeRequest{CampaignID: "c1", UserID: "u", Type: "SUPPORT"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCampaignNotFound)
	assert.Contains(t, err.Error(), "database is locked")
}
