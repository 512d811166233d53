package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// CampaignStore abstracts persistent campaign, lobby, and pledge storage.
// Both the SQLite and Postgres adapters implement it.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, c Campaign) error
	GetCampaign(ctx context.Context, id string) (*Campaign, error) // ErrCampaignNotFound
	ListCampaignIDs(ctx context.Context, status CampaignStatus) ([]string, error)
	TopCampaigns(ctx context.Context, status CampaignStatus, limit int) ([]Campaign, error)

	CreateLobby(ctx context.Context, l Lobby) error   // ErrDuplicateLobby
	CreatePledge(ctx context.Context, p Pledge) error // ErrDuplicatePledge

	SignalAggregates
	SaveSignalScore(ctx context.Context, cache ScoreCache) error // ErrCampaignNotFound
}

// SignalAggregates is the read side the scoring service needs.
// Each method is an independent query so callers may issue them concurrently.
type SignalAggregates interface {
	LobbyHistogram(ctx context.Context, campaignID string) (LobbyHistogram, error)
	PledgeHistogram(ctx context.Context, campaignID string) (PledgeHistogram, error)
	IntentPriceCeilings(ctx context.Context, campaignID string) ([]float64, error)
	// IntentCountBetween counts INTENT pledges created in [from, to).
	IntentCountBetween(ctx context.Context, campaignID string, from, to time.Time) (int, error)
}
