// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture and depends on nothing.
package domain

import (
	"strings"
	"time"
)

// ─── Campaign Types ─────────────────────────────────────────────────────────

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft  CampaignStatus = "DRAFT"
	CampaignLive   CampaignStatus = "LIVE"
	CampaignPaused CampaignStatus = "PAUSED"
	CampaignClosed CampaignStatus = "CLOSED"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignLive, CampaignPaused, CampaignClosed:
		return true
	}
	return false
}

// Campaign is a user-created request for a product or feature from a brand.
// SignalScore and SignalScoreUpdatedAt are a cache written by the scoring
// service; they are nil until the first computation.
type Campaign struct {
	ID                   string         `json:"id"`
	Title                string         `json:"title"`
	Brand                string         `json:"brand"`
	Status               CampaignStatus `json:"status"`
	SignalScore          *float64       `json:"signal_score,omitempty"`
	SignalScoreUpdatedAt *time.Time     `json:"signal_score_updated_at,omitempty"`
	CompletenessScore    int            `json:"completeness_score"`
	CreatedAt            time.Time      `json:"created_at"`
}

// ─── Lobby Types ────────────────────────────────────────────────────────────

// Intensity is the ordinal strength of a lobby.
// NEAT_IDEA < PROBABLY_BUY < TAKE_MY_MONEY.
type Intensity string

const (
	IntensityNeatIdea    Intensity = "NEAT_IDEA"
	IntensityProbablyBuy Intensity = "PROBABLY_BUY"
	IntensityTakeMyMoney Intensity = "TAKE_MY_MONEY"
)

// Intensities lists all intensity levels, weakest first.
var Intensities = []Intensity{IntensityNeatIdea, IntensityProbablyBuy, IntensityTakeMyMoney}

// Rank returns the ordinal weight of the intensity (1..3), or 0 if unknown.
func (i Intensity) Rank() int {
	switch i {
	case IntensityNeatIdea:
		return 1
	case IntensityProbablyBuy:
		return 2
	case IntensityTakeMyMoney:
		return 3
	}
	return 0
}

// ParseIntensity normalizes user input ("take_my_money", " NEAT_IDEA ") into an Intensity.
func ParseIntensity(s string) (Intensity, error) {
	i := Intensity(strings.ToUpper(strings.TrimSpace(s)))
	if i.Rank() == 0 {
		return "", ErrInvalidIntensity
	}
	return i, nil
}

// LobbyStatus tracks verification of a lobby. VERIFIED lobbies are immutable.
type LobbyStatus string

const (
	LobbyPending  LobbyStatus = "PENDING"
	LobbyVerified LobbyStatus = "VERIFIED"
)

// Lobby is a user's recorded support for a campaign.
type Lobby struct {
	ID         string      `json:"id"`
	CampaignID string      `json:"campaign_id"`
	UserID     string      `json:"user_id"`
	Intensity  Intensity   `json:"intensity"`
	Status     LobbyStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ─── Pledge Types ───────────────────────────────────────────────────────────

// PledgeType distinguishes plain support from purchase intent.
type PledgeType string

const (
	PledgeSupport PledgeType = "SUPPORT"
	PledgeIntent  PledgeType = "INTENT"
)

// ParsePledgeType normalizes user input into a PledgeType.
func ParsePledgeType(s string) (PledgeType, error) {
	switch t := PledgeType(strings.ToUpper(strings.TrimSpace(s))); t {
	case PledgeSupport, PledgeIntent:
		return t, nil
	}
	return "", ErrInvalidPledgeType
}

// Pledge is a user's purchase commitment. PriceCeiling is only set for INTENT.
type Pledge struct {
	ID            string     `json:"id"`
	CampaignID    string     `json:"campaign_id"`
	UserID        string     `json:"user_id"`
	Type          PledgeType `json:"pledge_type"`
	PriceCeiling  *float64   `json:"price_ceiling,omitempty"`
	PhoneVerified bool       `json:"phone_verified"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ─── Aggregates ─────────────────────────────────────────────────────────────

// LobbyHistogram counts lobbies per intensity.
type LobbyHistogram struct {
	NeatIdea    int `json:"neat_idea"`
	ProbablyBuy int `json:"probably_buy"`
	TakeMyMoney int `json:"take_my_money"`
}

// Total returns the number of lobbies across all intensities.
func (h LobbyHistogram) Total() int {
	return h.NeatIdea + h.ProbablyBuy + h.TakeMyMoney
}

// Add increments the bucket for the given intensity by n.
func (h *LobbyHistogram) Add(i Intensity, n int) {
	switch i {
	case IntensityNeatIdea:
		h.NeatIdea += n
	case IntensityProbablyBuy:
		h.ProbablyBuy += n
	case IntensityTakeMyMoney:
		h.TakeMyMoney += n
	}
}

// PledgeHistogram counts pledges by type. IntentPhoneVerified is a subset of Intent.
// PriceCeilingSum totals the price ceilings of INTENT pledges that carry one.
type PledgeHistogram struct {
	Support             int     `json:"support"`
	Intent              int     `json:"intent"`
	IntentPhoneVerified int     `json:"intent_phone_verified"`
	PriceCeilingSum     float64 `json:"price_ceiling_sum"`
}

// PriceStats summarizes INTENT price ceilings.
type PriceStats struct {
	Median  float64 `json:"median"`
	P90     float64 `json:"p90"`
	Samples int     `json:"samples"`
}

// SignalInputs is the full set of aggregates consumed by the scoring engine.
type SignalInputs struct {
	Lobbies         LobbyHistogram  `json:"lobbies"`
	Pledges         PledgeHistogram `json:"pledges"`
	Prices          PriceStats      `json:"prices"`
	IntentLast7Days int             `json:"intent_last_7_days"`
	IntentPrev7Days int             `json:"intent_prev_7_days"`
}

// ScoreCache is the cached score value written back onto a campaign.
type ScoreCache struct {
	CampaignID string    `json:"campaign_id"`
	Score      float64   `json:"score"`
	UpdatedAt  time.Time `json:"updated_at"`
}
