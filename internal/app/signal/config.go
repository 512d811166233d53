// Package signal implements the ProductLobby demand signal score.
//
// A campaign's signal score blends three components:
//   - Lobby: conviction of lobbies (weighted by intensity) scaled by volume
//   - Pledge: support and purchase intent, phone-verified intent weighted highest
//   - Momentum: the lobby/pledge baseline adjusted by week-over-week intent growth
//
// score = 0.40×lobby + 0.30×pledge + 0.30×(baseline × momentumFactor)
//
// Every weight, threshold, and conversion rate lives in Config so callers can
// swap them without touching the calculation.
package signal

import (
	"fmt"
	"math"

	"github.com/productlobby/signal/internal/domain"
)

// ─── Tiers ──────────────────────────────────────────────────────────────────

// Tier is a named bucket of signal score.
type Tier string

const (
	TierEmerging     Tier = "EMERGING"
	TierTrending     Tier = "TRENDING"
	TierNotifyBrand  Tier = "NOTIFY_BRAND"
	TierHighSignal   Tier = "HIGH_SIGNAL"
	TierSuggestOffer Tier = "SUGGEST_OFFER"
)

// Thresholds are inclusive lower bounds for each tier above EMERGING.
type Thresholds struct {
	Trending     float64 `json:"TRENDING" toml:"trending"`
	NotifyBrand  float64 `json:"NOTIFY_BRAND" toml:"notify_brand"`
	HighSignal   float64 `json:"HIGH_SIGNAL" toml:"high_signal"`
	SuggestOffer float64 `json:"SUGGEST_OFFER" toml:"suggest_offer"`
}

// TierFor maps a score to its tier. A score equal to a threshold belongs to that tier.
func (t Thresholds) TierFor(score float64) Tier {
	switch {
	case score >= t.SuggestOffer:
		return TierSuggestOffer
	case score >= t.HighSignal:
		return TierHighSignal
	case score >= t.NotifyBrand:
		return TierNotifyBrand
	case score >= t.Trending:
		return TierTrending
	default:
		return TierEmerging
	}
}

// ActionSuggestion returns the recommended next step for a tier.
func ActionSuggestion(tier Tier) string {
	switch tier {
	case TierSuggestOffer:
		return "Demand justifies a pre-order offer. Suggest the brand open an offer to committed buyers."
	case TierHighSignal:
		return "High purchase signal. Prepare a brand pitch backed by pledge and price data."
	case TierNotifyBrand:
		return "Demand is strong enough to notify the brand."
	case TierTrending:
		return "Campaign is trending. Feature it to keep momentum going."
	default:
		return "Keep sharing the campaign to build early demand."
	}
}

// ─── Weights & Rates ────────────────────────────────────────────────────────

// Weights are the component weights of the final score. They must sum to 1.0.
type Weights struct {
	Lobby    float64 `json:"lobby" toml:"lobby"`
	Pledge   float64 `json:"pledge" toml:"pledge"`
	Momentum float64 `json:"momentum" toml:"momentum"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Lobby + w.Pledge + w.Momentum
}

// ConversionRates is the fixed share of each signal expected to become a customer.
type ConversionRates struct {
	NeatIdea    float64 `json:"NEAT_IDEA" toml:"neat_idea"`
	ProbablyBuy float64 `json:"PROBABLY_BUY" toml:"probably_buy"`
	TakeMyMoney float64 `json:"TAKE_MY_MONEY" toml:"take_my_money"`
	Support     float64 `json:"SUPPORT" toml:"support"`
	Intent      float64 `json:"INTENT" toml:"intent"`
}

// ForIntensity returns the conversion rate for a lobby intensity.
func (r ConversionRates) ForIntensity(i domain.Intensity) float64 {
	switch i {
	case domain.IntensityNeatIdea:
		return r.NeatIdea
	case domain.IntensityProbablyBuy:
		return r.ProbablyBuy
	case domain.IntensityTakeMyMoney:
		return r.TakeMyMoney
	}
	return 0
}

// ForPledge returns the conversion rate for a pledge type.
func (r ConversionRates) ForPledge(t domain.PledgeType) float64 {
	switch t {
	case domain.PledgeSupport:
		return r.Support
	case domain.PledgeIntent:
		return r.Intent
	}
	return 0
}

// ─── Defaults ───────────────────────────────────────────────────────────────

const (
	DefaultLobbyWeight    = 0.40
	DefaultPledgeWeight   = 0.30
	DefaultMomentumWeight = 0.30

	// Pledge weights: verified intent carries the most signal.
	DefaultSupportPledgeWeight    = 1.0
	DefaultIntentPledgeWeight     = 3.0
	DefaultVerifiedIntentWeight   = 5.0
	DefaultLobbySaturation        = 50.0
	DefaultPledgeSaturation       = 40.0
	DefaultGrowingAbove           = 1.2
	DefaultDecliningBelow         = 0.8
	DefaultMinMomentumFactor      = 0.5
	DefaultMaxMomentumFactor      = 1.5
	DefaultPrice                  = 49.99
	DefaultPhoneVerificationPrice = 200.0
)

// Config holds every constant the scoring engine uses.
type Config struct {
	Weights    Weights         `json:"weights" toml:"weights"`
	Thresholds Thresholds      `json:"thresholds" toml:"thresholds"`
	Conversion ConversionRates `json:"conversion_rates" toml:"conversion_rates"`

	// DefaultPrice stands in for the median price ceiling when no INTENT
	// pledge carries a price.
	DefaultPrice float64 `json:"default_price" toml:"default_price"`

	SupportPledgeWeight  float64 `json:"support_pledge_weight" toml:"support_pledge_weight"`
	IntentPledgeWeight   float64 `json:"intent_pledge_weight" toml:"intent_pledge_weight"`
	VerifiedIntentWeight float64 `json:"verified_intent_weight" toml:"verified_intent_weight"`

	// Saturation is the count at which a volume component reaches half its maximum.
	LobbySaturation  float64 `json:"lobby_saturation" toml:"lobby_saturation"`
	PledgeSaturation float64 `json:"pledge_saturation" toml:"pledge_saturation"`

	GrowingAbove      float64 `json:"growing_above" toml:"growing_above"`
	DecliningBelow    float64 `json:"declining_below" toml:"declining_below"`
	MinMomentumFactor float64 `json:"min_momentum_factor" toml:"min_momentum_factor"`
	MaxMomentumFactor float64 `json:"max_momentum_factor" toml:"max_momentum_factor"`

	// PhoneVerificationPrice is the INTENT price ceiling above which a pledge
	// must come from a phone-verified user.
	PhoneVerificationPrice float64 `json:"phone_verification_price" toml:"phone_verification_price"`
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Lobby:    DefaultLobbyWeight,
			Pledge:   DefaultPledgeWeight,
			Momentum: DefaultMomentumWeight,
		},
		Thresholds: Thresholds{
			Trending:     20,
			NotifyBrand:  40,
			HighSignal:   60,
			SuggestOffer: 80,
		},
		Conversion: ConversionRates{
			NeatIdea:    0.05,
			ProbablyBuy: 0.25,
			TakeMyMoney: 0.60,
			Support:     0.10,
			Intent:      0.50,
		},
		DefaultPrice:           DefaultPrice,
		SupportPledgeWeight:    DefaultSupportPledgeWeight,
		IntentPledgeWeight:     DefaultIntentPledgeWeight,
		VerifiedIntentWeight:   DefaultVerifiedIntentWeight,
		LobbySaturation:        DefaultLobbySaturation,
		PledgeSaturation:       DefaultPledgeSaturation,
		GrowingAbove:           DefaultGrowingAbove,
		DecliningBelow:         DefaultDecliningBelow,
		MinMomentumFactor:      DefaultMinMomentumFactor,
		MaxMomentumFactor:      DefaultMaxMomentumFactor,
		PhoneVerificationPrice: DefaultPhoneVerificationPrice,
	}
}

// Validate checks the invariants the calculator relies on for a bounded,
// monotonic score.
func (c Config) Validate() error {
	w := c.Weights
	if w.Lobby < 0 || w.Pledge < 0 || w.Momentum < 0 {
		return fmt.Errorf("negative weight: %+v", w)
	}
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	if w.Lobby+w.Pledge <= 0 {
		return fmt.Errorf("lobby and pledge weights cannot both be zero")
	}

	t := c.Thresholds
	if !(0 < t.Trending && t.Trending < t.NotifyBrand && t.NotifyBrand < t.HighSignal &&
		t.HighSignal < t.SuggestOffer && t.SuggestOffer <= 100) {
		return fmt.Errorf("thresholds must be strictly ascending within (0, 100]: %+v", t)
	}

	r := c.Conversion
	for name, v := range map[string]float64{
		"neat_idea": r.NeatIdea, "probably_buy": r.ProbablyBuy, "take_my_money": r.TakeMyMoney,
		"support": r.Support, "intent": r.Intent,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("conversion rate %s = %f, must be in [0, 1]", name, v)
		}
	}

	if c.SupportPledgeWeight < 0 || c.IntentPledgeWeight < 0 || c.VerifiedIntentWeight < 0 {
		return fmt.Errorf("pledge weights must be non-negative")
	}
	if c.LobbySaturation <= 0 || c.PledgeSaturation <= 0 {
		return fmt.Errorf("saturation constants must be positive")
	}
	if c.DecliningBelow > c.GrowingAbove {
		return fmt.Errorf("declining_below (%f) exceeds growing_above (%f)", c.DecliningBelow, c.GrowingAbove)
	}
	if c.MinMomentumFactor <= 0 || c.MinMomentumFactor > c.MaxMomentumFactor {
		return fmt.Errorf("momentum factor bounds invalid: [%f, %f]", c.MinMomentumFactor, c.MaxMomentumFactor)
	}
	if c.DefaultPrice < 0 {
		return fmt.Errorf("default price must be non-negative")
	}
	return nil
}
