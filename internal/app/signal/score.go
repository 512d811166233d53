package signal

import (
	"math"

	"github.com/productlobby/signal/internal/domain"
)

// ─── Result ─────────────────────────────────────────────────────────────────

// Components holds the 0–100 sub-scores that feed the final score.
type Components struct {
	Lobby    float64 `json:"lobby"`
	Pledge   float64 `json:"pledge"`
	Baseline float64 `json:"baseline"` // weighted mean of lobby and pledge
	Momentum float64 `json:"momentum"` // baseline after momentum adjustment
}

// Result is the output of one signal score computation.
type Result struct {
	Score              float64             `json:"score"`
	Tier               Tier                `json:"tier"`
	Inputs             domain.SignalInputs `json:"inputs"`
	LobbyConviction    float64             `json:"lobbyConviction"`
	Components         Components          `json:"components"`
	Momentum           Momentum            `json:"momentum"`
	DemandValue        float64             `json:"demandValue"`
	ProjectedCustomers int                 `json:"projectedCustomers"`
	ProjectedRevenue   float64             `json:"projectedRevenue"`
	Price              float64             `json:"price"`
	ActionSuggestion   string              `json:"actionSuggestion"`
}

// ─── Calculator ─────────────────────────────────────────────────────────────

// Calculator computes signal scores. It holds only configuration and is safe
// for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator after validating cfg.
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Config returns the calculator's configuration.
func (c *Calculator) Config() Config { return c.cfg }

// Calculate scores a campaign from its aggregates. It never fails: all-zero
// inputs yield score 0 and the lowest tier.
func (c *Calculator) Calculate(in domain.SignalInputs) Result {
	cfg := c.cfg
	w := cfg.Weights

	conviction := LobbyConviction(in.Lobbies)
	lobby := lobbyScore(in.Lobbies, conviction, cfg)
	pledge := pledgeScore(in.Pledges, cfg)
	mom := CalculateMomentum(in.IntentLast7Days, in.IntentPrev7Days, cfg)

	baseline := (w.Lobby*lobby + w.Pledge*pledge) / (w.Lobby + w.Pledge)
	adjusted := baseline * mom.factor(cfg)

	raw := w.Lobby*lobby + w.Pledge*pledge + w.Momentum*adjusted
	score := domain.RoundTo(clamp(raw, 0, 100), 1)
	tier := cfg.Thresholds.TierFor(score)

	demand := EstimateDemand(in.Lobbies, in.Pledges, in.Prices, cfg)

	return Result{
		Score:           score,
		Tier:            tier,
		Inputs:          in,
		LobbyConviction: domain.RoundTo(conviction, 2),
		Components: Components{
			Lobby:    domain.RoundTo(lobby, 2),
			Pledge:   domain.RoundTo(pledge, 2),
			Baseline: domain.RoundTo(baseline, 2),
			Momentum: domain.RoundTo(adjusted, 2),
		},
		Momentum:           mom,
		DemandValue:        demand.Value,
		ProjectedCustomers: demand.ProjectedCustomers,
		ProjectedRevenue:   demand.ProjectedRevenue,
		Price:              demand.Price,
		ActionSuggestion:   ActionSuggestion(tier),
	}
}

// ─── Sub-scores ─────────────────────────────────────────────────────────────

// LobbyConviction is the intensity-weighted average of lobbies on a 0–100 scale:
//
//	conviction = 100 × (1·neat + 2·probably + 3·takeMyMoney) / (3 × total)
//
// Zero lobbies yield 0. A campaign with only NEAT_IDEA lobbies scores 33.3,
// only TAKE_MY_MONEY scores 100.
func LobbyConviction(h domain.LobbyHistogram) float64 {
	n, p, t := nonNeg(h.NeatIdea), nonNeg(h.ProbablyBuy), nonNeg(h.TakeMyMoney)
	total := n + p + t
	if total == 0 {
		return 0
	}
	weighted := float64(n*domain.IntensityNeatIdea.Rank() +
		p*domain.IntensityProbablyBuy.Rank() +
		t*domain.IntensityTakeMyMoney.Rank())
	maxRank := float64(domain.IntensityTakeMyMoney.Rank())
	return 100 * weighted / (maxRank * float64(total))
}

// lobbyScore scales conviction by a saturating volume factor total/(total+S).
func lobbyScore(h domain.LobbyHistogram, conviction float64, cfg Config) float64 {
	total := float64(nonNeg(h.NeatIdea) + nonNeg(h.ProbablyBuy) + nonNeg(h.TakeMyMoney))
	return conviction * saturate(total, cfg.LobbySaturation)
}

// pledgeScore blends support, unverified intent, and phone-verified intent.
func pledgeScore(h domain.PledgeHistogram, cfg Config) float64 {
	intent := nonNeg(h.Intent)
	verified := min(nonNeg(h.IntentPhoneVerified), intent)
	unverified := intent - verified

	weighted := cfg.SupportPledgeWeight*float64(nonNeg(h.Support)) +
		cfg.IntentPledgeWeight*float64(unverified) +
		cfg.VerifiedIntentWeight*float64(verified)
	return 100 * saturate(weighted, cfg.PledgeSaturation)
}

// ─── Pure Helper Functions ──────────────────────────────────────────────────

// saturate maps x ≥ 0 onto [0, 1): x / (x + half). Half is the value at 0.5.
func saturate(x, half float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (x + half)
}

// clamp restricts a value to [lo, hi]. NaN collapses to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
