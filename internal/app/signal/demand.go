package signal

import (
	"math"

	"github.com/productlobby/signal/internal/domain"
)

// Demand is the projected commercial value of a campaign.
type Demand struct {
	ProjectedCustomers int     `json:"projectedCustomers"`
	ProjectedRevenue   float64 `json:"projectedRevenue"`
	// Price is the per-unit price used for revenue: the median price ceiling
	// when price data exists, otherwise the configured default.
	Price float64 `json:"price"`
	// Value is the total stated willingness to pay across INTENT pledges.
	Value float64 `json:"value"`
}

// EstimateDemand converts lobby and pledge counts into projected customers and revenue.
//
//	customers = round(Σ count_k × conversion_k)  over intensities and pledge types
//	revenue   = round2(customers × price)
func EstimateDemand(lobbies domain.LobbyHistogram, pledges domain.PledgeHistogram, prices domain.PriceStats, cfg Config) Demand {
	r := cfg.Conversion
	expected := float64(nonNeg(lobbies.NeatIdea))*r.NeatIdea +
		float64(nonNeg(lobbies.ProbablyBuy))*r.ProbablyBuy +
		float64(nonNeg(lobbies.TakeMyMoney))*r.TakeMyMoney +
		float64(nonNeg(pledges.Support))*r.Support +
		float64(nonNeg(pledges.Intent))*r.Intent

	price := cfg.DefaultPrice
	if prices.Samples > 0 {
		price = prices.Median
	}

	customers := int(math.Round(expected))
	return Demand{
		ProjectedCustomers: customers,
		ProjectedRevenue:   domain.RoundTo(float64(customers)*price, 2),
		Price:              price,
		Value:              domain.RoundTo(math.Max(pledges.PriceCeilingSum, 0), 2),
	}
}

func nonNeg(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
