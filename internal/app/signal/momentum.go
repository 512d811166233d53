package signal

// Trend classifies week-over-week intent activity.
type Trend string

const (
	TrendGrowing   Trend = "growing"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Momentum compares intent pledges in the trailing 7 days against the 7 days before.
type Momentum struct {
	Value     float64 `json:"value"`
	Last7Days int     `json:"last7Days"`
	Prev7Days int     `json:"prev7Days"`
	Trend     Trend   `json:"trend"`
}

// CalculateMomentum computes current7 / max(prior7, 1).
//
// With no activity in either window the ratio is defined as 1.0 (stable);
// a quiet campaign is not declining. Negative counts are treated as zero.
func CalculateMomentum(current7, prior7 int, cfg Config) Momentum {
	if current7 < 0 {
		current7 = 0
	}
	if prior7 < 0 {
		prior7 = 0
	}

	m := Momentum{Last7Days: current7, Prev7Days: prior7}
	if current7 == 0 && prior7 == 0 {
		m.Value = 1.0
		m.Trend = TrendStable
		return m
	}

	m.Value = float64(current7) / float64(max(prior7, 1))
	switch {
	case m.Value > cfg.GrowingAbove:
		m.Trend = TrendGrowing
	case m.Value < cfg.DecliningBelow:
		m.Trend = TrendDeclining
	default:
		m.Trend = TrendStable
	}
	return m
}

// factor maps momentum onto a multiplier in [Min/Max, 1] for the baseline component.
func (m Momentum) factor(cfg Config) float64 {
	return clamp(m.Value, cfg.MinMomentumFactor, cfg.MaxMomentumFactor) / cfg.MaxMomentumFactor
}
