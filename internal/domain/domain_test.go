package domain

import (
	"errors"
	"testing"
)

// ─── Intensity Tests ────────────────────────────────────────────────────────

func TestIntensity_Rank(t *testing.T) {
	tests := []struct {
		in   Intensity
		want int
	}{
		{IntensityNeatIdea, 1},
		{IntensityProbablyBuy, 2},
		{IntensityTakeMyMoney, 3},
		{Intensity("MEH"), 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Rank(); got != tt.want {
				t.Errorf("Rank() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIntensities_Ordered(t *testing.T) {
	for i := 1; i < len(Intensities); i++ {
		if Intensities[i-1].Rank() >= Intensities[i].Rank() {
			t.Errorf("%s should rank below %s", Intensities[i-1], Intensities[i])
		}
	}
}

func TestParseIntensity(t *testing.T) {
	got, err := ParseIntensity(" take_my_money ")
	if err != nil {
		t.Fatalf("ParseIntensity() error: %v", err)
	}
	if got != IntensityTakeMyMoney {
		t.Errorf("ParseIntensity() = %q, want %q", got, IntensityTakeMyMoney)
	}

	if _, err := ParseIntensity("shrug"); !errors.Is(err, ErrInvalidIntensity) {
		t.Errorf("ParseIntensity(shrug) error = %v, want ErrInvalidIntensity", err)
	}
}

func TestParsePledgeType(t *testing.T) {
	tests := []struct {
		in      string
		want    PledgeType
		wantErr bool
	}{
		{"support", PledgeSupport, false},
		{"INTENT", PledgeIntent, false},
		{"", "", true},
		{"refund", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePledgeType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePledgeType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePledgeType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCampaignStatus_Valid(t *testing.T) {
	for _, s := range []CampaignStatus{CampaignDraft, CampaignLive, CampaignPaused, CampaignClosed} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if CampaignStatus("ARCHIVED").Valid() {
		t.Error("ARCHIVED should not be valid")
	}
}

// ─── Histogram Tests ────────────────────────────────────────────────────────

func TestLobbyHistogram_Add(t *testing.T) {
	var h LobbyHistogram
	h.Add(IntensityNeatIdea, 10)
	h.Add(IntensityProbablyBuy, 5)
	h.Add(IntensityTakeMyMoney, 2)
	h.Add(Intensity("BOGUS"), 99)

	if h.NeatIdea != 10 || h.ProbablyBuy != 5 || h.TakeMyMoney != 2 {
		t.Errorf("histogram = %+v", h)
	}
	if h.Total() != 17 {
		t.Errorf("Total() = %d, want 17", h.Total())
	}
}

// ─── Price Stats Tests ──────────────────────────────────────────────────────

func TestNewPriceStats(t *testing.T) {
	tests := []struct {
		name       string
		prices     []float64
		wantMedian float64
		wantP90    float64
		wantN      int
	}{
		{"empty", nil, 0, 0, 0},
		{"single", []float64{42}, 42, 42, 1},
		{"odd", []float64{30, 10, 20}, 20, 30, 3},
		{"even", []float64{10, 40, 20, 30}, 25, 40, 4},
		{"ten values", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5.5, 9, 10},
		{"ignores negatives", []float64{-5, 50}, 50, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPriceStats(tt.prices)
			if got.Median != tt.wantMedian {
				t.Errorf("Median = %f, want %f", got.Median, tt.wantMedian)
			}
			if got.P90 != tt.wantP90 {
				t.Errorf("P90 = %f, want %f", got.P90, tt.wantP90)
			}
			if got.Samples != tt.wantN {
				t.Errorf("Samples = %d, want %d", got.Samples, tt.wantN)
			}
		})
	}
}

func TestNewPriceStats_DoesNotMutateInput(t *testing.T) {
	prices := []float64{30, 10, 20}
	NewPriceStats(prices)
	if prices[0] != 30 || prices[1] != 10 || prices[2] != 20 {
		t.Errorf("input mutated: %v", prices)
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{1.005, 0, 1},
		{2.5, 0, 3},
		{12.345, 1, 12.3},
		{149.97, 2, 149.97},
		{0, 2, 0},
	}
	for _, tt := range tests {
		if got := RoundTo(tt.v, tt.places); got != tt.want {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

// ─── Error Tests ────────────────────────────────────────────────────────────

func TestSentinelErrors(t *testing.T) {
	errs := []struct {
		name string
		err  error
	}{
		{"ErrCampaignNotFound", ErrCampaignNotFound},
		{"ErrCampaignNotLive", ErrCampaignNotLive},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidIntensity", ErrInvalidIntensity},
		{"ErrInvalidPledgeType", ErrInvalidPledgeType},
		{"ErrInvalidPrice", ErrInvalidPrice},
		{"ErrPhoneVerificationRequired", ErrPhoneVerificationRequired},
		{"ErrDuplicateLobby", ErrDuplicateLobby},
		{"ErrDuplicatePledge", ErrDuplicatePledge},
	}

	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s.Error() is empty", tt.name)
			}
		})
	}
}
