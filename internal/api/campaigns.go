package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/productlobby/signal/internal/app/intake"
	"github.com/productlobby/signal/internal/app/signal"
	"github.com/productlobby/signal/internal/domain"
)

// ─── Campaign API ───────────────────────────────────────────────────────────
//
// GET  /api/campaigns/{id}/signal-score  compute, cache, and return the score
// GET  /api/campaigns/trending?limit=N   LIVE campaigns by cached score
// POST /api/campaigns/{id}/lobbies       record a lobby
// POST /api/campaigns/{id}/pledges       record a pledge

const (
	defaultTrendingLimit = 10
	maxTrendingLimit     = 100
	maxBodyBytes         = 1 << 16
)

// SignalScoreResponse is the JSON document served for a campaign's score.
type SignalScoreResponse struct {
	CampaignID       string             `json:"campaignId"`
	Score            float64            `json:"score"`
	Tier             signal.Tier        `json:"tier"`
	Thresholds       signal.Thresholds  `json:"thresholds"`
	Projection       ProjectionResponse `json:"projection"`
	Lobbies          LobbiesResponse    `json:"lobbies"`
	Pledges          PledgesResponse    `json:"pledges"`
	Momentum         signal.Momentum    `json:"momentum"`
	Completeness     int                `json:"completeness"`
	DemandValue      float64            `json:"demandValue"`
	ActionSuggestion string             `json:"actionSuggestion"`
	UpdatedAt        string             `json:"updatedAt"`
}

// ProjectionResponse is the demand projection block.
type ProjectionResponse struct {
	ProjectedCustomers int                    `json:"projectedCustomers"`
	ProjectedRevenue   float64                `json:"projectedRevenue"`
	MedianPrice        float64                `json:"medianPrice"`
	P90Price           float64                `json:"p90Price"`
	PriceSamples       int                    `json:"priceSamples"`
	UnitPrice          float64                `json:"unitPrice"`
	ConversionRates    signal.ConversionRates `json:"conversionRates"`
}

// LobbiesResponse is the lobby breakdown block.
type LobbiesResponse struct {
	NeatIdea    int     `json:"neatIdea"`
	ProbablyBuy int     `json:"probablyBuy"`
	TakeMyMoney int     `json:"takeMyMoney"`
	Total       int     `json:"total"`
	Conviction  float64 `json:"conviction"`
}

// PledgesResponse is the pledge breakdown block.
type PledgesResponse struct {
	Support        int `json:"support"`
	Intent         int `json:"intent"`
	IntentVerified int `json:"intentVerified"`
}

// NewSignalScoreResponse renders an evaluation with the configuration that produced it.
func NewSignalScoreResponse(ev signal.Evaluation, cfg signal.Config) SignalScoreResponse {
	res, in := ev.Result, ev.Result.Inputs
	return SignalScoreResponse{
		CampaignID: ev.Campaign.ID,
		Score:      res.Score,
		Tier:       res.Tier,
		Thresholds: cfg.Thresholds,
		Projection: ProjectionResponse{
			ProjectedCustomers: res.ProjectedCustomers,
			ProjectedRevenue:   res.ProjectedRevenue,
			MedianPrice:        in.Prices.Median,
			P90Price:           in.Prices.P90,
			PriceSamples:       in.Prices.Samples,
			UnitPrice:          res.Price,
			ConversionRates:    cfg.Conversion,
		},
		Lobbies: LobbiesResponse{
			NeatIdea:    in.Lobbies.NeatIdea,
			ProbablyBuy: in.Lobbies.ProbablyBuy,
			TakeMyMoney: in.Lobbies.TakeMyMoney,
			Total:       in.Lobbies.Total(),
			Conviction:  res.LobbyConviction,
		},
		Pledges: PledgesResponse{
			Support:        in.Pledges.Support,
			Intent:         in.Pledges.Intent,
			IntentVerified: in.Pledges.IntentPhoneVerified,
		},
		Momentum:         res.Momentum,
		Completeness:     ev.Campaign.CompletenessScore,
		DemandValue:      res.DemandValue,
		ActionSuggestion: res.ActionSuggestion,
		UpdatedAt:        ev.Cache.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// handleSignalScore computes the score and writes it through to the campaign.
// GET /api/campaigns/{id}/signal-score
func (s *Server) handleSignalScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ev, err := s.scores.Refresh(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, "signal_score", err)
		return
	}
	writeJSON(w, http.StatusOK, NewSignalScoreResponse(ev, s.scores.Calculator().Config()))
}

type trendingCampaign struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Brand                string     `json:"brand"`
	SignalScore          *float64   `json:"signalScore"`
	Tier                 string     `json:"tier,omitempty"`
	SignalScoreUpdatedAt *time.Time `json:"signalScoreUpdatedAt,omitempty"`
}

// handleTrending lists LIVE campaigns by cached score.
// GET /api/campaigns/trending?limit=N
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit := defaultTrendingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrendingLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be an integer in [1, %d]", maxTrendingLimit))
			return
		}
		limit = n
	}

	campaigns, err := s.campaigns.TopCampaigns(r.Context(), domain.CampaignLive, limit)
	if err != nil {
		s.writeDomainError(w, r, "trending", err)
		return
	}

	th := s.scores.Calculator().Config().Thresholds
	out := make([]trendingCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		tc := trendingCampaign{
			ID:                   c.ID,
			Title:                c.Title,
			Brand:                c.Brand,
			SignalScore:          c.SignalScore,
			SignalScoreUpdatedAt: c.SignalScoreUpdatedAt,
		}
		if c.SignalScore != nil {
			tc.Tier = string(th.TierFor(*c.SignalScore))
		}
		out = append(out, tc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": out,
		"count":     len(out),
	})
}

// handleCreateLobby records a lobby.
// POST /api/campaigns/{id}/lobbies
func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var req intake.LobbyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.CampaignID = chi.URLParam(r, "id")

	l, err := s.intake.CreateLobby(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, "create_lobby", err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// handleCreatePledge records a pledge.
// POST /api/campaigns/{id}/pledges
func (s *Server) handleCreatePledge(w http.ResponseWriter, r *http.Request) {
	var req intake.PledgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.CampaignID = chi.URLParam(r, "id")

	p, err := s.intake.CreatePledge(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, "create_pledge", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
