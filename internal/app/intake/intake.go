// Package intake records lobbies and pledges and triggers a rescore of the
// affected campaign.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/productlobby/signal/internal/domain"
)

// Store is the persistence surface intake needs.
type Store interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	CreateLobby(ctx context.Context, l domain.Lobby) error
	CreatePledge(ctx context.Context, p domain.Pledge) error
}

// Trigger schedules an urgent rescore of a campaign.
type Trigger interface {
	Urgent(campaignID string)
}

// LobbyRequest is a user's request to lobby for a campaign.
type LobbyRequest struct {
	CampaignID string `json:"-"`
	UserID     string `json:"userId"`
	Intensity  string `json:"intensity"`
}

// PledgeRequest is a user's request to pledge for a campaign.
type PledgeRequest struct {
	CampaignID    string   `json:"-"`
	UserID        string   `json:"userId"`
	Type          string   `json:"pledgeType"`
	PriceCeiling  *float64 `json:"priceCeiling,omitempty"`
	PhoneVerified bool     `json:"phoneVerified"`
}

// Service validates and stores lobbies and pledges.
type Service struct {
	store   Store
	trigger Trigger
	logger  *slog.Logger

	// INTENT pledges above this price need a phone-verified user.
	phoneVerificationPrice float64

	now   func() time.Time
	newID func() string
}

// New creates an intake service. trigger may be nil.
func New(store Store, trigger Trigger, phoneVerificationPrice float64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:                  store,
		trigger:                trigger,
		logger:                 logger.With("module", "intake"),
		phoneVerificationPrice: phoneVerificationPrice,
		now:                    time.Now,
		newID:                  uuid.NewString,
	}
}

// CreateLobby records a lobby on a LIVE campaign.
func (s *Service) CreateLobby(ctx context.Context, req LobbyRequest) (*domain.Lobby, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, fmt.Errorf("user id required: %w", domain.ErrInvalidInput)
	}
	intensity, err := domain.ParseIntensity(req.Intensity)
	if err != nil {
		return nil, err
	}
	if err := s.requireLive(ctx, req.CampaignID); err != nil {
		return nil, err
	}

	l := domain.Lobby{
		ID:         s.newID(),
		CampaignID: req.CampaignID,
		UserID:     userID,
		Intensity:  intensity,
		Status:     domain.LobbyPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateLobby(ctx, l); err != nil {
		return nil, s.storeErr(ctx, "create_lobby", req.CampaignID, err)
	}

	s.logger.InfoContext(ctx, "lobby created",
		"operation", "create_lobby",
		"campaign_id", l.CampaignID,
		"intensity", l.Intensity,
	)
	s.rescore(l.CampaignID)
	return &l, nil
}

// CreatePledge records a pledge on a LIVE campaign.
//
// SUPPORT pledges carry no price. INTENT pledges may carry a non-negative
// price ceiling; above the phone-verification price the user must be
// phone-verified.
func (s *Service) CreatePledge(ctx context.Context, req PledgeRequest) (*domain.Pledge, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, fmt.Errorf("user id required: %w", domain.ErrInvalidInput)
	}
	pt, err := domain.ParsePledgeType(req.Type)
	if err != nil {
		return nil, err
	}
	if err := s.checkPrice(pt, req.PriceCeiling, req.PhoneVerified); err != nil {
		return nil, err
	}
	if err := s.requireLive(ctx, req.CampaignID); err != nil {
		return nil, err
	}

	p := domain.Pledge{
		ID:            s.newID(),
		CampaignID:    req.CampaignID,
		UserID:        userID,
		Type:          pt,
		PriceCeiling:  req.PriceCeiling,
		PhoneVerified: req.PhoneVerified,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.CreatePledge(ctx, p); err != nil {
		return nil, s.storeErr(ctx, "create_pledge", req.CampaignID, err)
	}

	s.logger.InfoContext(ctx, "pledge created",
		"operation", "create_pledge",
		"campaign_id", p.CampaignID,
		"pledge_type", p.Type,
		"phone_verified", p.PhoneVerified,
	)
	s.rescore(p.CampaignID)
	return &p, nil
}

func (s *Service) checkPrice(pt domain.PledgeType, price *float64, phoneVerified bool) error {
	if price == nil {
		return nil
	}
	if pt == domain.PledgeSupport {
		return fmt.Errorf("support pledges carry no price: %w", domain.ErrInvalidPrice)
	}
	v := *price
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("price %v: %w", v, domain.ErrInvalidPrice)
	}
	if v > s.phoneVerificationPrice && !phoneVerified {
		return domain.ErrPhoneVerificationRequired
	}
	return nil
}

func (s *Service) requireLive(ctx context.Context, campaignID string) error {
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			return err
		}
		return s.storeErr(ctx, "get_campaign", campaignID, err)
	}
	if c.Status != domain.CampaignLive {
		return fmt.Errorf("campaign %s is %s: %w", campaignID, c.Status, domain.ErrCampaignNotLive)
	}
	return nil
}

func (s *Service) storeErr(ctx context.Context, op, campaignID string, err error) error {
	if errors.Is(err, domain.ErrDuplicateLobby) || errors.Is(err, domain.ErrDuplicatePledge) {
		return err
	}
	s.logger.ErrorContext(ctx, "intake store failure",
		"operation", op,
		"campaign_id", campaignID,
		"outcome", "error",
		"error", err,
	)
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) rescore(campaignID string) {
	if s.trigger != nil {
		s.trigger.Urgent(campaignID)
	}
}
