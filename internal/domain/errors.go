package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Lookup errors
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignNotLive  = errors.New("campaign is not live")

	// Input errors
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidIntensity  = errors.New("invalid lobby intensity")
	ErrInvalidPledgeType = errors.New("invalid pledge type")
	ErrInvalidPrice      = errors.New("invalid price ceiling")

	// Policy errors
	ErrPhoneVerificationRequired = errors.New("phone verification required for high-value intent pledges")

	// Uniqueness errors
	ErrDuplicateLobby  = errors.New("user already lobbied for this campaign")
	ErrDuplicatePledge = errors.New("user already pledged this type for this campaign")
)
