package gormstore

import (
	"time"

	"github.com/productlobby/signal/internal/domain"
)

type campaignModel struct {
	ID                   string   `gorm:"primaryKey;size:64"`
	Title                string   `gorm:"not null"`
	Brand                string   `gorm:"not null;default:''"`
	Status               string   `gorm:"not null;index:idx_campaigns_status_score,priority:1"`
	SignalScore          *float64 `gorm:"index:idx_campaigns_status_score,priority:2"`
	SignalScoreUpdatedAt *time.Time
	CompletenessScore    int       `gorm:"not null;default:0"`
	CreatedAt            time.Time `gorm:"not null"`
}

func (campaignModel) TableName() string { return "campaigns" }

type lobbyModel struct {
	ID         string    `gorm:"primaryKey;size:64"`
	CampaignID string    `gorm:"not null;size:64;uniqueIndex:idx_lobbies_campaign_user,priority:1"`
	UserID     string    `gorm:"not null;size:64;uniqueIndex:idx_lobbies_campaign_user,priority:2"`
	Intensity  string    `gorm:"not null"`
	Status     string    `gorm:"not null;default:'PENDING'"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (lobbyModel) TableName() string { return "lobbies" }

type pledgeModel struct {
	ID            string `gorm:"primaryKey;size:64"`
	CampaignID    string `gorm:"not null;size:64;uniqueIndex:idx_pledges_campaign_user_type,priority:1;index:idx_pledges_window,priority:1"`
	UserID        string `gorm:"not null;size:64;uniqueIndex:idx_pledges_campaign_user_type,priority:2"`
	PledgeType    string `gorm:"not null;uniqueIndex:idx_pledges_campaign_user_type,priority:3;index:idx_pledges_window,priority:2"`
	PriceCeiling  *float64
	PhoneVerified bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"not null;index:idx_pledges_window,priority:3"`
}

func (pledgeModel) TableName() string { return "pledges" }

func toCampaignModel(c domain.Campaign) campaignModel {
	m := campaignModel{
		ID:                c.ID,
		Title:             c.Title,
		Brand:             c.Brand,
		Status:            string(c.Status),
		SignalScore:       c.SignalScore,
		CompletenessScore: c.CompletenessScore,
		CreatedAt:         c.CreatedAt.UTC(),
	}
	if c.SignalScoreUpdatedAt != nil {
		t := c.SignalScoreUpdatedAt.UTC()
		m.SignalScoreUpdatedAt = &t
	}
	return m
}

func toDomainCampaign(m campaignModel) domain.Campaign {
	c := domain.Campaign{
		ID:                m.ID,
		Title:             m.Title,
		Brand:             m.Brand,
		Status:            domain.CampaignStatus(m.Status),
		SignalScore:       m.SignalScore,
		CompletenessScore: m.CompletenessScore,
		CreatedAt:         m.CreatedAt.UTC(),
	}
	if m.SignalScoreUpdatedAt != nil {
		t := m.SignalScoreUpdatedAt.UTC()
		c.SignalScoreUpdatedAt = &t
	}
	return c
}
