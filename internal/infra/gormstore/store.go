// Package gormstore is the Postgres persistence layer, built on GORM.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/productlobby/signal/internal/domain"
)

// Connect opens and validates a Postgres-backed GORM connection pool.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*gorm.DB, error) {
	slog.Default().InfoContext(ctx, "postgres connect started",
		"module", "gormstore",
		"operation", "connect",
		"outcome", "start",
	)
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(int(maxConns))
		sqlDB.SetMaxIdleConns(int(maxConns) / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	slog.Default().InfoContext(ctx, "postgres connect completed",
		"module", "gormstore",
		"operation", "connect",
		"outcome", "success",
	)
	return db, nil
}

// AutoMigrate creates or updates the campaign, lobby, and pledge tables.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&campaignModel{}, &lobbyModel{}, &pledgeModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Store implements domain.CampaignStore on GORM.
type Store struct {
	db *gorm.DB
}

// New wraps a GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ─── Campaigns ──────────────────────────────────────────────────────────────

func (s *Store) CreateCampaign(ctx context.Context, c domain.Campaign) error {
	m := toCampaignModel(c)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("campaign %s: %w", c.ID, domain.ErrInvalidInput)
		}
		return err
	}
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	var m campaignModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	c := toDomainCampaign(m)
	return &c, nil
}

func (s *Store) ListCampaignIDs(ctx context.Context, status domain.CampaignStatus) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&campaignModel{}).
		Where("status = ?", string(status)).
		Order("created_at, id").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) TopCampaigns(ctx context.Context, status domain.CampaignStatus, limit int) ([]domain.Campaign, error) {
	var rows []campaignModel
	err := s.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("signal_score IS NULL, signal_score DESC, created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainCampaign(r))
	}
	return out, nil
}

func (s *Store) SaveSignalScore(ctx context.Context, cache domain.ScoreCache) error {
	res := s.db.WithContext(ctx).Model(&campaignModel{}).
		Where("id = ?", cache.CampaignID).
		Updates(map[string]any{
			"signal_score":            cache.Score,
			"signal_score_updated_at": cache.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

// ─── Lobbies & Pledges ──────────────────────────────────────────────────────

func (s *Store) CreateLobby(ctx context.Context, l domain.Lobby) error {
	m := lobbyModel{
		ID:         l.ID,
		CampaignID: l.CampaignID,
		UserID:     l.UserID,
		Intensity:  string(l.Intensity),
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateLobby
		}
		return err
	}
	return nil
}

func (s *Store) CreatePledge(ctx context.Context, p domain.Pledge) error {
	m := pledgeModel{
		ID:            p.ID,
		CampaignID:    p.CampaignID,
		UserID:        p.UserID,
		PledgeType:    string(p.Type),
		PriceCeiling:  p.PriceCeiling,
		PhoneVerified: p.PhoneVerified,
		CreatedAt:     p.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicatePledge
		}
		return err
	}
	return nil
}

// ─── Signal Aggregates ──────────────────────────────────────────────────────

func (s *Store) LobbyHistogram(ctx context.Context, campaignID string) (domain.LobbyHistogram, error) {
	var rows []struct {
		Intensity string
		N         int
	}
	err := s.db.WithContext(ctx).Model(&lobbyModel{}).
		Select("intensity, COUNT(*) AS n").
		Where("campaign_id = ?", campaignID).
		Group("intensity").
		Scan(&rows).Error
	if err != nil {
		return domain.LobbyHistogram{}, err
	}
	var h domain.LobbyHistogram
	for _, r := range rows {
		h.Add(domain.Intensity(r.Intensity), r.N)
	}
	return h, nil
}

func (s *Store) PledgeHistogram(ctx context.Context, campaignID string) (domain.PledgeHistogram, error) {
	var row struct {
		Support  int
		Intent   int
		Verified int
		PriceSum float64
	}
	err := s.db.WithContext(ctx).Model(&pledgeModel{}).
		Select(`COALESCE(SUM(CASE WHEN pledge_type = ? THEN 1 ELSE 0 END), 0) AS support,
			COALESCE(SUM(CASE WHEN pledge_type = ? THEN 1 ELSE 0 END), 0) AS intent,
			COALESCE(SUM(CASE WHEN pledge_type = ? AND phone_verified THEN 1 ELSE 0 END), 0) AS verified,
			COALESCE(SUM(CASE WHEN pledge_type = ? THEN price_ceiling END), 0) AS price_sum`,
			string(domain.PledgeSupport), string(domain.PledgeIntent),
			string(domain.PledgeIntent), string(domain.PledgeIntent)).
		Where("campaign_id = ?", campaignID).
		Scan(&row).Error
	if err != nil {
		return domain.PledgeHistogram{}, err
	}
	return domain.PledgeHistogram{
		Support:             row.Support,
		Intent:              row.Intent,
		IntentPhoneVerified: row.Verified,
		PriceCeilingSum:     row.PriceSum,
	}, nil
}

func (s *Store) IntentPriceCeilings(ctx context.Context, campaignID string) ([]float64, error) {
	var prices []float64
	err := s.db.WithContext(ctx).Model(&pledgeModel{}).
		Where("campaign_id = ? AND pledge_type = ? AND price_ceiling IS NOT NULL", campaignID, string(domain.PledgeIntent)).
		Pluck("price_ceiling", &prices).Error
	return prices, err
}

func (s *Store) IntentCountBetween(ctx context.Context, campaignID string, from, to time.Time) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&pledgeModel{}).
		Where("campaign_id = ? AND pledge_type = ? AND created_at >= ? AND created_at < ?",
			campaignID, string(domain.PledgeIntent), from.UTC(), to.UTC()).
		Count(&n).Error
	return int(n), err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

var _ domain.CampaignStore = (*Store)(nil)
