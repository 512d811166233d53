package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/productlobby/signal/internal/domain"
)

// ─── Campaigns ──────────────────────────────────────────────────────────────

// CreateCampaign inserts a campaign.
func (db *DB) CreateCampaign(ctx context.Context, c domain.Campaign) error {
	var updatedAt any
	if c.SignalScoreUpdatedAt != nil {
		updatedAt = formatTime(*c.SignalScoreUpdatedAt)
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, title, brand, status, signal_score, signal_score_updated_at, completeness_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Title, c.Brand, string(c.Status), c.SignalScore, updatedAt, c.CompletenessScore, formatTime(c.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("campaign %s: %w", c.ID, domain.ErrInvalidInput)
	}
	return err
}

// GetCampaign retrieves a campaign by ID.
func (db *DB) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, title, brand, status, signal_score, signal_score_updated_at, completeness_score, created_at
		FROM campaigns WHERE id = ?
	`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaignIDs returns the IDs of all campaigns in a status.
func (db *DB) ListCampaignIDs(ctx context.Context, status domain.CampaignStatus) ([]string, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id FROM campaigns WHERE status = ? ORDER BY created_at, id
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TopCampaigns returns campaigns in a status ordered by cached score, highest
// first. Unscored campaigns sort last.
func (db *DB) TopCampaigns(ctx context.Context, status domain.CampaignStatus, limit int) ([]domain.Campaign, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, title, brand, status, signal_score, signal_score_updated_at, completeness_score, created_at
		FROM campaigns
		WHERE status = ?
		ORDER BY signal_score IS NULL, signal_score DESC, created_at DESC
		LIMIT ?
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SaveSignalScore writes a cached score onto its campaign.
func (db *DB) SaveSignalScore(ctx context.Context, cache domain.ScoreCache) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE campaigns SET signal_score = ?, signal_score_updated_at = ? WHERE id = ?
	`, cache.Score, formatTime(cache.UpdatedAt), cache.CampaignID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	var (
		c         domain.Campaign
		status    string
		score     sql.NullFloat64
		updatedAt sql.NullString
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Brand, &status, &score, &updatedAt, &c.CompletenessScore, &createdAt); err != nil {
		return nil, err
	}
	c.Status = domain.CampaignStatus(status)
	if score.Valid {
		s := score.Float64
		c.SignalScore = &s
	}
	if updatedAt.Valid {
		t, err := parseTime(updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse signal_score_updated_at: %w", err)
		}
		c.SignalScoreUpdatedAt = &t
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	c.CreatedAt = t
	return &c, nil
}

// ─── Lobbies & Pledges ──────────────────────────────────────────────────────

// CreateLobby inserts a lobby. A second lobby by the same user returns
// domain.ErrDuplicateLobby.
func (db *DB) CreateLobby(ctx context.Context, l domain.Lobby) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO lobbies (id, campaign_id, user_id, intensity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.CampaignID, l.UserID, string(l.Intensity), string(l.Status), formatTime(l.CreatedAt))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateLobby
	}
	return err
}

// CreatePledge inserts a pledge. A second pledge of the same type by the same
// user returns domain.ErrDuplicatePledge.
func (db *DB) CreatePledge(ctx context.Context, p domain.Pledge) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO pledges (id, campaign_id, user_id, pledge_type, price_ceiling, phone_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CampaignID, p.UserID, string(p.Type), p.PriceCeiling, boolToInt(p.PhoneVerified), formatTime(p.CreatedAt))
	if isUniqueViolation(err) {
		return domain.ErrDuplicatePledge
	}
	return err
}

// ─── Signal Aggregates ──────────────────────────────────────────────────────

// LobbyHistogram counts a campaign's lobbies per intensity.
func (db *DB) LobbyHistogram(ctx context.Context, campaignID string) (domain.LobbyHistogram, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT intensity, COUNT(*) FROM lobbies WHERE campaign_id = ? GROUP BY intensity
	`, campaignID)
	if err != nil {
		return domain.LobbyHistogram{}, err
	}
	defer rows.Close()

	var h domain.LobbyHistogram
	for rows.Next() {
		var (
			intensity string
			n         int
		)
		if err := rows.Scan(&intensity, &n); err != nil {
			return domain.LobbyHistogram{}, err
		}
		h.Add(domain.Intensity(intensity), n)
	}
	return h, rows.Err()
}

// PledgeHistogram counts a campaign's pledges per type.
func (db *DB) PledgeHistogram(ctx context.Context, campaignID string) (domain.PledgeHistogram, error) {
	var h domain.PledgeHistogram
	err := db.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN pledge_type = 'SUPPORT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pledge_type = 'INTENT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pledge_type = 'INTENT' AND phone_verified = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pledge_type = 'INTENT' THEN price_ceiling END), 0)
		FROM pledges WHERE campaign_id = ?
	`, campaignID).Scan(&h.Support, &h.Intent, &h.IntentPhoneVerified, &h.PriceCeilingSum)
	return h, err
}

// IntentPriceCeilings returns every non-null INTENT price ceiling.
func (db *DB) IntentPriceCeilings(ctx context.Context, campaignID string) ([]float64, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT price_ceiling FROM pledges
		WHERE campaign_id = ? AND pledge_type = 'INTENT' AND price_ceiling IS NOT NULL
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// IntentCountBetween counts INTENT pledges created in [from, to).
func (db *DB) IntentCountBetween(ctx context.Context, campaignID string, from, to time.Time) (int, error) {
	var n int
	err := db.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pledges
		WHERE campaign_id = ? AND pledge_type = 'INTENT' AND created_at >= ? AND created_at < ?
	`, campaignID, formatTime(from), formatTime(to)).Scan(&n)
	return n, err
}

var _ domain.CampaignStore = (*DB)(nil)
