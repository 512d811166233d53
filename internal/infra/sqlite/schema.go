package sqlite

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id                      TEXT PRIMARY KEY,
			title                   TEXT NOT NULL,
			brand                   TEXT NOT NULL DEFAULT '',
			status                  TEXT NOT NULL DEFAULT 'DRAFT',
			signal_score            REAL,
			signal_score_updated_at TEXT,
			completeness_score      INTEGER NOT NULL DEFAULT 0,
			created_at              TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_campaigns_status_score ON campaigns(status, signal_score)`,

		`CREATE TABLE IF NOT EXISTS lobbies (
			id          TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			user_id     TEXT NOT NULL,
			intensity   TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'PENDING',
			created_at  TEXT NOT NULL,
			UNIQUE(campaign_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lobbies_campaign ON lobbies(campaign_id, intensity)`,

		`CREATE TABLE IF NOT EXISTS pledges (
			id             TEXT PRIMARY KEY,
			campaign_id    TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
			user_id        TEXT NOT NULL,
			pledge_type    TEXT NOT NULL,
			price_ceiling  REAL,
			phone_verified INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL,
			UNIQUE(campaign_id, user_id, pledge_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pledges_window ON pledges(campaign_id, pledge_type, created_at)`,
	}
}
