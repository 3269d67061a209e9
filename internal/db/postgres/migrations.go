package postgres

// Migration is one schema step. Versions only ever grow.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

var Migrations = []Migration{
	{1, "programs", `
		CREATE TABLE IF NOT EXISTS programs (
			code           TEXT PRIMARY KEY,
			position       BIGSERIAL,
			name           TEXT NOT NULL,
			balance        BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			transfer_ratio DOUBLE PRECISION NOT NULL DEFAULT 1.0 CHECK (transfer_ratio > 0),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{2, "awards", `
		CREATE TABLE IF NOT EXISTS awards (
			id               BIGSERIAL PRIMARY KEY,
			program          TEXT NOT NULL,
			program_name     TEXT NOT NULL DEFAULT '',
			source           TEXT NOT NULL DEFAULT '',
			origin           CHAR(3) NOT NULL,
			destination      CHAR(3) NOT NULL,
			flight_no        TEXT NOT NULL DEFAULT '',
			airline_code     TEXT NOT NULL DEFAULT '',
			airline_name     TEXT NOT NULL DEFAULT '',
			departure        TIMESTAMPTZ NOT NULL,
			arrival          TIMESTAMPTZ NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			aircraft         TEXT,
			stops            INTEGER NOT NULL DEFAULT 0,
			cabin            TEXT NOT NULL,
			booking_class    TEXT NOT NULL DEFAULT '',
			miles            BIGINT NOT NULL CHECK (miles > 0),
			cash_fees        DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_saver         BOOLEAN NOT NULL DEFAULT FALSE,
			seats_available  INTEGER NOT NULL DEFAULT 1,
			amenities        JSONB NOT NULL DEFAULT '{}'::jsonb,
			scraped_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_awards_route
			ON awards (origin, destination, program, cabin, scraped_at);
	`},
	{3, "deals", `
		CREATE TABLE IF NOT EXISTS deals (
			id                  BIGSERIAL PRIMARY KEY,
			award_id            BIGINT NOT NULL REFERENCES awards(id) ON DELETE CASCADE,
			cash_price          DOUBLE PRECISION NOT NULL,
			cpp                 DOUBLE PRECISION NOT NULL,
			is_unicorn          BOOLEAN NOT NULL DEFAULT FALSE,
			transferable_from   TEXT[],
			your_cost           BIGINT,
			your_source_program TEXT,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_deals_created ON deals (created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_deals_unicorn ON deals (is_unicorn) WHERE is_unicorn;
	`},
	{4, "cash_prices", `
		CREATE TABLE IF NOT EXISTS cash_prices (
			id          BIGSERIAL PRIMARY KEY,
			origin      CHAR(3) NOT NULL,
			destination CHAR(3) NOT NULL,
			travel_date DATE NOT NULL,
			cabin       TEXT NOT NULL,
			price       DOUBLE PRECISION NOT NULL,
			source      TEXT NOT NULL DEFAULT '',
			fetched_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{5, "search_history", `
		CREATE TABLE IF NOT EXISTS search_history (
			id             BIGSERIAL PRIMARY KEY,
			scan_id        UUID NOT NULL,
			origin         CHAR(3) NOT NULL,
			destination    CHAR(3) NOT NULL,
			cabin          TEXT NOT NULL,
			travel_date    DATE NOT NULL,
			awards_found   INTEGER NOT NULL DEFAULT 0,
			deals_found    INTEGER NOT NULL DEFAULT 0,
			unicorns_found INTEGER NOT NULL DEFAULT 0,
			errors         TEXT[],
			duration_ms    BIGINT NOT NULL DEFAULT 0,
			searched_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_search_history_scan ON search_history (scan_id);
	`},
	{6, "subscribers", `
		CREATE TABLE IF NOT EXISTS subscribers (
			user_id       BIGINT PRIMARY KEY,
			chat_id       BIGINT NOT NULL,
			username      TEXT NOT NULL DEFAULT '',
			first_name    TEXT NOT NULL DEFAULT '',
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			subscribed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{7, "owner_auth", `
		CREATE TABLE IF NOT EXISTS owner_sessions (
			id               BIGSERIAL PRIMARY KEY,
			user_id          BIGINT NOT NULL,
			session_token    TEXT NOT NULL UNIQUE,
			authenticated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at       TIMESTAMPTZ NOT NULL,
			last_activity    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active        BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE INDEX IF NOT EXISTS idx_owner_sessions_user ON owner_sessions (user_id, is_active);

		CREATE TABLE IF NOT EXISTS owner_login_attempts (
			id           BIGSERIAL PRIMARY KEY,
			user_id      BIGINT NOT NULL,
			attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			success      BOOLEAN NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_owner_attempts_user ON owner_login_attempts (user_id, attempt_time);
	`},
}
