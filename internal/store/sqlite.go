package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It carries the same
// never-downgrade upsert semantics as the Postgres backend and exists for
// local runs that do not want a database server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	practice_name      TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	city               TEXT NOT NULL DEFAULT 'Unknown',
	state              TEXT NOT NULL DEFAULT 'XX',
	zip_code           TEXT NOT NULL DEFAULT '00000',
	latitude           REAL,
	longitude          REAL,
	phone              TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	monthly_fee        REAL NOT NULL DEFAULT 0,
	child_monthly_fee  REAL,
	family_fee         REAL,
	enrollment_fee     REAL,
	pricing_tiers      TEXT NOT NULL DEFAULT '[]',
	pricing_notes      TEXT NOT NULL DEFAULT '',
	pricing_confidence TEXT NOT NULL DEFAULT 'none',
	pricing_scraped_at DATETIME,
	accepting_patients BOOLEAN,
	specialties        TEXT NOT NULL DEFAULT '[]',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS provider_sources (
	provider_id        TEXT NOT NULL REFERENCES providers(id),
	source             TEXT NOT NULL,
	source_url         TEXT NOT NULL DEFAULT '',
	source_id          TEXT NOT NULL DEFAULT '',
	data_quality_score INTEGER NOT NULL DEFAULT 0,
	last_scraped       DATETIME NOT NULL,
	PRIMARY KEY (provider_id, source)
);

CREATE INDEX IF NOT EXISTS idx_providers_state ON providers(state);
CREATE INDEX IF NOT EXISTS idx_providers_pricing_confidence ON providers(pricing_confidence);
CREATE INDEX IF NOT EXISTS idx_provider_sources_source_id ON provider_sources(source, source_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Same gate structure as the Postgres upsert, in SQLite dialect. Timestamps
// are bound as parameters because SQLite has no timezone-aware now().
const sqliteUpsertProviderSQL = `
INSERT INTO providers (
	id, name, practice_name, address, city, state, zip_code,
	latitude, longitude, phone, website,
	monthly_fee, child_monthly_fee, family_fee, enrollment_fee,
	pricing_tiers, pricing_notes, pricing_confidence, pricing_scraped_at,
	accepting_patients, specialties, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	name          = CASE WHEN excluded.name <> '' THEN excluded.name ELSE providers.name END,
	practice_name = CASE WHEN excluded.practice_name <> '' THEN excluded.practice_name ELSE providers.practice_name END,
	address       = CASE WHEN excluded.address <> '' THEN excluded.address ELSE providers.address END,
	city     = CASE WHEN excluded.state <> 'XX' AND excluded.city <> 'Unknown' AND excluded.zip_code <> '00000' THEN excluded.city ELSE providers.city END,
	state    = CASE WHEN excluded.state <> 'XX' AND excluded.city <> 'Unknown' AND excluded.zip_code <> '00000' THEN excluded.state ELSE providers.state END,
	zip_code = CASE WHEN excluded.state <> 'XX' AND excluded.city <> 'Unknown' AND excluded.zip_code <> '00000' THEN excluded.zip_code ELSE providers.zip_code END,
	latitude  = CASE WHEN excluded.latitude IS NOT NULL AND excluded.longitude IS NOT NULL THEN excluded.latitude ELSE providers.latitude END,
	longitude = CASE WHEN excluded.latitude IS NOT NULL AND excluded.longitude IS NOT NULL THEN excluded.longitude ELSE providers.longitude END,
	phone   = CASE WHEN excluded.phone <> '' THEN excluded.phone ELSE providers.phone END,
	website = CASE WHEN excluded.website <> '' THEN excluded.website ELSE providers.website END,
	monthly_fee = CASE WHEN excluded.monthly_fee > 0
		AND (CASE excluded.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN excluded.monthly_fee ELSE providers.monthly_fee END,
	child_monthly_fee = CASE WHEN (CASE excluded.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN COALESCE(excluded.child_monthly_fee, providers.child_monthly_fee) ELSE providers.child_monthly_fee END,
	family_fee = CASE WHEN (CASE excluded.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN COALESCE(excluded.family_fee, providers.family_fee) ELSE providers.family_fee END,
	enrollment_fee = CASE WHEN (CASE excluded.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN COALESCE(excluded.enrollment_fee, providers.enrollment_fee) ELSE providers.enrollment_fee END,
	pricing_tiers = CASE WHEN excluded.pricing_tiers <> '[]'
		AND (CASE excluded.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN excluded.pricing_tiers ELSE providers.pricing_tiers END,
	pricing_notes = CASE WHEN excluded.pricing_notes <> ''
		AND (CASE excluded.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN excluded.pricing_notes ELSE providers.pricing_notes END,
	pricing_scraped_at = COALESCE(excluded.pricing_scraped_at, providers.pricing_scraped_at),
	pricing_confidence = CASE WHEN (CASE excluded.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>   (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN excluded.pricing_confidence ELSE providers.pricing_confidence END,
	accepting_patients = COALESCE(excluded.accepting_patients, providers.accepting_patients),
	specialties = CASE WHEN excluded.specialties <> '[]' THEN excluded.specialties ELSE providers.specialties END,
	updated_at = excluded.updated_at`

func (s *SQLiteStore) UpsertProvider(ctx context.Context, p model.Provider) error {
	args, err := providerArgs(p)
	if err != nil {
		return err
	}
	// modernc binds []byte as BLOB, and a BLOB never compares equal to the
	// '[]' TEXT literal in the upsert gates. The JSON columns must go in as
	// TEXT.
	for i, a := range args {
		if b, ok := a.([]byte); ok {
			args[i] = string(b)
		}
	}
	now := time.Now().UTC()
	args = append(args, now, now)
	if _, err := s.db.ExecContext(ctx, sqliteUpsertProviderSQL, args...); err != nil {
		return eris.Wrapf(err, "sqlite: upsert provider %s", p.ID)
	}
	return nil
}

const sqliteUpsertSourceSQL = `
INSERT INTO provider_sources (provider_id, source, source_url, source_id, data_quality_score, last_scraped)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (provider_id, source) DO UPDATE SET
	source_url = CASE WHEN excluded.source_url <> '' THEN excluded.source_url ELSE provider_sources.source_url END,
	source_id  = CASE WHEN excluded.source_id <> '' THEN excluded.source_id ELSE provider_sources.source_id END,
	data_quality_score = MAX(excluded.data_quality_score, provider_sources.data_quality_score),
	last_scraped = excluded.last_scraped`

func (s *SQLiteStore) UpsertSource(ctx context.Context, src model.ProviderSource) error {
	last := src.LastScraped
	if last.IsZero() {
		last = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, sqliteUpsertSourceSQL,
		src.ProviderID, src.Source, src.SourceURL, src.SourceID, src.DataQualityScore, last)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert source %s/%s", src.ProviderID, src.Source)
	}
	return nil
}

func (s *SQLiteStore) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = ?`, id)
	p, err := scanSQLiteProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get provider %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) FindBySourceID(ctx context.Context, source, sourceID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT provider_id FROM provider_sources WHERE source = ? AND source_id = ? LIMIT 1`,
		source, sourceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: find by source id %s/%s", source, sourceID)
	}
	return id, nil
}

func (s *SQLiteStore) ListByIDPrefix(ctx context.Context, prefix string, limit int) ([]model.Provider, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if prefix == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+providerColumns+` FROM providers WHERE id NOT LIKE ? ORDER BY id LIMIT ?`,
			model.AllianceIDPrefix+"%", limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+providerColumns+` FROM providers WHERE id LIKE ? ORDER BY id LIMIT ?`,
			prefix+"%", limit)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list by id prefix")
	}
	return collectSQLiteProviders(rows)
}

func (s *SQLiteStore) ListMissingCoordinates(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+providerColumns+` FROM providers
		 WHERE latitude IS NULL AND state <> 'XX' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list missing coordinates")
	}
	return collectSQLiteProviders(rows)
}

func (s *SQLiteStore) ListUnknownLocation(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE state = 'XX' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unknown location")
	}
	return collectSQLiteProviders(rows)
}

func (s *SQLiteStore) ListMissingPricing(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+providerColumns+` FROM providers
		 WHERE website <> '' AND pricing_confidence IN ('none', 'low') ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list missing pricing")
	}
	return collectSQLiteProviders(rows)
}

func (s *SQLiteStore) ListMissingWebsite(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE website = '' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list missing website")
	}
	return collectSQLiteProviders(rows)
}

func (s *SQLiteStore) Counts(ctx context.Context) (*Counts, error) {
	c := &Counts{PricingConfidence: map[string]int{}}

	scalars := []struct {
		dst   *int
		query string
	}{
		{&c.Providers, `SELECT count(*) FROM providers`},
		{&c.MissingCoordinates, `SELECT count(*) FROM providers WHERE latitude IS NULL`},
		{&c.UnknownLocation, `SELECT count(*) FROM providers WHERE state = 'XX'`},
		{&c.MissingWebsite, `SELECT count(*) FROM providers WHERE website = ''`},
	}
	for _, q := range scalars {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, eris.Wrap(err, "sqlite: counts")
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pricing_confidence, count(*) FROM providers GROUP BY pricing_confidence`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: counts by confidence")
	}
	defer rows.Close()
	for rows.Next() {
		var conf string
		var n int
		if err := rows.Scan(&conf, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan confidence count")
		}
		c.PricingConfidence[conf] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: counts by confidence")
	}
	return c, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProvider(row scanner) (*model.Provider, error) {
	var (
		p          model.Provider
		tiers      string
		specs      string
		confidence string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.PracticeName, &p.Address, &p.City, &p.State, &p.ZipCode,
		&p.Latitude, &p.Longitude, &p.Phone, &p.Website,
		&p.MonthlyFee, &p.ChildMonthlyFee, &p.FamilyFee, &p.EnrollmentFee,
		&tiers, &p.PricingNotes, &confidence, &p.PricingScrapedAt,
		&p.AcceptingPatients, &specs, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PricingConfidence = model.PricingConfidence(confidence)
	if tiers != "" {
		if err := json.Unmarshal([]byte(tiers), &p.PricingTiers); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal pricing tiers %s", p.ID)
		}
	}
	if specs != "" {
		if err := json.Unmarshal([]byte(specs), &p.Specialties); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal specialties %s", p.ID)
		}
	}
	return &p, nil
}

func collectSQLiteProviders(rows *sql.Rows) ([]model.Provider, error) {
	defer rows.Close()
	var out []model.Provider
	for rows.Next() {
		p, err := scanSQLiteProvider(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan provider")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate providers")
	}
	return out, nil
}
