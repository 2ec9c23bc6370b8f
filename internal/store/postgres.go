package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

// Pool abstracts the pgx pool operations the store needs, so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	practice_name      TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	city               TEXT NOT NULL DEFAULT 'Unknown',
	state              TEXT NOT NULL DEFAULT 'XX',
	zip_code           TEXT NOT NULL DEFAULT '00000',
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
	phone              TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	monthly_fee        DOUBLE PRECISION NOT NULL DEFAULT 0,
	child_monthly_fee  DOUBLE PRECISION,
	family_fee         DOUBLE PRECISION,
	enrollment_fee     DOUBLE PRECISION,
	pricing_tiers      JSONB NOT NULL DEFAULT '[]',
	pricing_notes      TEXT NOT NULL DEFAULT '',
	pricing_confidence TEXT NOT NULL DEFAULT 'none',
	pricing_scraped_at TIMESTAMPTZ,
	accepting_patients BOOLEAN,
	specialties        JSONB NOT NULL DEFAULT '[]',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS provider_sources (
	provider_id        TEXT NOT NULL REFERENCES providers(id),
	source             TEXT NOT NULL,
	source_url         TEXT NOT NULL DEFAULT '',
	source_id          TEXT NOT NULL DEFAULT '',
	data_quality_score INTEGER NOT NULL DEFAULT 0,
	last_scraped       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (provider_id, source)
);

CREATE INDEX IF NOT EXISTS idx_providers_state ON providers(state);
CREATE INDEX IF NOT EXISTS idx_providers_pricing_confidence ON providers(pricing_confidence);
CREATE INDEX IF NOT EXISTS idx_provider_sources_source_id ON provider_sources(source, source_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const providerColumns = `id, name, practice_name, address, city, state, zip_code,
	latitude, longitude, phone, website,
	monthly_fee, child_monthly_fee, family_fee, enrollment_fee,
	pricing_tiers, pricing_notes, pricing_confidence, pricing_scraped_at,
	accepting_patients, specialties, created_at, updated_at`

// upsertProviderSQL updates each field only when the incoming value is an
// upgrade. The location triple moves as a unit, coordinates move as a pair,
// and pricing fields move only when the incoming confidence is at least the
// stored confidence. Empty strings and sentinels never overwrite real values.
const upsertProviderSQL = `
INSERT INTO providers (
	id, name, practice_name, address, city, state, zip_code,
	latitude, longitude, phone, website,
	monthly_fee, child_monthly_fee, family_fee, enrollment_fee,
	pricing_tiers, pricing_notes, pricing_confidence, pricing_scraped_at,
	accepting_patients, specialties
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
	$12, $13, $14, $15, $16, $17, $18, $19, $20, $21
)
ON CONFLICT (id) DO UPDATE SET
	name          = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE providers.name END,
	practice_name = CASE WHEN EXCLUDED.practice_name <> '' THEN EXCLUDED.practice_name ELSE providers.practice_name END,
	address       = CASE WHEN EXCLUDED.address <> '' THEN EXCLUDED.address ELSE providers.address END,
	city     = CASE WHEN EXCLUDED.state <> 'XX' AND EXCLUDED.city <> 'Unknown' AND EXCLUDED.zip_code <> '00000' THEN EXCLUDED.city ELSE providers.city END,
	state    = CASE WHEN EXCLUDED.state <> 'XX' AND EXCLUDED.city <> 'Unknown' AND EXCLUDED.zip_code <> '00000' THEN EXCLUDED.state ELSE providers.state END,
	zip_code = CASE WHEN EXCLUDED.state <> 'XX' AND EXCLUDED.city <> 'Unknown' AND EXCLUDED.zip_code <> '00000' THEN EXCLUDED.zip_code ELSE providers.zip_code END,
	latitude  = CASE WHEN EXCLUDED.latitude IS NOT NULL AND EXCLUDED.longitude IS NOT NULL THEN EXCLUDED.latitude ELSE providers.latitude END,
	longitude = CASE WHEN EXCLUDED.latitude IS NOT NULL AND EXCLUDED.longitude IS NOT NULL THEN EXCLUDED.longitude ELSE providers.longitude END,
	phone   = CASE WHEN EXCLUDED.phone <> '' THEN EXCLUDED.phone ELSE providers.phone END,
	website = CASE WHEN EXCLUDED.website <> '' THEN EXCLUDED.website ELSE providers.website END,
	monthly_fee = CASE WHEN EXCLUDED.monthly_fee > 0
		AND (CASE EXCLUDED.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN EXCLUDED.monthly_fee ELSE providers.monthly_fee END,
	child_monthly_fee = CASE WHEN (CASE EXCLUDED.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN COALESCE(EXCLUDED.child_monthly_fee, providers.child_monthly_fee) ELSE providers.child_monthly_fee END,
	family_fee = CASE WHEN (CASE EXCLUDED.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN COALESCE(EXCLUDED.family_fee, providers.family_fee) ELSE providers.family_fee END,
	enrollment_fee = CASE WHEN (CASE EXCLUDED.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN COALESCE(EXCLUDED.enrollment_fee, providers.enrollment_fee) ELSE providers.enrollment_fee END,
	pricing_tiers = CASE WHEN EXCLUDED.pricing_tiers::text <> '[]'
		AND (CASE EXCLUDED.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN EXCLUDED.pricing_tiers ELSE providers.pricing_tiers END,
	pricing_notes = CASE WHEN EXCLUDED.pricing_notes <> ''
		AND (CASE EXCLUDED.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>=  (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN EXCLUDED.pricing_notes ELSE providers.pricing_notes END,
	pricing_scraped_at = COALESCE(EXCLUDED.pricing_scraped_at, providers.pricing_scraped_at),
	pricing_confidence = CASE WHEN (CASE EXCLUDED.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		>   (CASE providers.pricing_confidence WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END)
		THEN EXCLUDED.pricing_confidence ELSE providers.pricing_confidence END,
	accepting_patients = COALESCE(EXCLUDED.accepting_patients, providers.accepting_patients),
	specialties = CASE WHEN EXCLUDED.specialties::text <> '[]' THEN EXCLUDED.specialties ELSE providers.specialties END,
	updated_at = now()`

func (s *PostgresStore) UpsertProvider(ctx context.Context, p model.Provider) error {
	args, err := providerArgs(p)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, upsertProviderSQL, args...); err != nil {
		return eris.Wrapf(err, "postgres: upsert provider %s", p.ID)
	}
	return nil
}

const upsertSourceSQL = `
INSERT INTO provider_sources (provider_id, source, source_url, source_id, data_quality_score, last_scraped)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (provider_id, source) DO UPDATE SET
	source_url = CASE WHEN EXCLUDED.source_url <> '' THEN EXCLUDED.source_url ELSE provider_sources.source_url END,
	source_id  = CASE WHEN EXCLUDED.source_id <> '' THEN EXCLUDED.source_id ELSE provider_sources.source_id END,
	data_quality_score = GREATEST(EXCLUDED.data_quality_score, provider_sources.data_quality_score),
	last_scraped = EXCLUDED.last_scraped`

func (s *PostgresStore) UpsertSource(ctx context.Context, src model.ProviderSource) error {
	last := src.LastScraped
	if last.IsZero() {
		last = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, upsertSourceSQL,
		src.ProviderID, src.Source, src.SourceURL, src.SourceID, src.DataQualityScore, last)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert source %s/%s", src.ProviderID, src.Source)
	}
	return nil
}

func (s *PostgresStore) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get provider %s", id)
	}
	return p, nil
}

func (s *PostgresStore) FindBySourceID(ctx context.Context, source, sourceID string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT provider_id FROM provider_sources WHERE source = $1 AND source_id = $2 LIMIT 1`,
		source, sourceID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "postgres: find by source id %s/%s", source, sourceID)
	}
	return id, nil
}

func (s *PostgresStore) ListByIDPrefix(ctx context.Context, prefix string, limit int) ([]model.Provider, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if prefix == "" {
		// Un-prefixed namespace: everything outside the alliance prefix.
		rows, err = s.pool.Query(ctx,
			`SELECT `+providerColumns+` FROM providers WHERE id NOT LIKE $1 ORDER BY id LIMIT $2`,
			model.AllianceIDPrefix+"%", limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+providerColumns+` FROM providers WHERE id LIKE $1 ORDER BY id LIMIT $2`,
			prefix+"%", limit)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list by id prefix")
	}
	return collectProviders(rows)
}

func (s *PostgresStore) ListMissingCoordinates(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+providerColumns+` FROM providers
		 WHERE latitude IS NULL AND state <> 'XX' ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list missing coordinates")
	}
	return collectProviders(rows)
}

func (s *PostgresStore) ListUnknownLocation(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE state = 'XX' ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unknown location")
	}
	return collectProviders(rows)
}

func (s *PostgresStore) ListMissingPricing(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+providerColumns+` FROM providers
		 WHERE website <> '' AND pricing_confidence IN ('none', 'low') ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list missing pricing")
	}
	return collectProviders(rows)
}

func (s *PostgresStore) ListMissingWebsite(ctx context.Context, limit int) ([]model.Provider, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE website = '' ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list missing website")
	}
	return collectProviders(rows)
}

func (s *PostgresStore) Counts(ctx context.Context) (*Counts, error) {
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
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range scalars {
		g.Go(func() error {
			if err := s.pool.QueryRow(gctx, q.query).Scan(q.dst); err != nil {
				return eris.Wrap(err, "postgres: counts")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT pricing_confidence, count(*) FROM providers GROUP BY pricing_confidence`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: counts by confidence")
	}
	defer rows.Close()
	for rows.Next() {
		var conf string
		var n int
		if err := rows.Scan(&conf, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan confidence count")
		}
		c.PricingConfidence[conf] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: counts by confidence")
	}
	return c, nil
}

// providerArgs normalizes a provider and flattens it into the 21 upsert
// parameters. Missing location fields collapse to the sentinel triple and
// unpaired coordinates are dropped before they reach SQL.
func providerArgs(p model.Provider) ([]any, error) {
	normalizeProvider(&p)

	tiers, err := json.Marshal(p.PricingTiers)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal pricing tiers %s", p.ID)
	}
	specs, err := json.Marshal(p.Specialties)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal specialties %s", p.ID)
	}

	return []any{
		p.ID, p.Name, p.PracticeName, p.Address, p.City, p.State, p.ZipCode,
		p.Latitude, p.Longitude, p.Phone, p.Website,
		p.MonthlyFee, p.ChildMonthlyFee, p.FamilyFee, p.EnrollmentFee,
		tiers, p.PricingNotes, string(p.PricingConfidence), p.PricingScrapedAt,
		p.AcceptingPatients, specs,
	}, nil
}

func normalizeProvider(p *model.Provider) {
	if p.City == "" || p.State == "" || p.ZipCode == "" ||
		p.State == model.StateUnknown || p.City == model.CityUnknown || p.ZipCode == model.ZipUnknown {
		p.City, p.State, p.ZipCode = model.CityUnknown, model.StateUnknown, model.ZipUnknown
	}
	if p.Latitude == nil || p.Longitude == nil {
		p.Latitude, p.Longitude = nil, nil
	}
	if p.PricingConfidence == "" {
		p.PricingConfidence = model.PricingNone
	}
	if p.PricingTiers == nil {
		p.PricingTiers = []model.PricingTier{}
	}
	if p.Specialties == nil {
		p.Specialties = []string{}
	}
}

func scanProvider(row pgx.Row) (*model.Provider, error) {
	var (
		p          model.Provider
		tiers      []byte
		specs      []byte
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
	if len(tiers) > 0 {
		if err := json.Unmarshal(tiers, &p.PricingTiers); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal pricing tiers %s", p.ID)
		}
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specialties); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal specialties %s", p.ID)
		}
	}
	return &p, nil
}

func collectProviders(rows pgx.Rows) ([]model.Provider, error) {
	defer rows.Close()
	var out []model.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
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
