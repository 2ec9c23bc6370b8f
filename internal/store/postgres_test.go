package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpcfinder/dpc-enrich/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func providerRowColumns() []string {
	return []string{
		"id", "name", "practice_name", "address", "city", "state", "zip_code",
		"latitude", "longitude", "phone", "website",
		"monthly_fee", "child_monthly_fee", "family_fee", "enrollment_fee",
		"pricing_tiers", "pricing_notes", "pricing_confidence", "pricing_scraped_at",
		"accepting_patients", "specialties", "created_at", "updated_at",
	}
}

func addProviderRow(rows *pgxmock.Rows, id, name string) *pgxmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(
		id, name, "", "123 Main St", "Springfield", "IL", "62704",
		nil, nil, "2175550100", "https://examplefamilymed.com",
		150.0, nil, nil, nil,
		[]byte(`[]`), "", "high", nil,
		nil, []byte(`[]`), now, now,
	)
}

func TestPostgresStore_GetProvider_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM providers WHERE id = \$1`).
		WithArgs("example-family-medicine").
		WillReturnRows(addProviderRow(pgxmock.NewRows(providerRowColumns()), "example-family-medicine", "Example Family Medicine"))

	p, err := s.GetProvider(context.Background(), "example-family-medicine")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Example Family Medicine", p.Name)
	assert.Equal(t, "IL", p.State)
	assert.Equal(t, model.PricingHigh, p.PricingConfidence)
	assert.Nil(t, p.Latitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProvider_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM providers WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	p, err := s.GetProvider(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertProvider(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// 21 bound parameters; the location triple collapses to sentinels
	// before it reaches SQL.
	args := []any{
		"example-family-medicine", "Example Family Medicine", "", "",
		"Unknown", "XX", "00000",
	}
	for len(args) < 21 {
		args = append(args, pgxmock.AnyArg())
	}
	mock.ExpectExec(`INSERT INTO providers`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertProvider(context.Background(), model.Provider{
		ID:   "example-family-medicine",
		Name: "Example Family Medicine",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertSource(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO provider_sources`).
		WithArgs("p1", model.SourceFrontier, "https://mapper.example.com/p1", "p1", 65, last).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertSource(context.Background(), model.ProviderSource{
		ProviderID:       "p1",
		Source:           model.SourceFrontier,
		SourceURL:        "https://mapper.example.com/p1",
		SourceID:         "p1",
		DataQualityScore: 65,
		LastScraped:      last,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindBySourceID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT provider_id FROM provider_sources WHERE source = \$1 AND source_id = \$2`).
		WithArgs(model.SourceAlliance, "member-42").
		WillReturnRows(pgxmock.NewRows([]string{"provider_id"}).AddRow("dpca-member-42"))

	id, err := s.FindBySourceID(context.Background(), model.SourceAlliance, "member-42")
	require.NoError(t, err)
	assert.Equal(t, "dpca-member-42", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindBySourceID_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT provider_id FROM provider_sources`).
		WithArgs(model.SourceAlliance, "member-99").
		WillReturnError(pgx.ErrNoRows)

	id, err := s.FindBySourceID(context.Background(), model.SourceAlliance, "member-99")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByIDPrefix_EmptyPrefixExcludesAlliance(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM providers WHERE id NOT LIKE \$1 ORDER BY id LIMIT \$2`).
		WithArgs(model.AllianceIDPrefix+"%", 10).
		WillReturnRows(addProviderRow(pgxmock.NewRows(providerRowColumns()), "example-family-medicine", "Example Family Medicine"))

	providers, err := s.ListByIDPrefix(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "example-family-medicine", providers[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByIDPrefix_AllianceNamespace(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM providers WHERE id LIKE \$1 ORDER BY id LIMIT \$2`).
		WithArgs(model.AllianceIDPrefix+"%", 5).
		WillReturnRows(addProviderRow(pgxmock.NewRows(providerRowColumns()), "dpca-prairie-direct-care", "Prairie Direct Care"))

	providers, err := s.ListByIDPrefix(context.Background(), model.AllianceIDPrefix, 5)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "dpca-prairie-direct-care", providers[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMissingPricing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`pricing_confidence IN \('none', 'low'\)`).
		WithArgs(25).
		WillReturnRows(addProviderRow(pgxmock.NewRows(providerRowColumns()), "p1", "Example Family Medicine"))

	providers, err := s.ListMissingPricing(context.Background(), 25)
	require.NoError(t, err)
	assert.Len(t, providers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Counts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// The scalar counts run concurrently.
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`SELECT count\(\*\) FROM providers$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`WHERE latitude IS NULL`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`WHERE state = 'XX'`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`WHERE website = ''`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`GROUP BY pricing_confidence`).
		WillReturnRows(pgxmock.NewRows([]string{"pricing_confidence", "count"}).
			AddRow("none", 20).
			AddRow("high", 22))

	c, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, c.Providers)
	assert.Equal(t, 7, c.MissingCoordinates)
	assert.Equal(t, 3, c.UnknownLocation)
	assert.Equal(t, 5, c.MissingWebsite)
	assert.Equal(t, map[string]int{"none": 20, "high": 22}, c.PricingConfidence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS providers`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
