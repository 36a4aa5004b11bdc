package insightstore

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromDB(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS insights`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO insights`).
		WithArgs(pgxmock.AnyArg(), "risk_assessment", "opportunity", "opp-1",
			pgxmock.AnyArg(), 0.6, "claude-sonnet-4-5-20250929", "org-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.Create(context.Background(), Insight{
		Type:           TypeRiskAssessment,
		EntityType:     EntityOpportunity,
		EntityID:       "opp-1",
		Payload:        []byte(`{"score":75}`),
		Confidence:     0.6,
		ModelVersion:   "claude-sonnet-4-5-20250929",
		OrganizationID: "org-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID, "an ID is assigned on create")
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLatest(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{
		"id", "insight_type", "entity_type", "entity_id", "payload",
		"confidence", "model_version", "organization_id", "created_at",
	}).AddRow("ins-1", "risk_assessment", "opportunity", "opp-1",
		[]byte(`{"score":75}`), 0.6, "", "org-1", created)

	mock.ExpectQuery(`SELECT .+ FROM insights`).
		WithArgs("opportunity", "opp-1", "risk_assessment").
		WillReturnRows(rows)

	rec, err := s.GetLatest(context.Background(), EntityOpportunity, "opp-1", TypeRiskAssessment)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "ins-1", rec.ID)
	assert.Equal(t, TypeRiskAssessment, rec.Type)
	assert.JSONEq(t, `{"score":75}`, string(rec.Payload))
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLatest_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM insights`).
		WithArgs("opportunity", "opp-missing", "risk_assessment").
		WillReturnError(pgx.ErrNoRows)

	rec, err := s.GetLatest(context.Background(), EntityOpportunity, "opp-missing", TypeRiskAssessment)
	require.NoError(t, err, "no rows is not an error")
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CleanupOld(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM insights`).
		WithArgs("org-1", 10).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	removed, err := s.CleanupOld(context.Background(), "org-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CleanupOld_FloorsKeepAtOne(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM insights`).
		WithArgs("org-1", 1).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	_, err := s.CleanupOld(context.Background(), "org-1", 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
