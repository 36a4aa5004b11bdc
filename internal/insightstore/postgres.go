package insightstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// pgDB is the pgxpool subset the store uses; pgxmock satisfies it in tests.
type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on pgx.
type PostgresStore struct {
	db    pgDB
	close func()
}

// NewPostgres connects a pgx pool to the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "insightstore: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "insightstore: ping postgres")
	}
	return &PostgresStore{db: pool, close: pool.Close}, nil
}

// NewPostgresFromDB wraps an existing connection-like value (used by tests).
func NewPostgresFromDB(db pgDB) *PostgresStore {
	return &PostgresStore{db: db, close: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS insights (
	id              UUID PRIMARY KEY,
	insight_type    TEXT NOT NULL,
	entity_type     TEXT NOT NULL,
	entity_id       TEXT NOT NULL,
	payload         JSONB NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL DEFAULT 0,
	model_version   TEXT NOT NULL DEFAULT '',
	organization_id TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_insights_entity
	ON insights(entity_type, entity_id, insight_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_insights_org ON insights(organization_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "insightstore: migrate postgres")
}

func (s *PostgresStore) Close() error {
	s.close()
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec Insight) (*Insight, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx, `
		INSERT INTO insights
			(id, insight_type, entity_type, entity_id, payload, confidence, model_version, organization_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, string(rec.Type), rec.EntityType, rec.EntityID, rec.Payload,
		rec.Confidence, rec.ModelVersion, rec.OrganizationID, rec.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "insightstore: insert %s for %s/%s", rec.Type, rec.EntityType, rec.EntityID)
	}

	return &rec, nil
}

func (s *PostgresStore) GetLatest(ctx context.Context, entityType, entityID string, t Type) (*Insight, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, insight_type, entity_type, entity_id, payload, confidence, model_version, organization_id, created_at
		FROM insights
		WHERE entity_type = $1 AND entity_id = $2 AND insight_type = $3
		ORDER BY created_at DESC
		LIMIT 1
	`, entityType, entityID, string(t))

	var rec Insight
	var typ string
	err := row.Scan(&rec.ID, &typ, &rec.EntityType, &rec.EntityID, &rec.Payload,
		&rec.Confidence, &rec.ModelVersion, &rec.OrganizationID, &rec.CreatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "insightstore: get latest %s for %s/%s", t, entityType, entityID)
	}
	rec.Type = Type(typ)
	return &rec, nil
}

func (s *PostgresStore) CleanupOld(ctx context.Context, organizationID string, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM insights
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY entity_type, entity_id, insight_type
					ORDER BY created_at DESC
				) AS rn
				FROM insights
				WHERE organization_id = $1
			) ranked
			WHERE ranked.rn > $2
		)
	`, organizationID, keep)
	if err != nil {
		return 0, eris.Wrapf(err, "insightstore: cleanup org %s", organizationID)
	}

	removed := int(tag.RowsAffected())
	zap.L().Info("insightstore: pruned superseded insights",
		zap.String("organization_id", organizationID),
		zap.Int("removed", removed),
	)
	return removed, nil
}
