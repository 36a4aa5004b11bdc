package insightstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local and
// single-tenant deployments; the schema mirrors the Postgres store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "insightstore: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "insightstore: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS insights (
	id              TEXT PRIMARY KEY,
	insight_type    TEXT NOT NULL,
	entity_type     TEXT NOT NULL,
	entity_id       TEXT NOT NULL,
	payload         TEXT NOT NULL,
	confidence      REAL NOT NULL DEFAULT 0,
	model_version   TEXT NOT NULL DEFAULT '',
	organization_id TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insights_entity
	ON insights(entity_type, entity_id, insight_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_insights_org ON insights(organization_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "insightstore: migrate sqlite")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, rec Insight) (*Insight, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insights
			(id, insight_type, entity_type, entity_id, payload, confidence, model_version, organization_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Type), rec.EntityType, rec.EntityID, string(rec.Payload),
		rec.Confidence, rec.ModelVersion, rec.OrganizationID, rec.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "insightstore: insert %s for %s/%s", rec.Type, rec.EntityType, rec.EntityID)
	}

	return &rec, nil
}

func (s *SQLiteStore) GetLatest(ctx context.Context, entityType, entityID string, t Type) (*Insight, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, insight_type, entity_type, entity_id, payload, confidence, model_version, organization_id, created_at
		FROM insights
		WHERE entity_type = ? AND entity_id = ? AND insight_type = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, entityType, entityID, string(t))

	var rec Insight
	var typ, payload string
	err := row.Scan(&rec.ID, &typ, &rec.EntityType, &rec.EntityID, &payload,
		&rec.Confidence, &rec.ModelVersion, &rec.OrganizationID, &rec.CreatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "insightstore: get latest %s for %s/%s", t, entityType, entityID)
	}
	rec.Type = Type(typ)
	rec.Payload = []byte(payload)
	return &rec, nil
}

func (s *SQLiteStore) CleanupOld(ctx context.Context, organizationID string, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM insights
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY entity_type, entity_id, insight_type
					ORDER BY created_at DESC
				) AS rn
				FROM insights
				WHERE organization_id = ?
			)
			WHERE rn > ?
		)
	`, organizationID, keep)
	if err != nil {
		return 0, eris.Wrapf(err, "insightstore: cleanup org %s", organizationID)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "insightstore: cleanup rows affected")
	}

	zap.L().Info("insightstore: pruned superseded insights",
		zap.String("organization_id", organizationID),
		zap.Int64("removed", affected),
	)
	return int(affected), nil
}
