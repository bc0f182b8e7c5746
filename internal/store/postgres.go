package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/coi-cli/internal/db"
	"github.com/sells-group/coi-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL UNIQUE,
	partner_id   TEXT NOT NULL DEFAULT '',
	partner_name TEXT NOT NULL DEFAULT '',
	action       TEXT NOT NULL,
	passed       BOOLEAN NOT NULL DEFAULT false,
	message      TEXT NOT NULL DEFAULT '',
	assessment   JSONB NOT NULL,
	assessed_at  TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_assessments_partner ON assessments(partner_id);
CREATE INDEX IF NOT EXISTS idx_assessments_action ON assessments(action);
CREATE INDEX IF NOT EXISTS idx_assessments_assessed_at ON assessments(assessed_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const upsertAssessment = `INSERT INTO assessments (id, document_id, partner_id, partner_name, action, passed, message, assessment, assessed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (document_id) DO UPDATE SET
	partner_id = EXCLUDED.partner_id,
	partner_name = EXCLUDED.partner_name,
	action = EXCLUDED.action,
	passed = EXCLUDED.passed,
	message = EXCLUDED.message,
	assessment = EXCLUDED.assessment,
	assessed_at = EXCLUDED.assessed_at,
	updated_at = EXCLUDED.updated_at
RETURNING id`

func (s *PostgresStore) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	body, err := json.Marshal(a)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal assessment")
	}

	var id string
	err = s.pool.QueryRow(ctx, upsertAssessment,
		a.ID, a.Document.ID, a.Document.Partner.ID, a.Document.Partner.Name,
		string(a.Result.Action), a.Result.Passed, a.Result.Message, body,
		a.AssessedAt.UTC(), time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return eris.Wrapf(err, "postgres: save assessment for document %s", a.Document.ID)
	}
	a.ID = id
	return nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, assessment FROM assessments WHERE id = $1`, id,
	).Scan(&id, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get assessment %s", id)
	}
	return decodeAssessment(id, body)
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `SELECT id, assessment FROM assessments WHERE true`
	args := []any{}
	argIdx := 1

	if filter.PartnerID != "" {
		query += fmt.Sprintf(` AND partner_id = $%d`, argIdx)
		args = append(args, filter.PartnerID)
		argIdx++
	}
	if filter.Action != "" {
		query += fmt.Sprintf(` AND action = $%d`, argIdx)
		args = append(args, string(filter.Action.Canonical()))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY assessed_at DESC, document_id LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		a, err := decodeAssessment(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list assessments iterate")
}
