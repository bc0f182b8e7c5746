package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/coi-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL UNIQUE,
	partner_id   TEXT NOT NULL DEFAULT '',
	partner_name TEXT NOT NULL DEFAULT '',
	action       TEXT NOT NULL,
	passed       INTEGER NOT NULL DEFAULT 0,
	message      TEXT NOT NULL DEFAULT '',
	assessment   TEXT NOT NULL,
	assessed_at  DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_assessments_partner ON assessments(partner_id);
CREATE INDEX IF NOT EXISTS idx_assessments_action ON assessments(action);
CREATE INDEX IF NOT EXISTS idx_assessments_assessed_at ON assessments(assessed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	body, err := json.Marshal(a)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal assessment")
	}

	var id string
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO assessments (id, document_id, partner_id, partner_name, action, passed, message, assessment, assessed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			partner_id = excluded.partner_id,
			partner_name = excluded.partner_name,
			action = excluded.action,
			passed = excluded.passed,
			message = excluded.message,
			assessment = excluded.assessment,
			assessed_at = excluded.assessed_at,
			updated_at = excluded.updated_at
		RETURNING id`,
		a.ID, a.Document.ID, a.Document.Partner.ID, a.Document.Partner.Name,
		string(a.Result.Action), a.Result.Passed, a.Result.Message, string(body),
		a.AssessedAt.UTC(), time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save assessment for document %s", a.Document.ID)
	}
	a.ID = id
	return nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, assessment FROM assessments WHERE id = ?`, id,
	).Scan(&id, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get assessment %s", id)
	}
	return decodeAssessment(id, []byte(body))
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `SELECT id, assessment FROM assessments WHERE 1=1`
	var args []any

	if filter.PartnerID != "" {
		query += ` AND partner_id = ?`
		args = append(args, filter.PartnerID)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(filter.Action.Canonical()))
	}
	query += ` ORDER BY assessed_at DESC, document_id LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		a, err := decodeAssessment(id, []byte(body))
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assessments iterate")
}

func decodeAssessment(id string, body []byte) (*model.Assessment, error) {
	var a model.Assessment
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal assessment %s", id)
	}
	a.ID = id
	return &a, nil
}
