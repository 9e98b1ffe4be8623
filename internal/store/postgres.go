package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/blueprint-cli/internal/db"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
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
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	doc_path   TEXT NOT NULL,
	doc_id     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_stages (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     JSONB,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	doc_id     TEXT PRIMARY KEY,
	doc_path   TEXT NOT NULL,
	result     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS candidates (
	id                    TEXT PRIMARY KEY,
	run_id                TEXT NOT NULL REFERENCES runs(id),
	doc_id                TEXT NOT NULL,
	entity_type           TEXT NOT NULL,
	provider              TEXT NOT NULL,
	page                  INTEGER NOT NULL,
	confidence            DOUBLE PRECISION NOT NULL,
	confidence_calibrated DOUBLE PRECISION NOT NULL,
	accepted              BOOLEAN NOT NULL DEFAULT false,
	reason                TEXT,
	fields                JSONB
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_doc_id ON runs(doc_id);
CREATE INDEX IF NOT EXISTS idx_run_stages_run_id ON run_stages(run_id);
CREATE INDEX IF NOT EXISTS idx_candidates_run_id ON candidates(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, docPath, docID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, doc_path, doc_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, docPath, docID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		DocPath:   docPath,
		DocID:     docID,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) SetRunResult(ctx context.Context, runID string, doc *model.Document) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal document")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		docJSON, string(model.RunStatusDone), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) SetRunError(ctx context.Context, runID string, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		msg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set run error %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, doc_path, doc_id, status, result, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, doc_path, doc_id, status, result, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	if filter.DocID != "" {
		args = append(args, filter.DocID)
		query += ` AND doc_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) CreateStage(ctx context.Context, runID string, name string) (*model.RunStage, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_stages (id, run_id, name, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, runID, name, model.StageStatusRunning, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert stage for run %s", runID)
	}

	return &model.RunStage{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.StageStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteStage(ctx context.Context, stageID string, result *model.StageResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stage result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE run_stages SET status = $1, result = $2 WHERE id = $3`,
		result.Status, resultJSON, stageID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete stage %s", stageID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("stage not found: %s", stageID)
	}
	return nil
}

var documentUpsert = db.UpsertConfig{
	Table:        "documents",
	Columns:      []string{"doc_id", "doc_path", "result", "updated_at"},
	ConflictKeys: []string{"doc_id"},
}

func (s *PostgresStore) SaveDocument(ctx context.Context, docPath string, doc *model.Document) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal document")
	}

	sql, err := db.UpsertSQL(documentUpsert)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, sql, doc.DocID, docPath, docJSON, time.Now().UTC())
	return eris.Wrap(err, "postgres: save document")
}

func (s *PostgresStore) GetDocument(ctx context.Context, docID string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT result FROM documents WHERE doc_id = $1`, docID)

	var docJSON []byte
	err := row.Scan(&docJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get document")
	}

	var doc model.Document
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal document")
	}
	return &doc, nil
}

var candidateColumns = []string{
	"id", "run_id", "doc_id", "entity_type", "provider", "page",
	"confidence", "confidence_calibrated", "accepted", "reason", "fields",
}

func (s *PostgresStore) SaveCandidates(ctx context.Context, runID, docID string, candidates []model.CandidateEntity) error {
	if len(candidates) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(candidates))
	for _, c := range candidates {
		fieldsJSON, err := json.Marshal(c.Fields)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal candidate fields")
		}
		rows = append(rows, []any{
			c.ID, runID, docID, string(c.EntityType), c.Provider, c.Page,
			c.Confidence, c.ConfidenceCalibrated, c.Accepted, c.Reason, fieldsJSON,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "candidates", candidateColumns, rows)
	return err
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var resultJSON []byte
	var errMsg *string

	if err := row.Scan(&r.ID, &r.DocPath, &r.DocID, &r.Status, &resultJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}

	if len(resultJSON) > 0 {
		r.Result = &model.Document{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal result")
		}
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}
