package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, doc_path, doc_id, status, result, error, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "plans/drawing.pdf", "abc123def456", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "plans/drawing.pdf", "abc123def456")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.Equal(t, "abc123def456", run.DocID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRunStatusNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("fusing", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFusing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetDocumentNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT result FROM documents`).
		WithArgs("000000000000").
		WillReturnError(pgx.ErrNoRows)

	doc, err := s.GetDocument(context.Background(), "000000000000")
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveDocumentUpserts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO documents .+ ON CONFLICT \(doc_id\) DO UPDATE`).
		WithArgs("abc123def456", "plans/drawing.pdf", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveDocument(context.Background(), "plans/drawing.pdf", testDocument("abc123def456"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveCandidatesUsesCopy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"candidates"}, candidateColumns).WillReturnResult(2)

	cands := []model.CandidateEntity{
		model.NewCandidate(model.EntityWeld, "reducto", 0, model.BBox{}, map[string]any{"symbol": "fillet"}, 0.9, 0.75),
		model.NewCandidate(model.EntityWeld, "layoutlm", 0, model.BBox{}, map[string]any{"symbol": "groove"}, 0.5, 0.75),
	}
	err := s.SaveCandidates(context.Background(), "run-1", "abc123def456", cands)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveCandidatesEmpty(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	require.NoError(t, s.SaveCandidates(context.Background(), "run-1", "abc", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
