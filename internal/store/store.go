// Package store persists pipeline runs, stage records, and final documents.
package store

import (
	"context"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	DocID  string          `json:"doc_id,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the extraction pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, docPath, docID string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	SetRunResult(ctx context.Context, runID string, doc *model.Document) error
	SetRunError(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stages
	CreateStage(ctx context.Context, runID string, name string) (*model.RunStage, error)
	CompleteStage(ctx context.Context, stageID string, result *model.StageResult) error

	// Documents (latest fused output per doc_id)
	SaveDocument(ctx context.Context, docPath string, doc *model.Document) error
	GetDocument(ctx context.Context, docID string) (*model.Document, error)

	// Candidate audit trail (queryable complement to the NDJSON log)
	SaveCandidates(ctx context.Context, runID, docID string, candidates []model.CandidateEntity) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
