package model

import "time"

// RunStatus tracks the orchestrator's stage sequence for a document run.
type RunStatus string

const (
	RunStatusQueued          RunStatus = "queued"
	RunStatusClassifying     RunStatus = "classifying"
	RunStatusRegionDetection RunStatus = "region_detection"
	RunStatusProviderFanOut  RunStatus = "provider_fan_out"
	RunStatusFusing          RunStatus = "fusing"
	RunStatusConflictCheck   RunStatus = "conflict_check"
	RunStatusAdjudicating    RunStatus = "adjudicating"
	RunStatusNormalizing     RunStatus = "normalizing"
	RunStatusDone            RunStatus = "done"
	RunStatusFailed          RunStatus = "failed"
)

// Run is one pipeline execution over one document.
type Run struct {
	ID        string    `json:"id"`
	DocPath   string    `json:"doc_path"`
	DocID     string    `json:"doc_id"`
	Status    RunStatus `json:"status"`
	Result    *Document `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageResult summarizes one completed pipeline stage for the run record.
type StageResult struct {
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

const (
	StageStatusRunning  = "running"
	StageStatusComplete = "complete"
	StageStatusFailed   = "failed"
)

// RunStage is the persisted record of one stage within a run.
type RunStage struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
