package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/store"
)

// memStore is an in-memory store.Store for pipeline tests.
type memStore struct {
	mu         sync.Mutex
	runs       map[string]*model.Run
	stages     []model.RunStage
	documents  map[string]*model.Document
	candidates map[string][]model.CandidateEntity
	statuses   []model.RunStatus
}

func newMemStore() *memStore {
	return &memStore{
		runs:       map[string]*model.Run{},
		documents:  map[string]*model.Document{},
		candidates: map[string][]model.CandidateEntity{},
	}
}

func (m *memStore) CreateRun(_ context.Context, docPath, docID string) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := &model.Run{ID: uuid.New().String(), DocPath: docPath, DocID: docID, Status: model.RunStatusQueued}
	m.runs[run.ID] = run
	return run, nil
}

func (m *memStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].Status = status
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *memStore) SetRunResult(_ context.Context, runID string, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].Result = doc
	m.runs[runID].Status = model.RunStatusDone
	return nil
}

func (m *memStore) SetRunError(_ context.Context, runID string, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].Error = msg
	m.runs[runID].Status = model.RunStatusFailed
	return nil
}

func (m *memStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID], nil
}

func (m *memStore) ListRuns(context.Context, store.RunFilter) ([]model.Run, error) {
	return nil, nil
}

func (m *memStore) CreateStage(_ context.Context, runID, name string) (*model.RunStage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.RunStage{ID: uuid.New().String(), RunID: runID, Name: name, Status: model.StageStatusRunning}
	m.stages = append(m.stages, st)
	return &st, nil
}

func (m *memStore) CompleteStage(_ context.Context, stageID string, result *model.StageResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.stages {
		if m.stages[i].ID == stageID {
			m.stages[i].Status = result.Status
		}
	}
	return nil
}

func (m *memStore) SaveDocument(_ context.Context, _ string, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.DocID] = doc
	return nil
}

func (m *memStore) GetDocument(_ context.Context, docID string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents[docID], nil
}

func (m *memStore) SaveCandidates(_ context.Context, runID, _ string, candidates []model.CandidateEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[runID] = append(m.candidates[runID], candidates...)
	return nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func (m *memStore) singleRun() *model.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		return r
	}
	return nil
}

// stubProvider returns canned candidates for each region type it supports.
type stubProvider struct {
	name       string
	supports   map[model.RegionType]bool
	candidates map[model.RegionType][]model.CandidateEntity
	err        error

	mu    sync.Mutex
	calls []model.Region
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Supports(rt model.RegionType) bool {
	if s.supports == nil {
		return true
	}
	return s.supports[rt]
}

func (s *stubProvider) ParseRegion(_ context.Context, region model.Region) (*model.ProviderResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, region)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return &model.ProviderResult{
		Provider:   s.name,
		Region:     &region,
		Candidates: s.candidates[region.RegionType],
	}, nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stubClassifier returns fixed regions.
type stubClassifier struct {
	regions []model.Region
	err     error
}

func (s *stubClassifier) FirstPassRegions(_ context.Context, pagePath string, pageIndex int) ([]model.Region, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Region, len(s.regions))
	for i, r := range s.regions {
		r.DocPath = pagePath
		r.PageIndex = pageIndex
		out[i] = r
	}
	return out, nil
}
