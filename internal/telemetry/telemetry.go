// Package telemetry writes the append-only NDJSON audit trail: one record
// per candidate decision, one summary per document. Telemetry is diagnostic,
// never authoritative, so writes that fail are logged and dropped.
package telemetry

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// DocID derives the stable document identifier from its source name: the
// first twelve hex characters of its SHA-1.
func DocID(source string) string {
	sum := sha1.Sum([]byte(source))
	return hex.EncodeToString(sum[:])[:12]
}

// EntityRecord is one candidate decision.
type EntityRecord struct {
	Timestamp            string   `json:"ts"`
	DocID                string   `json:"doc_id"`
	EntityType           string   `json:"entity_type"`
	Provider             string   `json:"provider"`
	Page                 int      `json:"page"`
	Confidence           float64  `json:"confidence"`
	ConfidenceCalibrated float64  `json:"confidence_calibrated"`
	Accepted             bool     `json:"accepted"`
	Reason               string   `json:"reason,omitempty"`
	AgreementPartners    []string `json:"agreement_partners,omitempty"`
	Escalated            bool     `json:"escalated,omitempty"`
	AdjudicatorUsed      bool     `json:"adjudicator_used,omitempty"`
}

// SummaryRecord is the per-document rollup.
type SummaryRecord struct {
	Timestamp        string           `json:"ts"`
	DocID            string           `json:"doc_id"`
	Source           string           `json:"source"`
	ConfigHash       string           `json:"config_hash"`
	StageLatencyMS   map[string]int64 `json:"stage_latency_ms"`
	AcceptedByProv   map[string]int   `json:"accepted_by_provider"`
	CandidateCount   int              `json:"candidate_count"`
	FusedCount       int              `json:"fused_count"`
	ConflictCount    int              `json:"conflict_count"`
	AdjudicatedCount int              `json:"adjudicated_count"`
	EscalatedCount   int              `json:"escalated_count"`
}

// Logger appends JSON records to date-partitioned files under the base
// path: <base>/<YYYY-MM-DD>/<doc_id>.entities.ndjson and
// <doc_id>.summary.ndjson. The date is UTC.
type Logger struct {
	basePath string
	now      func() time.Time

	mu sync.Mutex
}

// NewLogger creates a telemetry logger rooted at basePath.
func NewLogger(basePath string) *Logger {
	return &Logger{basePath: basePath, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (l *Logger) WithNow(now func() time.Time) *Logger {
	l.now = now
	return l
}

// LogEntity records one candidate decision. Write failures are swallowed.
func (l *Logger) LogEntity(docID string, c model.CandidateEntity) {
	rec := EntityRecord{
		Timestamp:            l.now().UTC().Format(time.RFC3339),
		DocID:                docID,
		EntityType:           string(c.EntityType),
		Provider:             c.Provider,
		Page:                 c.Page,
		Confidence:           c.Confidence,
		ConfidenceCalibrated: c.ConfidenceCalibrated,
		Accepted:             c.Accepted,
		Reason:               c.Reason,
		AgreementPartners:    c.AgreementPartners,
		Escalated:            c.Escalated,
		AdjudicatorUsed:      c.AdjudicatorUsed,
	}
	l.append(docID+".entities.ndjson", rec)
}

// LogSummary records the per-document rollup. Write failures are swallowed.
func (l *Logger) LogSummary(rec SummaryRecord) {
	if rec.Timestamp == "" {
		rec.Timestamp = l.now().UTC().Format(time.RFC3339)
	}
	l.append(rec.DocID+".summary.ndjson", rec)
}

func (l *Logger) append(name string, rec any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := filepath.Join(l.basePath, l.now().UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Warn("telemetry: mkdir failed", zap.String("dir", dir), zap.Error(err))
		return
	}

	line, err := json.Marshal(rec)
	if err != nil {
		zap.L().Warn("telemetry: marshal failed", zap.Error(err))
		return
	}
	line = append(line, '\n')

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		zap.L().Warn("telemetry: open failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(line); err != nil {
		zap.L().Warn("telemetry: write failed", zap.String("path", path), zap.Error(err))
	}
}
