package report

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// Record types in the JSON stream.
const (
	RecordRun     = "run"
	RecordSummary = "summary"
)

// JSON writes JSON-Lines: one object per run and a final summary object,
// each tagged with a "type" field. It implements ports.Reporter.
type JSON struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSON creates a JSON-Lines reporter writing to w (os.Stdout when nil).
func NewJSON(w io.Writer) *JSON {
	if w == nil {
		w = os.Stdout
	}
	return &JSON{encoder: json.NewEncoder(w)}
}

type runRecord struct {
	Type string `json:"type"`
	domain.RunResult
}

type summaryRecord struct {
	Type string `json:"type"`
	domain.Summary
}

func (j *JSON) Report(ctx context.Context, r domain.RunResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.encoder.Encode(runRecord{Type: RecordRun, RunResult: r})
}

func (j *JSON) Summarize(ctx context.Context, s domain.Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.encoder.Encode(summaryRecord{Type: RecordSummary, Summary: s})
}
