package run

import (
	"time"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/checker"
)

type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the run has finished, successfully or not.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Run is one pass over an uploaded SKU list. Results arrive one at a time
// while the run is live; Summary always partitions exactly the results
// recorded so far.
type Run struct {
	ID           string                `json:"id"`
	Status       State                 `json:"status"`
	SKUs         []string              `json:"-"`
	SKUCount     int                   `json:"sku_count"`
	DelaySeconds int                   `json:"delay_seconds"`
	CurrentSKU   string                `json:"current_sku,omitempty"`
	Checked      int                   `json:"checked"`
	Results      []checker.CheckResult `json:"results"`
	Summary      checker.RunSummary    `json:"summary"`
	CreatedAt    time.Time             `json:"created_at"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	Error        string                `json:"error,omitempty"`
}

func (r *Run) snapshot() *Run {
	cp := *r
	cp.SKUs = make([]string, len(r.SKUs))
	copy(cp.SKUs, r.SKUs)
	cp.Results = make([]checker.CheckResult, len(r.Results))
	copy(cp.Results, r.Results)
	return &cp
}
