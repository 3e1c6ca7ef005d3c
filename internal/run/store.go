package run

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/checker"
)

var (
	// ErrRunActive is returned when a new run is requested while another
	// one is still pending or running. The browser session is a serial
	// resource, so only one run may be live at a time.
	ErrRunActive = errors.New("a run is already active")

	// ErrRunNotFound is returned for unknown run IDs.
	ErrRunNotFound = errors.New("run not found")
)

// Store keeps runs in memory, newest runs evicting the oldest once the
// history limit is reached. All reads hand out snapshot copies so callers
// never observe a run mid-mutation.
type Store struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
	limit int
}

func NewStore(limit int) *Store {
	if limit < 1 {
		limit = 20
	}
	return &Store{
		runs:  make(map[string]*Run),
		limit: limit,
	}
}

// Create registers a new pending run. It fails with ErrRunActive while any
// existing run has not reached a terminal state.
func (s *Store) Create(skus []string, delaySeconds int) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		if !s.runs[id].Status.Terminal() {
			return nil, ErrRunActive
		}
	}

	for len(s.order) >= s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}

	run := &Run{
		ID:           uuid.New().String(),
		Status:       StatePending,
		SKUs:         make([]string, len(skus)),
		SKUCount:     len(skus),
		DelaySeconds: delaySeconds,
		Results:      make([]checker.CheckResult, 0, len(skus)),
		CreatedAt:    time.Now(),
	}
	copy(run.SKUs, skus)

	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)

	return run.snapshot(), nil
}

// Get returns a snapshot of the run with the given ID.
func (s *Store) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run.snapshot(), nil
}

// List returns snapshots of all retained runs, newest first.
func (s *Store) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		runs = append(runs, s.runs[s.order[i]].snapshot())
	}
	return runs
}

// NextPending returns the oldest run still waiting to be executed.
func (s *Store) NextPending() (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if s.runs[id].Status == StatePending {
			return s.runs[id].snapshot(), true
		}
	}
	return nil, false
}

func (s *Store) markRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	now := time.Now()
	run.Status = StateRunning
	run.StartedAt = &now
	return nil
}

func (s *Store) markCompleted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	now := time.Now()
	run.Status = StateCompleted
	run.CompletedAt = &now
	run.CurrentSKU = ""
	return nil
}

func (s *Store) markFailed(id string, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	now := time.Now()
	run.Status = StateFailed
	run.CompletedAt = &now
	run.CurrentSKU = ""
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return nil
}

func (s *Store) recordItemStart(id string, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	run.CurrentSKU = sku
	return nil
}

func (s *Store) recordResult(id string, result checker.CheckResult, summary checker.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	run.Results = append(run.Results, result)
	run.Checked = len(run.Results)
	run.Summary = summary
	return nil
}
