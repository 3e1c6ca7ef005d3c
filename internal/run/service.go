package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/checker"
)

// ErrBrowserStartup is returned when the browser session for a run could
// not be brought up. The run fails before any SKU is checked.
var ErrBrowserStartup = errors.New("failed to start browser session")

// Checker runs the actual SKU checks. Satisfied by checker.Runner.
type Checker interface {
	Run(ctx context.Context, skus []string) ([]checker.CheckResult, error)
}

// CloseFunc releases the browser session acquired for a run.
type CloseFunc func() error

// Hooks carries the per-item progress callbacks into a launched checker.
type Hooks struct {
	ItemStart checker.ItemStartFunc
	Result    checker.ProgressFunc
}

// LaunchFunc acquires a fresh browser session and builds the checker for
// one run. Each run gets its own session so a crashed browser never leaks
// into the next run.
type LaunchFunc func(delaySeconds int, hooks Hooks) (Checker, CloseFunc, error)

// Service accepts run requests and executes them one at a time on a
// background worker.
type Service struct {
	store  *Store
	launch LaunchFunc
	logger *slog.Logger
	wake   chan struct{}
}

func NewService(store *Store, launch LaunchFunc, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		launch: launch,
		logger: logger.With("component", "run_service"),
		wake:   make(chan struct{}, 1),
	}
}

// Start registers a new pending run and nudges the worker. It returns
// ErrRunActive while a previous run is still live.
func (s *Service) Start(skus []string, delaySeconds int) (*Run, error) {
	run, err := s.store.Create(skus, delaySeconds)
	if err != nil {
		return nil, err
	}

	s.logger.Info("run created", "id", run.ID, "skus", run.SKUCount, "delay_seconds", run.DelaySeconds)

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return run, nil
}

// StartWorker runs the background loop that picks up pending runs. It
// returns when ctx is cancelled; a run in flight is cut short and marked
// failed.
func (s *Service) StartWorker(ctx context.Context) {
	s.logger.Info("run worker started")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("run worker stopping")
			return
		case <-s.wake:
			s.processNext(ctx)
		case <-ticker.C:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	run, ok := s.store.NextPending()
	if !ok {
		return
	}

	s.logger.Info("processing run", "id", run.ID, "skus", run.SKUCount)

	if err := s.store.markRunning(run.ID); err != nil {
		s.logger.Error("failed to mark run running", "id", run.ID, "error", err)
		return
	}

	if err := s.execute(ctx, run); err != nil {
		s.logger.Error("run failed", "id", run.ID, "error", err)
		if markErr := s.store.markFailed(run.ID, err); markErr != nil {
			s.logger.Error("failed to mark run failed", "id", run.ID, "error", markErr)
		}
		return
	}

	if err := s.store.markCompleted(run.ID); err != nil {
		s.logger.Error("failed to mark run completed", "id", run.ID, "error", err)
		return
	}

	s.logger.Info("run completed", "id", run.ID)
}

func (s *Service) execute(ctx context.Context, run *Run) error {
	hooks := Hooks{
		ItemStart: func(index int, sku string) {
			if err := s.store.recordItemStart(run.ID, sku); err != nil {
				s.logger.Error("failed to record progress", "id", run.ID, "error", err)
			}
		},
		Result: func(index int, result checker.CheckResult, summary checker.RunSummary) {
			if err := s.store.recordResult(run.ID, result, summary); err != nil {
				s.logger.Error("failed to record result", "id", run.ID, "error", err)
			}
		},
	}

	chk, closeSession, err := s.launch(run.DelaySeconds, hooks)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserStartup, err)
	}
	defer func() {
		if err := closeSession(); err != nil {
			s.logger.Error("failed to close browser session", "id", run.ID, "error", err)
		}
	}()

	_, err = chk.Run(ctx, run.SKUs)
	return err
}
