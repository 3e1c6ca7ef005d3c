package run

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/checker"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/classify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubChecker resolves each SKU from a fixed table and drives the hooks
// the way the real runner does.
type stubChecker struct {
	hooks    Hooks
	statuses map[string]classify.Status
	err      error
}

func (c *stubChecker) Run(ctx context.Context, skus []string) ([]checker.CheckResult, error) {
	var results []checker.CheckResult
	for i, sku := range skus {
		if c.hooks.ItemStart != nil {
			c.hooks.ItemStart(i, sku)
		}
		status, ok := c.statuses[sku]
		if !ok {
			status = classify.StatusUnknown
		}
		result := checker.CheckResult{SKU: sku, Status: status}
		results = append(results, result)
		if c.hooks.Result != nil {
			c.hooks.Result(i, result, checker.Summarize(results))
		}
	}
	return results, c.err
}

// blockingChecker holds a run open until released.
type blockingChecker struct {
	release chan struct{}
}

func (c *blockingChecker) Run(ctx context.Context, skus []string) ([]checker.CheckResult, error) {
	select {
	case <-c.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitForState(t *testing.T, store *Store, id string, want State) *Run {
	t.Helper()

	require.Eventually(t, func() bool {
		got, err := store.Get(id)
		return err == nil && got.Status == want
	}, 2*time.Second, 10*time.Millisecond)

	got, err := store.Get(id)
	require.NoError(t, err)
	return got
}

func TestServiceRunsToCompletion(t *testing.T) {
	store := NewStore(20)
	var closed atomic.Int32

	launch := func(delaySeconds int, hooks Hooks) (Checker, CloseFunc, error) {
		chk := &stubChecker{
			hooks: hooks,
			statuses: map[string]classify.Status{
				"23360778": classify.StatusListed,
				"23402560": classify.StatusDelisted,
			},
		}
		return chk, func() error { closed.Add(1); return nil }, nil
	}

	svc := NewService(store, launch, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartWorker(ctx)

	created, err := svc.Start([]string{"23360778", "23402560"}, 2)
	require.NoError(t, err)

	got := waitForState(t, store, created.ID, StateCompleted)
	assert.Equal(t, 2, got.Checked)
	require.Len(t, got.Results, 2)
	assert.Equal(t, classify.StatusListed, got.Results[0].Status)
	assert.Equal(t, classify.StatusDelisted, got.Results[1].Status)
	assert.Equal(t, 2, got.Summary.Total)
	assert.Equal(t, 1, got.Summary.Listed)
	assert.Equal(t, 1, got.Summary.Delisted)
	assert.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
	assert.Equal(t, int32(1), closed.Load())
}

func TestServiceFailsWhenBrowserWontStart(t *testing.T) {
	store := NewStore(20)

	launch := func(delaySeconds int, hooks Hooks) (Checker, CloseFunc, error) {
		return nil, nil, errors.New("playwright not installed")
	}

	svc := NewService(store, launch, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartWorker(ctx)

	created, err := svc.Start([]string{"23360778"}, 2)
	require.NoError(t, err)

	got := waitForState(t, store, created.ID, StateFailed)
	assert.Contains(t, got.Error, "failed to start browser session")
	assert.Contains(t, got.Error, "playwright not installed")
	assert.Zero(t, got.Checked)
}

func TestServiceFailsWhenCheckerAborts(t *testing.T) {
	store := NewStore(20)
	var closed atomic.Int32

	launch := func(delaySeconds int, hooks Hooks) (Checker, CloseFunc, error) {
		chk := &stubChecker{hooks: hooks, err: errors.New("page crashed")}
		return chk, func() error { closed.Add(1); return nil }, nil
	}

	svc := NewService(store, launch, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartWorker(ctx)

	created, err := svc.Start([]string{"23360778"}, 2)
	require.NoError(t, err)

	got := waitForState(t, store, created.ID, StateFailed)
	assert.Equal(t, "page crashed", got.Error)
	assert.Equal(t, 1, got.Checked)
	assert.Equal(t, int32(1), closed.Load(), "session must be released even when the run fails")
}

func TestServiceRejectsConcurrentRuns(t *testing.T) {
	store := NewStore(20)
	release := make(chan struct{})

	launch := func(delaySeconds int, hooks Hooks) (Checker, CloseFunc, error) {
		return &blockingChecker{release: release}, func() error { return nil }, nil
	}

	svc := NewService(store, launch, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartWorker(ctx)

	first, err := svc.Start([]string{"23360778"}, 2)
	require.NoError(t, err)

	waitForState(t, store, first.ID, StateRunning)

	_, err = svc.Start([]string{"23402560"}, 2)
	assert.ErrorIs(t, err, ErrRunActive)

	close(release)
	waitForState(t, store, first.ID, StateCompleted)

	_, err = svc.Start([]string{"23402560"}, 2)
	assert.NoError(t, err)
}

func TestServiceWorkerStopsOnCancel(t *testing.T) {
	store := NewStore(20)

	launch := func(delaySeconds int, hooks Hooks) (Checker, CloseFunc, error) {
		return &stubChecker{hooks: hooks}, func() error { return nil }, nil
	}

	svc := NewService(store, launch, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartWorker(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
