package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

type fakeRunner struct {
	mu     sync.Mutex
	runs   int
	signal chan struct{}

	// when set, RunCycle signals and then waits for one token; lets
	// tests pile up kicks while a cycle is provably in flight
	block chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{signal: make(chan struct{}, 16)}
}

func (f *fakeRunner) RunCycle(ctx context.Context) (*domain.CycleReport, error) {
	f.mu.Lock()
	f.runs++
	block := f.block
	f.mu.Unlock()

	f.signal <- struct{}{}
	if block != nil {
		<-block
	}
	return &domain.CycleReport{}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func waitForCycle(t *testing.T, runner *fakeRunner) {
	t.Helper()
	select {
	case <-runner.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a cycle")
	}
}

func startScheduler(t *testing.T, runner *fakeRunner, interval time.Duration) (cancel context.CancelFunc, done chan struct{}, s *Scheduler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s = NewScheduler(runner, interval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return cancel, done, s
}

func TestSchedulerRunsImmediately(t *testing.T) {
	runner := newFakeRunner()
	cancel, done, _ := startScheduler(t, runner, time.Hour)
	defer cancel()

	waitForCycle(t, runner)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	if got := runner.count(); got != 1 {
		t.Errorf("expected exactly the startup cycle, got %d", got)
	}
}

func TestSchedulerKicksCoalesce(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})

	cancel, done, s := startScheduler(t, runner, time.Hour)
	defer cancel()

	waitForCycle(t, runner) // startup cycle is now in flight

	// all of these land while the scheduler is busy
	s.Kick()
	s.Kick()
	s.Kick()

	runner.block <- struct{}{} // finish the startup cycle
	waitForCycle(t, runner)    // the single coalesced kick cycle
	runner.block <- struct{}{}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	if got := runner.count(); got != 2 {
		t.Errorf("expected startup plus one kicked cycle, got %d", got)
	}
}

func TestSchedulerTicks(t *testing.T) {
	runner := newFakeRunner()
	cancel, done, _ := startScheduler(t, runner, 20*time.Millisecond)
	defer cancel()

	waitForCycle(t, runner) // startup cycle
	waitForCycle(t, runner) // first tick

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
