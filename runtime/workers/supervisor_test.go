package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

// panicNTimes panics its first n runs, then terminates cleanly.
type panicNTimes struct {
	remaining atomic.Int32
	runs      atomic.Int32
}

func (w *panicNTimes) Run(ctx context.Context) error {
	w.runs.Add(1)
	if w.remaining.Add(-1) >= 0 {
		panic("boom")
	}
	return nil
}

func TestSupervisorRestartsPanickedWorker(t *testing.T) {
	// Given a worker that panics twice before finishing
	worker := &panicNTimes{}
	worker.remaining.Store(2)
	supervisor := NewSupervisor(testLogger())
	supervisor.Add(worker)

	// When the supervisor runs it to completion
	done := make(chan struct{})
	go func() {
		supervisor.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not finish")
	}

	// Then the worker was restarted after each panic
	require.Equal(t, int32(3), worker.runs.Load())
}

// blockUntilCanceled runs until its context is canceled.
type blockUntilCanceled struct{}

func (blockUntilCanceled) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestSupervisorStopsOnParentCancellation(t *testing.T) {
	// Given a worker that only stops on cancellation
	supervisor := NewSupervisor(testLogger())
	supervisor.Add(blockUntilCanceled{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(done)
	}()

	// When the parent context is canceled
	cancel()

	// Then Run returns once every worker exited
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not unblock Run")
	}
}
