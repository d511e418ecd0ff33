package workers

import (
	"context"
	"log/slog"
	"time"
)

// IdleSweeper is implemented by the session lifecycle manager.
type IdleSweeper interface {
	SweepIdle(deadline time.Duration) int
}

// SweeperWorker periodically drops connections that opened a socket
// but never completed registration. The transport layer also times
// sockets out; this is the core-side guarantee that anonymous
// sessions cannot accumulate.
type SweeperWorker struct {
	log      *slog.Logger
	sweeper  IdleSweeper
	interval time.Duration
	deadline time.Duration
}

func NewSweeperWorker(log *slog.Logger, sweeper IdleSweeper, interval, deadline time.Duration) *SweeperWorker {
	return &SweeperWorker{log: log, sweeper: sweeper, interval: interval, deadline: deadline}
}

func (w *SweeperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := w.sweeper.SweepIdle(w.deadline); n > 0 {
				w.log.Info("Idle handshakes swept", "count", n)
			}
		}
	}
}
