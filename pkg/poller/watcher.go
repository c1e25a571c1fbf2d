// Package poller watches a single call until it reaches a terminal
// status or a wall-clock deadline passes.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/harunnryd/callout/pkg/errorsx"
	"github.com/harunnryd/callout/pkg/retell"
)

// StatusFetcher retrieves the current call record by identifier.
type StatusFetcher interface {
	GetCall(ctx context.Context, callID string) (*retell.CallRecord, error)
}

// Outcome is the terminal state of a watch.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Result describes how a watch ended.
type Result struct {
	Outcome  Outcome
	Record   *retell.CallRecord
	Attempts int
	Elapsed  time.Duration
}

// Watcher polls call status at a fixed interval. There is no backoff:
// a failed status request fails the whole watch.
type Watcher struct {
	fetcher  StatusFetcher
	interval time.Duration
	maxWait  time.Duration
	log      *slog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewWatcher creates a watcher with the given fixed interval and
// maximum wall-clock wait.
func NewWatcher(fetcher StatusFetcher, interval, maxWait time.Duration, log *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 6 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 180 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		fetcher:  fetcher,
		interval: interval,
		maxWait:  maxWait,
		log:      log,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait polls until the call status turns terminal or the deadline
// passes. Polls are issued only while elapsed time is under the
// maximum wait, so at most ceil(maxWait/interval) requests go out.
// Statuses the client does not recognize count as pending; the vendor
// owns the status vocabulary. An error return means a status request
// itself failed; all three Outcome values arrive with a nil error.
func (w *Watcher) Wait(ctx context.Context, callID string) (Result, error) {
	start := w.now()
	attempts := 0
	var last *retell.CallRecord
	for {
		if err := ctx.Err(); err != nil {
			return Result{Record: last, Attempts: attempts, Elapsed: w.now().Sub(start)},
				errorsx.Wrap(err, errorsx.ReasonCallStatus)
		}
		rec, err := w.fetcher.GetCall(ctx, callID)
		if err != nil {
			return Result{Record: last, Attempts: attempts, Elapsed: w.now().Sub(start)},
				errorsx.Wrap(err, errorsx.ReasonCallStatus)
		}
		attempts++
		last = rec
		w.log.Info("call status",
			slog.String("call_id", callID),
			slog.String("status", string(rec.CallStatus)),
			slog.Int("attempt", attempts),
		)
		if rec.CallStatus.Terminal() {
			outcome := OutcomeCompleted
			if rec.CallStatus.Failed() {
				outcome = OutcomeFailed
			}
			return w.finish(outcome, callID, rec, attempts, w.now().Sub(start)), nil
		}
		w.sleep(w.interval)
		if elapsed := w.now().Sub(start); elapsed >= w.maxWait {
			return w.finish(OutcomeTimedOut, callID, last, attempts, elapsed), nil
		}
	}
}

func (w *Watcher) finish(outcome Outcome, callID string, rec *retell.CallRecord, attempts int, elapsed time.Duration) Result {
	w.log.Info("watch finished",
		slog.String("call_id", callID),
		slog.String("outcome", outcome.String()),
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", elapsed),
	)
	return Result{Outcome: outcome, Record: rec, Attempts: attempts, Elapsed: elapsed}
}
