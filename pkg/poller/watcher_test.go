package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/harunnryd/callout/pkg/errorsx"
	"github.com/harunnryd/callout/pkg/retell"
)

type stubFetcher struct {
	statuses []retell.CallStatus
	err      error
	calls    int
}

func (s *stubFetcher) GetCall(ctx context.Context, callID string) (*retell.CallRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	s.calls++
	return &retell.CallRecord{CallID: callID, CallStatus: s.statuses[idx]}, nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWatcher(fetcher StatusFetcher, interval, maxWait time.Duration) (*Watcher, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
	w := NewWatcher(fetcher, interval, maxWait, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.now = clock.now
	w.sleep = clock.advance
	return w, clock
}

func TestWaitCompletesOnEnded(t *testing.T) {
	fetcher := &stubFetcher{statuses: []retell.CallStatus{
		retell.CallStatusRegistered,
		retell.CallStatusOngoing,
		retell.CallStatusEnded,
	}}
	w, _ := newTestWatcher(fetcher, 5*time.Second, 60*time.Second)

	res, err := w.Wait(context.Background(), "call_123")
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed, got %s", res.Outcome)
	}
	if res.Attempts != 3 || fetcher.calls != 3 {
		t.Fatalf("expected exactly 3 polls, got %d/%d", res.Attempts, fetcher.calls)
	}
	if res.Elapsed != 10*time.Second {
		t.Fatalf("expected 10s elapsed, got %s", res.Elapsed)
	}
	if res.Record == nil || res.Record.CallStatus != retell.CallStatusEnded {
		t.Fatalf("expected terminal record, got %+v", res.Record)
	}
}

func TestWaitFailsOnErrorStatus(t *testing.T) {
	fetcher := &stubFetcher{statuses: []retell.CallStatus{
		retell.CallStatusOngoing,
		retell.CallStatusError,
	}}
	w, _ := newTestWatcher(fetcher, 5*time.Second, 60*time.Second)

	res, err := w.Wait(context.Background(), "call_123")
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %s", res.Outcome)
	}
	if res.Attempts != 2 {
		t.Fatalf("expected 2 polls, got %d", res.Attempts)
	}
}

func TestWaitTimesOutWithoutExtraPoll(t *testing.T) {
	// T=10s, I=5s: polls at t=0 and t=5 only; the poll that would land
	// at t=10 never happens.
	fetcher := &stubFetcher{statuses: []retell.CallStatus{retell.CallStatusOngoing}}
	w, _ := newTestWatcher(fetcher, 5*time.Second, 10*time.Second)

	res, err := w.Wait(context.Background(), "call_123")
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Outcome != OutcomeTimedOut {
		t.Fatalf("expected timed_out, got %s", res.Outcome)
	}
	if res.Attempts != 2 || fetcher.calls != 2 {
		t.Fatalf("expected exactly 2 polls, got %d/%d", res.Attempts, fetcher.calls)
	}
	if res.Elapsed != 10*time.Second {
		t.Fatalf("expected 10s elapsed, got %s", res.Elapsed)
	}
	if res.Record == nil {
		t.Fatalf("expected last observed record on timeout")
	}
}

func TestWaitPollBoundNeverTerminal(t *testing.T) {
	fetcher := &stubFetcher{statuses: []retell.CallStatus{retell.CallStatusOngoing}}
	w, _ := newTestWatcher(fetcher, 6*time.Second, 60*time.Second)

	res, err := w.Wait(context.Background(), "call_123")
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	// ceil(60/6) = 10 polls at most.
	if res.Attempts != 10 {
		t.Fatalf("expected 10 polls, got %d", res.Attempts)
	}
	if res.Outcome != OutcomeTimedOut {
		t.Fatalf("expected timed_out, got %s", res.Outcome)
	}
}

func TestWaitStatusRequestFailureIsHard(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection reset")}
	w, _ := newTestWatcher(fetcher, 5*time.Second, 60*time.Second)

	_, err := w.Wait(context.Background(), "call_123")
	if err == nil {
		t.Fatalf("expected hard failure")
	}
	if !errorsx.HasReason(err, errorsx.ReasonCallStatus) {
		t.Fatalf("expected call_status reason, got %v", err)
	}
}

func TestWaitHonorsCancelledContext(t *testing.T) {
	fetcher := &stubFetcher{statuses: []retell.CallStatus{retell.CallStatusOngoing}}
	w, _ := newTestWatcher(fetcher, 5*time.Second, 60*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Wait(ctx, "call_123")
	if err == nil {
		t.Fatalf("expected context error")
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no polls after cancellation, got %d", fetcher.calls)
	}
}

func TestUnknownStatusStaysPending(t *testing.T) {
	fetcher := &stubFetcher{statuses: []retell.CallStatus{
		retell.CallStatus("transferring"),
		retell.CallStatusEnded,
	}}
	w, _ := newTestWatcher(fetcher, 5*time.Second, 60*time.Second)

	res, err := w.Wait(context.Background(), "call_123")
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Outcome != OutcomeCompleted || res.Attempts != 2 {
		t.Fatalf("expected completion on second poll, got %+v", res)
	}
}
