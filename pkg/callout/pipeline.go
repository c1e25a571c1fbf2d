package callout

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/harunnryd/callout/pkg/artifacts"
	"github.com/harunnryd/callout/pkg/errorsx"
	"github.com/harunnryd/callout/pkg/metrics"
	"github.com/harunnryd/callout/pkg/poller"
	"github.com/harunnryd/callout/pkg/retell"
)

// CallAPI is the vendor surface the pipeline depends on.
type CallAPI interface {
	CreatePhoneCall(ctx context.Context, req retell.CreatePhoneCallRequest) (*retell.CallRecord, error)
	GetCall(ctx context.Context, callID string) (*retell.CallRecord, error)
	ScrubCall(ctx context.Context, callID string) error
}

// CallWatcher polls a call to a terminal outcome.
type CallWatcher interface {
	Wait(ctx context.Context, callID string) (poller.Result, error)
}

// ArtifactStore persists the per-call artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, rec *retell.CallRecord) (artifacts.Saved, error)
}

// Pipeline runs the call lifecycle end to end: initiate, watch,
// download artifacts, optionally scrub. Strictly sequential, one call
// per invocation, nothing retried.
type Pipeline struct {
	cfg     Config
	api     CallAPI
	watcher CallWatcher
	store   ArtifactStore
	obs     metrics.Observer
	log     *slog.Logger

	now func() time.Time
}

// NewPipeline assembles a pipeline from its collaborators.
func NewPipeline(cfg Config, api CallAPI, watcher CallWatcher, store ArtifactStore, obs metrics.Observer, log *slog.Logger) *Pipeline {
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, api: api, watcher: watcher, store: store, obs: obs, log: log, now: time.Now}
}

// Run executes the pipeline. A poll timeout surfaces as an error with
// reason poll_timeout after the best-effort record snapshot and scrub
// steps have run; a call that ends in the vendor's error state is a
// call_status failure.
func (p *Pipeline) Run(ctx context.Context) error {
	rec, err := p.initiate(ctx)
	if err != nil {
		return err
	}

	res, err := p.watch(ctx, rec.CallID)
	if err != nil {
		return err
	}
	// The outcome is known from here on; record it on every return
	// path so failed download/scrub steps still close the metrics
	// stream for the run.
	defer func() {
		p.obs.RecordEvent(metrics.OutcomeEvent(res.Outcome.String(), rec.CallID, res.Attempts, res.Elapsed))
	}()
	final := res.Record
	if res.Outcome == poller.OutcomeTimedOut {
		final = p.snapshot(ctx, rec.CallID, final)
	}

	p.logSummary(final)

	if err := p.download(ctx, final); err != nil {
		return err
	}
	if err := p.scrub(ctx, final); err != nil {
		return err
	}

	switch res.Outcome {
	case poller.OutcomeTimedOut:
		return errorsx.New(errorsx.ReasonPollTimeout, "call monitoring timed out")
	case poller.OutcomeFailed:
		return errorsx.New(errorsx.ReasonCallStatus, "call ended in error state")
	}
	return nil
}

func (p *Pipeline) initiate(ctx context.Context) (*retell.CallRecord, error) {
	start := p.now()
	rec, err := p.api.CreatePhoneCall(ctx, retell.CreatePhoneCallRequest{
		FromNumber:       p.cfg.FromPhoneNumber,
		ToNumber:         p.cfg.ToPhoneNumber,
		DynamicVariables: p.cfg.DynamicVariables(),
	})
	p.obs.RecordEvent(metrics.StepEvent("initiate", stepStatus(err), p.now().Sub(start)))
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonCallCreate)
		p.log.Error("create phone call failed", slog.String("error", err.Error()))
		return nil, err
	}
	p.log.Info("call initiated", slog.String("call_id", rec.CallID))
	return rec, nil
}

func (p *Pipeline) watch(ctx context.Context, callID string) (poller.Result, error) {
	start := p.now()
	res, err := p.watcher.Wait(ctx, callID)
	p.obs.RecordEvent(metrics.StepEvent("watch", stepStatus(err), p.now().Sub(start)))
	if err != nil {
		p.log.Error("status polling failed",
			slog.String("call_id", callID),
			slog.String("error", err.Error()),
		)
		return res, err
	}
	return res, nil
}

// snapshot refreshes the record once after a timeout so the persisted
// JSON reflects the vendor's latest state. Failure keeps the last
// polled record.
func (p *Pipeline) snapshot(ctx context.Context, callID string, last *retell.CallRecord) *retell.CallRecord {
	p.log.Warn("call monitoring timed out", slog.String("call_id", callID))
	rec, err := p.api.GetCall(ctx, callID)
	if err != nil {
		p.log.Error("final record fetch failed",
			slog.String("call_id", callID),
			slog.String("error", err.Error()),
		)
		return last
	}
	return rec
}

func (p *Pipeline) download(ctx context.Context, rec *retell.CallRecord) error {
	if rec == nil {
		return nil
	}
	start := p.now()
	saved, err := p.store.Save(ctx, rec)
	p.obs.RecordEvent(metrics.StepEvent("download", stepStatus(err), p.now().Sub(start)))
	if err != nil {
		if p.cfg.StrictArtifacts() {
			p.log.Error("artifact download aborted",
				slog.String("call_id", rec.CallID),
				slog.String("error", err.Error()),
			)
			return err
		}
		p.log.Warn("some artifacts failed to download",
			slog.String("call_id", rec.CallID),
			slog.String("error", err.Error()),
		)
	}
	p.log.Info("artifacts persisted",
		slog.String("call_id", rec.CallID),
		slog.String("recording", saved.Recording),
		slog.String("call_log", saved.CallLog),
		slog.String("record", saved.Record),
	)
	return nil
}

func (p *Pipeline) scrub(ctx context.Context, rec *retell.CallRecord) error {
	if !p.cfg.ScrubEnabled() {
		return nil
	}
	if rec == nil {
		return nil
	}
	start := p.now()
	err := p.api.ScrubCall(ctx, rec.CallID)
	p.obs.RecordEvent(metrics.StepEvent("scrub", stepStatus(err), p.now().Sub(start)))
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonCallScrub)
		p.log.Error("scrub request failed",
			slog.String("call_id", rec.CallID),
			slog.String("error", err.Error()),
		)
		return err
	}
	p.log.Info("sensitive call data scrubbed", slog.String("call_id", rec.CallID))
	return nil
}

// logSummary mirrors the call summary printed after monitoring:
// recording URL, duration, cost and the agent's call summary, with
// dashes for anything the vendor has not produced.
func (p *Pipeline) logSummary(rec *retell.CallRecord) {
	if rec == nil {
		return
	}
	recording := "-"
	if rec.RecordingURL != "" {
		recording = rec.RecordingURL
	}
	duration := "-"
	cost := "-"
	if rec.CallCost != nil {
		duration = formatFloat(rec.CallCost.TotalDurationSeconds)
		cost = formatFloat(rec.CallCost.CombinedCost)
	}
	summary := "-"
	if rec.CallAnalysis != nil && rec.CallAnalysis.CallSummary != "" {
		summary = rec.CallAnalysis.CallSummary
	}
	p.log.Info("call summary",
		slog.String("call_id", rec.CallID),
		slog.String("status", string(rec.CallStatus)),
		slog.String("recording_url", recording),
		slog.String("duration_seconds", duration),
		slog.String("combined_cost", cost),
		slog.String("call_summary", summary),
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stepStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
