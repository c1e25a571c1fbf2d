package metrics

import "time"

// MetricsEvent is a single measurement emitted by the call pipeline.
type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

// StepEvent records the duration and outcome of one pipeline step.
func StepEvent(step, status string, elapsed time.Duration) MetricsEvent {
	return MetricsEvent{
		Name:  "pipeline.step",
		Time:  time.Now(),
		Value: elapsed.Seconds(),
		Tags:  map[string]string{"step": step, "status": status},
	}
}

// OutcomeEvent records the final pipeline outcome for one call.
func OutcomeEvent(outcome, callID string, attempts int, elapsed time.Duration) MetricsEvent {
	return MetricsEvent{
		Name:  "pipeline.outcome",
		Time:  time.Now(),
		Value: elapsed.Seconds(),
		Tags:  map[string]string{"outcome": outcome, "call_id": callID},
		Fields: map[string]any{
			"poll_attempts": attempts,
		},
	}
}
