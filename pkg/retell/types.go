package retell

import "encoding/json"

// CallStatus is the vendor-defined lifecycle status of a call.
type CallStatus string

const (
	CallStatusRegistered CallStatus = "registered"
	CallStatusOngoing    CallStatus = "ongoing"
	CallStatusEnded      CallStatus = "ended"
	CallStatusError      CallStatus = "error"
)

// Terminal reports whether no further status change is expected.
func (s CallStatus) Terminal() bool {
	return s == CallStatusEnded || s == CallStatusError
}

// Failed reports whether the call reached the vendor's error state.
func (s CallStatus) Failed() bool {
	return s == CallStatusError
}

// CallRecord is the vendor's stored record of one phone call. It is
// created by CreatePhoneCall, mutated only by the vendor platform, and
// read-only to this client. Raw holds the untouched response payload
// so artifacts can persist the full opaque document.
type CallRecord struct {
	CallID              string        `json:"call_id"`
	CallStatus          CallStatus    `json:"call_status"`
	FromNumber          string        `json:"from_number,omitempty"`
	ToNumber            string        `json:"to_number,omitempty"`
	RecordingURL        string        `json:"recording_url,omitempty"`
	PublicLogURL        string        `json:"public_log_url,omitempty"`
	Transcript          string        `json:"transcript,omitempty"`
	DisconnectionReason string        `json:"disconnection_reason,omitempty"`
	CallAnalysis        *CallAnalysis `json:"call_analysis,omitempty"`
	CallCost            *CallCost     `json:"call_cost,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type CallAnalysis struct {
	CallSummary    string `json:"call_summary,omitempty"`
	UserSentiment  string `json:"user_sentiment,omitempty"`
	CallSuccessful *bool  `json:"call_successful,omitempty"`
}

type CallCost struct {
	CombinedCost         float64 `json:"combined_cost,omitempty"`
	TotalDurationSeconds float64 `json:"total_duration_seconds,omitempty"`
}

// CreatePhoneCallRequest carries the outbound call parameters. Dynamic
// variables are substituted into the agent prompt by the vendor.
type CreatePhoneCallRequest struct {
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
}

// scrubRequest asks the vendor to drop sensitive fields from the
// stored record (transcript, recording, prompt variables).
type scrubRequest struct {
	OptOutSensitiveDataStorage bool `json:"opt_out_sensitive_data_storage"`
}
