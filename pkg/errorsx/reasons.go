package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonConfig ReasonCode = "config"

	ReasonCallCreate ReasonCode = "call_create"
	ReasonCallStatus ReasonCode = "call_status"
	ReasonCallScrub  ReasonCode = "call_scrub"

	ReasonArtifactDownload ReasonCode = "artifact_download"
	ReasonPollTimeout      ReasonCode = "poll_timeout"
)
