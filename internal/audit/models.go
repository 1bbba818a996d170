package audit

import "time"

// Action names for certificate lifecycle events.
const (
	ActionCertificateIssued  = "certificate.issued"
	ActionCertificateRevoked = "certificate.revoked"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}
