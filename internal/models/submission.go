package models

// Phase is the lifecycle phase of a pending submission.
type Phase int

const (
	PhaseComposing Phase = iota
	PhaseSubmitted
	PhaseConfirmed
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseComposing:
		return "composing"
	case PhaseSubmitted:
		return "submitted"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PendingSubmission is the in-flight wave as seen by a view.
type PendingSubmission struct {
	Message string `json:"message"`
	Phase   Phase  `json:"phase"`
	TxHash  string `json:"tx_hash,omitempty"`
	Err     string `json:"error,omitempty"`
}
