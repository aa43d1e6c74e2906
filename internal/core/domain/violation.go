package domain

// PolicyViolation is a business-rule rejection produced by a validator. It is
// a first-class result value, not an error: callers must be able to tell
// "evaluated and rejected" apart from "failed to evaluate".
type PolicyViolation struct {
	Category PolicyCategory `json:"policy_type"`
	Period   *Period        `json:"period,omitempty"` // nil for per-payment cap and count rejections
	Message  string         `json:"message"`
}
