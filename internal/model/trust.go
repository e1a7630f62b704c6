package model

import "strings"

// ValidationState is the overall outcome of validating the active manifest
type ValidationState string

const (
	StateValid   ValidationState = "Valid"   // Signature and structure verified
	StateTrusted ValidationState = "Trusted" // Valid and signed by a trusted certificate chain
	StateInvalid ValidationState = "Invalid" // Validation failed or no validation data
)

// ParseValidationState converts a state name into a ValidationState.
// Anything unrecognized is treated as Invalid: absence of trust is never "unknown".
func ParseValidationState(s string) ValidationState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "valid":
		return StateValid
	case "trusted":
		return StateTrusted
	default:
		return StateInvalid
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *ValidationState) UnmarshalText(text []byte) error {
	*s = ParseValidationState(string(text))
	return nil
}

// StatusKind classifies a single validation status code
type StatusKind string

const (
	KindSuccess       StatusKind = "success"
	KindInformational StatusKind = "informational"
	KindFailure       StatusKind = "failure"
)

// CertificateNotAvailable fills certificate fields the validator did not provide
const CertificateNotAvailable = "n/a"

// CertificateRecord is one validation status code attached to the active manifest
type CertificateRecord struct {
	ID          string `json:"id"`          // Source URL/locator of the status, "n/a" if absent
	Code        string `json:"code"`        // Machine-readable status code
	Explanation string `json:"explanation"` // "n/a" if absent
	Valid       bool   `json:"valid"`       // True iff the status kind is success
}

// TrustRecord summarizes the validation outcome for the active manifest
type TrustRecord struct {
	State                 ValidationState     `json:"state"`
	CertificateCount      int                 `json:"certificate_count"`
	ValidCertificateCount int                 `json:"valid_certificate_count"`
	Certificates          []CertificateRecord `json:"certificates"`
}

// EmptyTrust returns the trust record used when no validation data exists
func EmptyTrust(state ValidationState) TrustRecord {
	return TrustRecord{
		State:        state,
		Certificates: []CertificateRecord{},
	}
}
