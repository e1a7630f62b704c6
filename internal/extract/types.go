package extract

import (
	"context"
	"errors"

	"github.com/ppiankov/provscan/internal/model"
)

// ErrNoProvenance is returned when a file carries no provenance manifest store
var ErrNoProvenance = errors.New("no provenance data found")

// Extractor locates, decodes and validates the manifest store embedded in a file
type Extractor interface {
	Extract(ctx context.Context, path string) (*ManifestStore, error)
}

// ManifestStore is the extraction output for one file
type ManifestStore struct {
	ActiveManifest string              // Label of the active manifest
	Manifests      map[string]Manifest // Manifest label -> manifest content
	Validation     *ValidationResults  // Nil when the extractor reported no validation data
}

// Manifest is the subset of a manifest the scorer needs
type Manifest struct {
	ClaimGeneratorInfo []GeneratorInfo `json:"claim_generator_info"`
	SignatureInfo      *SignatureInfo  `json:"signature_info"`
}

// GeneratorInfo names one tool or agent that produced or edited the content
type GeneratorInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// SignatureInfo describes the manifest signer
type SignatureInfo struct {
	Issuer string `json:"issuer"`
	Alg    string `json:"alg,omitempty"`
	Time   string `json:"time,omitempty"`
}

// Issuer returns the signature issuer, or "" when the manifest is unsigned
func (m Manifest) Issuer() string {
	if m.SignatureInfo == nil {
		return ""
	}
	return m.SignatureInfo.Issuer
}

// ValidationResults is the validation outcome reported by the extractor
type ValidationResults struct {
	State          model.ValidationState
	ActiveManifest *StatusCodes // Nil when no status codes exist for the active manifest
}

// StatusCodes holds the validation status codes of one manifest, by bucket
type StatusCodes struct {
	Success       []ValidationStatus `json:"success"`
	Informational []ValidationStatus `json:"informational"`
	Failure       []ValidationStatus `json:"failure"`
}

// ValidationStatus is one status code from trust-chain validation
type ValidationStatus struct {
	Code        string           `json:"code"`
	URL         string           `json:"url,omitempty"`
	Explanation string           `json:"explanation,omitempty"`
	Kind        model.StatusKind `json:"kind,omitempty"`
}
