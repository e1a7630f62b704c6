package extract

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/provscan/internal/model"
)

// rawStore mirrors the manifest store JSON printed by c2patool
type rawStore struct {
	ActiveManifest    string                 `json:"active_manifest"`
	Manifests         map[string]Manifest    `json:"manifests"`
	ValidationState   *model.ValidationState `json:"validation_state"`
	ValidationResults *rawValidationResults  `json:"validation_results"`

	// Older tool versions only report failures, as a flat list
	ValidationStatus []ValidationStatus `json:"validation_status"`
}

type rawValidationResults struct {
	ActiveManifest *StatusCodes `json:"activeManifest"`
}

// DecodeManifestStore decodes a c2patool manifest store report
func DecodeManifestStore(r io.Reader) (*ManifestStore, error) {
	var raw rawStore
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode manifest store: %w", err)
	}

	if len(raw.Manifests) == 0 {
		return nil, ErrNoProvenance
	}

	store := &ManifestStore{
		ActiveManifest: raw.ActiveManifest,
		Manifests:      raw.Manifests,
	}

	var codes *StatusCodes
	switch {
	case raw.ValidationResults != nil:
		codes = raw.ValidationResults.ActiveManifest
	case len(raw.ValidationStatus) > 0:
		codes = &StatusCodes{Failure: raw.ValidationStatus}
	}

	if codes == nil && raw.ValidationState == nil {
		return store, nil
	}

	if codes != nil {
		applyBucketKinds(codes)
	}

	state := model.StateInvalid
	if raw.ValidationState != nil {
		state = *raw.ValidationState
	} else if len(codes.Failure) == 0 {
		state = model.StateValid
	}

	store.Validation = &ValidationResults{
		State:          state,
		ActiveManifest: codes,
	}

	return store, nil
}

// applyBucketKinds gives every status without an explicit kind the kind of its bucket
func applyBucketKinds(codes *StatusCodes) {
	fill := func(statuses []ValidationStatus, kind model.StatusKind) {
		for i := range statuses {
			if statuses[i].Kind == "" {
				statuses[i].Kind = kind
			}
		}
	}

	fill(codes.Success, model.KindSuccess)
	fill(codes.Informational, model.KindInformational)
	fill(codes.Failure, model.KindFailure)
}
