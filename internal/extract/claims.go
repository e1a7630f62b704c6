package extract

import (
	"sort"

	"github.com/ppiankov/provscan/internal/model"
)

// BuildClaims converts a manifest map into one claim record per manifest.
// No manifest is dropped. Records are ordered by manifest label for display;
// the order carries no meaning for scoring.
func BuildClaims(manifests map[string]Manifest) []model.ClaimRecord {
	labels := make([]string, 0, len(manifests))
	for label := range manifests {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	claims := make([]model.ClaimRecord, 0, len(labels))
	for _, label := range labels {
		claims = append(claims, buildClaim(label, manifests[label]))
	}

	return claims
}

// buildClaim converts a single manifest into a claim record
func buildClaim(label string, manifest Manifest) model.ClaimRecord {
	generators := make([]string, 0, len(manifest.ClaimGeneratorInfo))
	for _, info := range manifest.ClaimGeneratorInfo {
		generators = append(generators, info.Name)
	}

	return model.NewClaimRecord(label, manifest.Issuer(), generators)
}
