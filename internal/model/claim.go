package model

// ClaimIssuerNone is the issuer recorded when a manifest carries no signature issuer
const ClaimIssuerNone = "none"

// ClaimRecord represents one provenance claim found in a manifest store
type ClaimRecord struct {
	ClaimID    string   `json:"claim_id"`   // Manifest label assigned by the store
	Issuer     string   `json:"issuer"`     // Signing certificate issuer, "none" when absent
	Generators []string `json:"generators"` // Tools/agents that produced or edited the content
}

// NewClaimRecord creates a claim record, applying the documented defaults
func NewClaimRecord(claimID, issuer string, generators []string) ClaimRecord {
	if issuer == "" {
		issuer = ClaimIssuerNone
	}

	gens := make([]string, len(generators))
	copy(gens, generators)

	return ClaimRecord{
		ClaimID:    claimID,
		Issuer:     issuer,
		Generators: gens,
	}
}
