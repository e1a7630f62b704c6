package score

import (
	"fmt"

	"github.com/ppiankov/provscan/internal/model"
	"github.com/ppiankov/provscan/internal/policy"
)

// Score and confidence contributions
const (
	claimPresenceBase = 1

	suspiciousScore      = 100
	suspiciousConfidence = 50

	manipulationScore      = 50
	manipulationConfidence = 50

	trustBase              = 20
	trustValidConfidence   = 40
	trustTrustedConfidence = 60
	trustInvalidScore      = 60
	trustInvalidConfidence = 20

	maxAxis = 100
)

// Scorer calculates the suspicion score and confidence and generates signals
type Scorer struct {
	policy *policy.GeneratorPolicy
}

// NewScorer creates a new scorer. A nil policy uses the default generator lists.
func NewScorer(p *policy.GeneratorPolicy) *Scorer {
	if p == nil {
		p = policy.NewGeneratorPolicy(nil)
	}
	return &Scorer{policy: p}
}

// Calculate scores claims and trust. Both axes accumulate unbounded and are
// clamped to [0,100] once at the end.
func (s *Scorer) Calculate(claims []model.ClaimRecord, trust model.TrustRecord) model.Score {
	var signals []model.Signal
	score, confidence := 0, 0

	// 1. Claim presence
	if len(claims) > 0 {
		score, confidence = claimPresenceBase, claimPresenceBase
		signals = append(signals, model.Signal{
			Type:        model.SignalClaimPresence,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("%d provenance claim(s) found", len(claims)),
			Data: map[string]interface{}{
				"claims": len(claims),
			},
		})
	}

	// 2. Generator attribution
	for _, claim := range claims {
		for _, gen := range claim.Generators {
			ds, dc, signal, ok := s.attributeGenerator(claim.ClaimID, gen)
			if !ok {
				continue
			}
			score += ds
			confidence += dc
			signals = append(signals, signal)
		}
	}

	// 3. Trust weighting
	if trust.CertificateCount != 0 {
		ds, dc, signal := s.weighTrust(trust)
		score += ds
		confidence += dc
		signals = append(signals, signal)
	}

	return model.Score{
		Score:      clamp(score),
		Confidence: clamp(confidence),
		Signals:    signals,
	}
}

// attributeGenerator returns the contribution of one generator name
func (s *Scorer) attributeGenerator(claimID, name string) (int, int, model.Signal, bool) {
	switch s.policy.Classify(name) {
	case policy.GeneratorSuspicious:
		return suspiciousScore, suspiciousConfidence, model.Signal{
			Type:        model.SignalSuspiciousGenerator,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("Generative tool %q named in claim", name),
			Data: map[string]interface{}{
				"claim_id":   claimID,
				"generator":  name,
				"score":      suspiciousScore,
				"confidence": suspiciousConfidence,
			},
		}, true

	case policy.GeneratorManipulation:
		return manipulationScore, manipulationConfidence, model.Signal{
			Type:        model.SignalManipulationGenerator,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Editing tool %q named in claim", name),
			Data: map[string]interface{}{
				"claim_id":   claimID,
				"generator":  name,
				"score":      manipulationScore,
				"confidence": manipulationConfidence,
			},
		}, true
	}

	return 0, 0, model.Signal{}, false
}

// weighTrust returns the contribution of the trust chain
func (s *Scorer) weighTrust(trust model.TrustRecord) (int, int, model.Signal) {
	score, confidence := trustBase, trustBase
	severity := model.SeverityInfo

	switch trust.State {
	case model.StateValid:
		confidence += trustValidConfidence
	case model.StateTrusted:
		confidence += trustTrustedConfidence
	default:
		score += trustInvalidScore
		confidence += trustInvalidConfidence
		severity = model.SeverityCritical
	}

	return score, confidence, model.Signal{
		Type:        model.SignalTrustChain,
		Severity:    severity,
		Description: fmt.Sprintf("Trust chain %s (%d/%d certificates valid)", trust.State, trust.ValidCertificateCount, trust.CertificateCount),
		Data: map[string]interface{}{
			"state":        string(trust.State),
			"certificates": trust.CertificateCount,
			"valid":        trust.ValidCertificateCount,
			"score":        score,
			"confidence":   confidence,
		},
	}
}

func clamp(v int) int {
	if v > maxAxis {
		return maxAxis
	}
	if v < 0 {
		return 0
	}
	return v
}
