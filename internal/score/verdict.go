package score

import "github.com/ppiankov/provscan/internal/model"

// Verdict thresholds. Boundaries are exact.
const (
	genuineScoreBelow      = 21
	genuineConfidenceAbove = 40
	generatedScoreFrom     = 81
)

// Classify maps a score and confidence to a verdict
func Classify(score, confidence int) model.Verdict {
	switch {
	case score == 0 && confidence == 0:
		return model.VerdictUnknown
	case score < genuineScoreBelow:
		// Low suspicion with thin evidence is never asserted genuine
		if confidence > genuineConfidenceAbove {
			return model.VerdictGenuine
		}
		return model.VerdictModified
	case score < generatedScoreFrom:
		return model.VerdictModified
	default:
		return model.VerdictGenerated
	}
}
