package model

// Report is the complete analysis result for one media file.
// It owns all nested records and is never mutated once assembled.
type Report struct {
	FileName        string        `json:"file_name"`
	FileType        string        `json:"file_type"`
	Verdict         Verdict       `json:"verdict"`
	Score           int           `json:"score"`            // Suspicion level (0-100)
	ScoreConfidence int           `json:"score_confidence"` // Evidence backing the suspicion (0-100)
	ClaimsFound     bool          `json:"claims_found"`
	ClaimsCount     int           `json:"claims_count"`
	Claims          []ClaimRecord `json:"claims"`
	Trust           TrustRecord   `json:"trust"`
}

// Verdict is the four-way classification of a file
type Verdict string

const (
	VerdictGenerated Verdict = "Generated" // Produced by a generative tool
	VerdictModified  Verdict = "Modified"  // Edited, or evidence too thin to call genuine
	VerdictGenuine   Verdict = "Genuine"   // Low suspicion backed by strong evidence
	VerdictUnknown   Verdict = "Unknown"   // No evidence at all
)

// Score is the scorer output: the two bounded axes plus the signals that produced them
type Score struct {
	Score      int      `json:"score"`
	Confidence int      `json:"confidence"`
	Signals    []Signal `json:"signals"`
}

// Signal represents one transparent scoring contribution
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a scoring contribution
type SignalType string

const (
	SignalClaimPresence         SignalType = "claim_presence"         // At least one claim exists
	SignalSuspiciousGenerator   SignalType = "suspicious_generator"   // Generative-AI tool named
	SignalManipulationGenerator SignalType = "manipulation_generator" // Editing tool named
	SignalTrustChain            SignalType = "trust_chain"            // Validation status codes present
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Explanation contains an optional natural-language explanation of a report.
// It is produced after scoring and never affects the verdict.
type Explanation struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}
