package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/provscan/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Explain describes a finished report in plain language
	Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error)
}

// ExplainRequest contains the input for an explanation
type ExplainRequest struct {
	// Report is the finished analysis report. The explanation never changes it.
	Report model.Report

	// Signals are the scoring contributions behind the report's numbers
	Signals []model.Signal

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExplainResponse contains the LLM's output
type ExplainResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 400,
	}
}

const systemPrompt = "You explain media provenance reports. You describe the evidence that produced a verdict; you never issue your own verdict."

// BuildPrompt constructs the default explanation prompt
func BuildPrompt(report model.Report, signals []model.Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Explain this provenance report for a non-expert in 3-4 sentences.

RULES:
1. The verdict is final. Do not dispute, soften or upgrade it.
2. Only use the facts below. Do not guess who made the file.
3. If evidence is missing, say so explicitly.

Report:
- File: %s (%s)
- Verdict: %s
- Suspicion score: %d/100
- Confidence: %d/100
- Claims: %d
- Trust state: %s (%d of %d certificates valid)
`, report.FileName, report.FileType, report.Verdict, report.Score, report.ScoreConfidence,
		report.ClaimsCount, report.Trust.State, report.Trust.ValidCertificateCount, report.Trust.CertificateCount)

	gens := generatorNames(report.Claims)
	if len(gens) > 0 {
		fmt.Fprintf(&b, "- Generators named in claims: %s\n", strings.Join(gens, ", "))
	}

	if len(signals) > 0 {
		b.WriteString("\nScoring signals:\n")
		for i, signal := range signals {
			if i >= 10 {
				fmt.Fprintf(&b, "... and %d more\n", len(signals)-10)
				break
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", signal.Type, signal.Severity, signal.Description)
		}
	}

	return b.String()
}

// generatorNames lists distinct generator names across claims, in claim order
func generatorNames(claims []model.ClaimRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, claim := range claims {
		for _, gen := range claim.Generators {
			if !seen[gen] {
				seen[gen] = true
				names = append(names, gen)
			}
		}
	}
	return names
}
