package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/provscan/internal/model"
)

// Summarizer produces optional explanations of finished reports
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer. An empty provider yields a disabled summarizer.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		provider: provider,
		config:   config,
	}, nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(provider Provider, config Config) *Summarizer {
	return &Summarizer{
		provider: provider,
		config:   config,
	}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// Explain describes a report. It returns nil without error when disabled.
// The report is passed by value and is never modified.
func (s *Summarizer) Explain(ctx context.Context, report model.Report, signals []model.Signal) (*model.Explanation, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	resp, err := s.provider.Explain(ctx, ExplainRequest{
		Report:    report,
		Signals:   signals,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	return &model.Explanation{
		Provider:   s.provider.Name(),
		Model:      resp.Model,
		Text:       resp.Text,
		TokensUsed: resp.TokensUsed,
	}, nil
}
