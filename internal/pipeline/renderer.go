package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/provscan/internal/model"
)

// RenderJSONLine writes the report as a single JSON line
func RenderJSONLine(w io.Writer, report model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteJSON writes v as indented JSON to path, creating parent directories
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	verdictStyles = map[model.Verdict]lipgloss.Style{
		model.VerdictGenuine:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		model.VerdictModified:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		model.VerdictGenerated: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		model.VerdictUnknown:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
	}

	severityMarks = map[model.SignalSeverity]string{
		model.SeverityInfo:     "·",
		model.SeverityWarning:  "!",
		model.SeverityCritical: "✗",
	}
)

// RenderSummary writes a human-readable summary of a result
func RenderSummary(w io.Writer, result *Result) {
	r := result.Report
	var b strings.Builder

	verdict := string(r.Verdict)
	if style, ok := verdictStyles[r.Verdict]; ok {
		verdict = style.Render(verdict)
	}

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("provscan"), r.FileName)
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("verdict:   "), verdict)
	fmt.Fprintf(&b, "  %s %d/100 (confidence %d/100)\n", labelStyle.Render("score:     "), r.Score, r.ScoreConfidence)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("claims:    "), r.ClaimsCount)
	for _, c := range r.Claims {
		gens := "-"
		if len(c.Generators) > 0 {
			gens = strings.Join(c.Generators, ", ")
		}
		fmt.Fprintf(&b, "    %s %s %s\n", mutedStyle.Render(c.ClaimID), c.Issuer, gens)
	}
	fmt.Fprintf(&b, "  %s %s (%d/%d certificates valid)\n", labelStyle.Render("trust:     "),
		r.Trust.State, r.Trust.ValidCertificateCount, r.Trust.CertificateCount)

	if len(result.Signals) > 0 {
		fmt.Fprintf(&b, "  %s\n", labelStyle.Render("signals:"))
		for _, s := range result.Signals {
			fmt.Fprintf(&b, "    %s %s\n", severityMarks[s.Severity], s.Description)
		}
	}

	if result.CacheHit {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render("(cached)"))
	}

	if result.Explanation != nil {
		fmt.Fprintf(&b, "\n%s\n%s\n", labelStyle.Render(fmt.Sprintf("explanation (%s/%s):", result.Explanation.Provider, result.Explanation.Model)),
			result.Explanation.Text)
	}

	fmt.Fprint(w, b.String())
}
