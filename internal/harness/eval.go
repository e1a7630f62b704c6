package harness

import (
	"fmt"
	"io"

	"github.com/ppiankov/provscan/internal/pipeline"
)

// EvalResult is the outcome for one file
type EvalResult struct {
	ExpectedResult int    `json:"expected_result"`
	ActualResult   int    `json:"actual_result"`
	FileName       string `json:"file_name"`
}

func (r EvalResult) String() string {
	return fmt.Sprintf("%d\t%d\t%s", r.ExpectedResult, r.ActualResult, r.FileName)
}

// EvalReport aggregates a batch run
type EvalReport struct {
	FilesAnalyzed  int          `json:"files_analyzed"`
	ExpectedResult int          `json:"expected_result"`
	Hits           int          `json:"hits"`
	Misses         int          `json:"misses"`
	Fails          int          `json:"fails"`
	Accuracy       float64      `json:"accuracy"`
	Results        []EvalResult `json:"results"`
}

// NewEvalReport aggregates results. Fails count against accuracy.
func NewEvalReport(results []EvalResult) *EvalReport {
	if results == nil {
		results = []EvalResult{}
	}

	report := &EvalReport{
		FilesAnalyzed: len(results),
		Results:       results,
	}
	if len(results) == 0 {
		return report
	}

	report.ExpectedResult = results[0].ExpectedResult
	for _, r := range results {
		switch {
		case r.ActualResult == LabelFail:
			report.Fails++
		case r.ActualResult == r.ExpectedResult:
			report.Hits++
		default:
			report.Misses++
		}
	}
	report.Accuracy = float64(report.Hits) / float64(report.FilesAnalyzed)

	return report
}

// PrintSummary writes the per-file table and aggregate lines
func PrintSummary(w io.Writer, report *EvalReport) {
	fmt.Fprintln(w, "expect\tactual\tfile")
	for _, r := range report.Results {
		fmt.Fprintln(w, r.String())
	}
	fmt.Fprintf(w, "files analyzed:\t%d\n", report.FilesAnalyzed)
	fmt.Fprintf(w, "expected:\t%d\n", report.ExpectedResult)
	fmt.Fprintf(w, "hits:\t\t%d\n", report.Hits)
	fmt.Fprintf(w, "misses:\t\t%d\n", report.Misses)
	fmt.Fprintf(w, "fails:\t\t%d\n", report.Fails)
	fmt.Fprintf(w, "accuracy:\t%g\n", report.Accuracy)
}

// WriteReport writes the report as JSON
func WriteReport(path string, report *EvalReport) error {
	return pipeline.WriteJSON(path, report)
}
