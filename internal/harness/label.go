package harness

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Result labels. Fail marks a file whose analysis could not be obtained.
const (
	LabelFail      = 0
	LabelGenuine   = 1
	LabelGenerated = 2
)

// ParseExpected converts a command-line label into an expected result
func ParseExpected(s string) (int, error) {
	switch s {
	case "1", "real", "genuine":
		return LabelGenuine, nil
	case "2", "fake", "generated":
		return LabelGenerated, nil
	}
	return 0, fmt.Errorf("invalid expected label %q (want 1|real|genuine or 2|fake|generated)", s)
}

// VerdictLabel maps an upload response body to a result label.
// Only an "Authentic" verdict counts as genuine; any other verdict is generated.
func VerdictLabel(body []byte) int {
	if strings.Contains(string(body), "Analysis Failed") {
		return LabelFail
	}
	if !gjson.ValidBytes(body) {
		return LabelFail
	}

	verdict := gjson.GetBytes(body, "analysis.verdict").String()
	if strings.Contains(verdict, "Authentic") {
		return LabelGenuine
	}
	return LabelGenerated
}
