package score

import (
	"testing"

	"github.com/ppiankov/provscan/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score      int
		confidence int
		want       model.Verdict
	}{
		{0, 0, model.VerdictUnknown},
		{0, 41, model.VerdictGenuine},
		{0, 1, model.VerdictModified},
		{1, 1, model.VerdictModified},
		{20, 41, model.VerdictGenuine},
		{20, 40, model.VerdictModified},
		{20, 100, model.VerdictGenuine},
		{21, 100, model.VerdictModified},
		{50, 0, model.VerdictModified},
		{80, 0, model.VerdictModified},
		{80, 100, model.VerdictModified},
		{81, 0, model.VerdictGenerated},
		{81, 100, model.VerdictGenerated},
		{100, 51, model.VerdictGenerated},
	}

	for _, tt := range tests {
		if got := Classify(tt.score, tt.confidence); got != tt.want {
			t.Errorf("Classify(%d, %d) = %s, want %s", tt.score, tt.confidence, got, tt.want)
		}
	}
}
