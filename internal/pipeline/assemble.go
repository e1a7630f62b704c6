package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/ppiankov/provscan/internal/model"
)

const fileNameNotAvailable = "n/a"

// FileIdentity names the analyzed file
type FileIdentity struct {
	Name string
	Type string // substring after the last '.', or the whole name
}

// FileIdentityFromPath derives the file identity from a path
func FileIdentityFromPath(path string) FileIdentity {
	name := filepath.Base(path)
	if path == "" || name == "." || name == string(filepath.Separator) {
		name = fileNameNotAvailable
	}

	fileType := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		fileType = name[i+1:]
	}

	return FileIdentity{Name: name, Type: fileType}
}

// AssembleReport composes a report. Slices are copied so the report never
// aliases caller memory.
func AssembleReport(file FileIdentity, claims []model.ClaimRecord, trust model.TrustRecord, score model.Score, verdict model.Verdict) model.Report {
	claimsCopy := make([]model.ClaimRecord, len(claims))
	for i, c := range claims {
		claimsCopy[i] = model.NewClaimRecord(c.ClaimID, c.Issuer, c.Generators)
	}

	trustCopy := trust
	trustCopy.Certificates = make([]model.CertificateRecord, len(trust.Certificates))
	copy(trustCopy.Certificates, trust.Certificates)

	return model.Report{
		FileName:        file.Name,
		FileType:        file.Type,
		Verdict:         verdict,
		Score:           score.Score,
		ScoreConfidence: score.Confidence,
		ClaimsFound:     len(claims) != 0,
		ClaimsCount:     len(claims),
		Claims:          claimsCopy,
		Trust:           trustCopy,
	}
}
