package extract

import (
	"testing"

	"github.com/ppiankov/provscan/internal/model"
)

func TestBuildTrust_NoResults(t *testing.T) {
	trust := BuildTrust(nil, model.StateInvalid)

	if trust.State != model.StateInvalid {
		t.Errorf("Expected fallback state Invalid, got %s", trust.State)
	}
	if trust.CertificateCount != 0 || trust.ValidCertificateCount != 0 {
		t.Errorf("Expected zero counts, got %d/%d", trust.CertificateCount, trust.ValidCertificateCount)
	}
	if trust.Certificates == nil {
		t.Error("Expected non-nil certificate list")
	}
}

func TestBuildTrust_NoActiveManifestCodes(t *testing.T) {
	trust := BuildTrust(&ValidationResults{State: model.StateTrusted}, model.StateValid)

	if trust.State != model.StateValid {
		t.Errorf("Expected fallback state Valid, got %s", trust.State)
	}
	if trust.CertificateCount != 0 {
		t.Errorf("Expected 0 certificates, got %d", trust.CertificateCount)
	}
}

func TestBuildTrust_BucketsAndCounts(t *testing.T) {
	results := &ValidationResults{
		State: model.StateTrusted,
		ActiveManifest: &StatusCodes{
			Success: []ValidationStatus{
				{Code: "claimSignature.validated", URL: "self#jumbf=c2pa.signature", Explanation: "claim signature valid"},
				{Code: "signingCredential.trusted"},
			},
			Informational: []ValidationStatus{
				{Code: "timeStamp.untrusted"},
			},
			Failure: []ValidationStatus{
				{Code: "assertion.hashedURI.mismatch", Explanation: "hash mismatch"},
			},
		},
	}

	trust := BuildTrust(results, model.StateInvalid)

	if trust.State != model.StateTrusted {
		t.Errorf("Expected state Trusted, got %s", trust.State)
	}
	if trust.CertificateCount != 4 {
		t.Errorf("Expected 4 certificates, got %d", trust.CertificateCount)
	}
	if trust.ValidCertificateCount != 2 {
		t.Errorf("Expected 2 valid certificates, got %d", trust.ValidCertificateCount)
	}

	wantCodes := []string{"claimSignature.validated", "signingCredential.trusted", "timeStamp.untrusted", "assertion.hashedURI.mismatch"}
	wantValid := []bool{true, true, false, false}
	for i, cert := range trust.Certificates {
		if cert.Code != wantCodes[i] {
			t.Errorf("Certificate %d: expected code %q, got %q", i, wantCodes[i], cert.Code)
		}
		if cert.Valid != wantValid[i] {
			t.Errorf("Certificate %d: expected valid=%v, got %v", i, wantValid[i], cert.Valid)
		}
	}

	if trust.Certificates[0].ID != "self#jumbf=c2pa.signature" {
		t.Errorf("Expected URL as id, got %q", trust.Certificates[0].ID)
	}
	if trust.Certificates[1].ID != model.CertificateNotAvailable {
		t.Errorf("Expected %q id when URL missing, got %q", model.CertificateNotAvailable, trust.Certificates[1].ID)
	}
	if trust.Certificates[1].Explanation != model.CertificateNotAvailable {
		t.Errorf("Expected %q explanation when missing, got %q", model.CertificateNotAvailable, trust.Certificates[1].Explanation)
	}
}

func TestBuildTrust_ExplicitKindWins(t *testing.T) {
	results := &ValidationResults{
		State: model.StateValid,
		ActiveManifest: &StatusCodes{
			Success: []ValidationStatus{{Code: "odd", Kind: model.KindFailure}},
		},
	}

	trust := BuildTrust(results, model.StateInvalid)
	if trust.Certificates[0].Valid {
		t.Error("Expected explicit failure kind to mark certificate invalid")
	}
	if trust.ValidCertificateCount != 1 {
		t.Errorf("Expected the success bucket to set the valid count, got %d", trust.ValidCertificateCount)
	}
}

func TestBuildTrust_ValidCountIgnoresKind(t *testing.T) {
	results := &ValidationResults{
		State: model.StateValid,
		ActiveManifest: &StatusCodes{
			Informational: []ValidationStatus{{Code: "timeStamp.validated", Kind: model.KindSuccess}},
		},
	}

	trust := BuildTrust(results, model.StateInvalid)
	if trust.CertificateCount != 1 {
		t.Fatalf("Expected 1 certificate, got %d", trust.CertificateCount)
	}
	if !trust.Certificates[0].Valid {
		t.Error("Expected explicit success kind to mark certificate valid")
	}
	if trust.ValidCertificateCount != 0 {
		t.Errorf("Expected informational codes not to count as valid, got %d", trust.ValidCertificateCount)
	}
}
