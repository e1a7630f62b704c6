package extract

import "github.com/ppiankov/provscan/internal/model"

// BuildTrust converts validation results into a trust record. The valid count
// is the size of the success bucket.
// Without status codes for the active manifest the record is empty and carries
// the fallback state.
func BuildTrust(results *ValidationResults, fallback model.ValidationState) model.TrustRecord {
	if results == nil || results.ActiveManifest == nil {
		return model.EmptyTrust(fallback)
	}

	codes := results.ActiveManifest
	certs := make([]model.CertificateRecord, 0, len(codes.Success)+len(codes.Informational)+len(codes.Failure))

	// Fixed bucket order keeps reports deterministic
	buckets := []struct {
		statuses []ValidationStatus
		kind     model.StatusKind
	}{
		{codes.Success, model.KindSuccess},
		{codes.Informational, model.KindInformational},
		{codes.Failure, model.KindFailure},
	}
	for _, bucket := range buckets {
		for _, status := range bucket.statuses {
			certs = append(certs, buildCertificate(status, bucket.kind))
		}
	}

	return model.TrustRecord{
		State:                 results.State,
		CertificateCount:      len(certs),
		ValidCertificateCount: len(codes.Success), // bucket membership, not the per-status kind
		Certificates:          certs,
	}
}

// buildCertificate converts one status code into a certificate record.
// A status without an explicit kind takes the kind of its bucket.
func buildCertificate(status ValidationStatus, bucketKind model.StatusKind) model.CertificateRecord {
	id := status.URL
	if id == "" {
		id = model.CertificateNotAvailable
	}

	explanation := status.Explanation
	if explanation == "" {
		explanation = model.CertificateNotAvailable
	}

	kind := status.Kind
	if kind == "" {
		kind = bucketKind
	}

	return model.CertificateRecord{
		ID:          id,
		Code:        status.Code,
		Explanation: explanation,
		Valid:       kind == model.KindSuccess,
	}
}
