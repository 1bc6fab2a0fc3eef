package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/gowebpki/jcs"

	"github.com/privsig/gpcscan/internal/model"
)

// Digest canonicalizes JSON per RFC 8785 and returns its SHA-256 hex
// digest. Canonicalization makes the digest independent of key order and
// whitespace, so any faithful re-serialization of the report verifies.
func Digest(data []byte) (string, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize report: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// StampIntegrity computes the digest over the report body, excluding the
// digest field itself, and writes it into the metadata. Stamping twice
// yields the same digest.
func StampIntegrity(report *model.EvidenceReport) error {
	report.Metadata.IntegrityDigest = ""
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("serialize report for digest: %w", err)
	}
	digest, err := Digest(body)
	if err != nil {
		return err
	}
	report.Metadata.IntegrityDigest = digest
	return nil
}

// VerifyIntegrity recomputes the digest of a stamped report and compares
// it with the stored value.
func VerifyIntegrity(report *model.EvidenceReport) (bool, error) {
	stored := report.Metadata.IntegrityDigest
	if stored == "" {
		return false, nil
	}
	defer func() { report.Metadata.IntegrityDigest = stored }()

	report.Metadata.IntegrityDigest = ""
	body, err := json.Marshal(report)
	if err != nil {
		return false, fmt.Errorf("serialize report for digest: %w", err)
	}
	digest, err := Digest(body)
	if err != nil {
		return false, err
	}
	return digest == stored, nil
}
