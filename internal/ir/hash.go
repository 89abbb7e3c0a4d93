package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCorpus  = "edgy/corpus/v1"
	DomainScreens = "edgy/screens/v1"
	DomainReport  = "edgy/report/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CorpusHash identifies a compiled rule corpus. Runs recorded against the
// same hash were analysed with identical rules, whatever files they came from.
// Source paths are excluded so moving the corpus does not change its identity.
func CorpusHash(rules []Rule, flows []FlowRule) (string, error) {
	strippedRules := make([]Rule, len(rules))
	for i, r := range rules {
		r.Source = ""
		strippedRules[i] = r
	}
	strippedFlows := make([]FlowRule, len(flows))
	for i, f := range flows {
		f.Source = ""
		strippedFlows[i] = f
	}

	canonical, err := MarshalCanonical(map[string]any{
		"rules": strippedRules,
		"flows": strippedFlows,
	})
	if err != nil {
		return "", fmt.Errorf("CorpusHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCorpus, canonical), nil
}

// ScreensHash identifies an extracted screen set.
func ScreensHash(screens []Screen) (string, error) {
	canonical, err := MarshalCanonical(screens)
	if err != nil {
		return "", fmt.Errorf("ScreensHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainScreens, canonical), nil
}

// FindingsHash fingerprints the output of a run so identical results can be
// recognised across runs and machines.
func FindingsHash(findings []Finding, missing []MissingScreenFinding) (string, error) {
	if findings == nil {
		findings = []Finding{}
	}
	if missing == nil {
		missing = []MissingScreenFinding{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"findings": findings,
		"missing":  missing,
	})
	if err != nil {
		return "", fmt.Errorf("FindingsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainReport, canonical), nil
}

// MustCorpusHash is like CorpusHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCorpusHash(rules []Rule, flows []FlowRule) string {
	h, err := CorpusHash(rules, flows)
	if err != nil {
		panic(err)
	}
	return h
}
