package config

import "strings"

// FailurePolicy enumerates how a per-version build failure propagates.
type FailurePolicy string

const (
	// FailureFailFast aborts the whole run on the first build failure.
	FailureFailFast FailurePolicy = "failfast"
	// FailureContinue records the failure, keeps building the remaining
	// versions, and reports all failures at the end.
	FailureContinue FailurePolicy = "continue"
)

// NormalizeFailurePolicy converts arbitrary user input (case-insensitive) into a typed policy, returning empty string for unknown.
func NormalizeFailurePolicy(raw string) FailurePolicy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(FailureFailFast):
		return FailureFailFast
	case string(FailureContinue):
		return FailureContinue
	default:
		return ""
	}
}
