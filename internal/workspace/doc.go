// Package workspace manages the single shared working copy the pipeline
// builds from, plus the per-version cache directories that keep build
// intermediates isolated across versions.
//
// The working copy is persistent (the documented project's checkout); only
// its checked-out content changes between versions. Cache directories live
// under an ephemeral timestamped root and are removed on Cleanup.
package workspace
