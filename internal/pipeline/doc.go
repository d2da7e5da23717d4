// Package pipeline orchestrates the versioned documentation build: freeze the
// version plan, build book and API reference for each version against the
// shared workspace, assemble the output tree, and publish it once at the end.
//
// Versions are processed strictly sequentially; the workspace is a single
// shared mutable resource, so the checkout for version N+1 only happens after
// both builders for version N have finished. Master builds last.
//
// Failure semantics, in order of severity:
//   - enumeration failure degrades to a master-only plan (not an error)
//   - a workspace switch failure aborts the run; nothing is published
//   - a build failure is policy-controlled: fail-fast aborts, continue
//     records the failure and moves on to the next version
//   - an output-tree collision is an internal invariant violation and aborts
//   - a publish failure after retries is reported distinctly: artifacts
//     exist but were not uploaded
package pipeline
