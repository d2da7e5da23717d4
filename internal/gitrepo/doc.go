// Package gitrepo wraps the Git operations the pipeline needs against the
// documented project's local working copy:
//
//   - Tag enumeration for the version plan
//   - Forced tag checkout with untracked-file cleanup between versions
//   - Default-branch restoration for the unreleased build
//
// A checkout failure leaves the working copy in an indeterminate state, so all
// checkout errors are surfaced as *CheckoutError and treated as fatal upstream.
package gitrepo
