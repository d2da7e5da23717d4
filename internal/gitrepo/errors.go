package gitrepo

import "fmt"

// CheckoutError indicates a failed checkout or cleanup. After one occurs the
// working copy's content cannot be trusted for any subsequent build.
type CheckoutError struct {
	Ref string
	Err error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout %s failed: %v", e.Ref, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }
