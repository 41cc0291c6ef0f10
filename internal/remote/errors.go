package remote

import "fmt"

// LocatorError is returned for strings that look like a remote locator but
// are malformed.
type LocatorError struct {
	Locator string `json:"locator"`
	Reason  string `json:"reason"`
}

// Error returns the error message for the LocatorError
func (e *LocatorError) Error() string {
	return fmt.Sprintf("invalid remote locator %q: %s", e.Locator, e.Reason)
}

// NewLocatorError creates a new LocatorError
func NewLocatorError(locator, reason string) *LocatorError {
	return &LocatorError{Locator: locator, Reason: reason}
}

// Interface guard for LocatorError
var _ error = &LocatorError{}

// FetchError is returned when git cannot materialize a locator. Partial
// clones are left in place so a later run can resume.
type FetchError struct {
	Locator string `json:"locator"`
	Step    string `json:"step"`
	Err     error  `json:"error"`
}

// Error returns the error message for the FetchError
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s (%s): %v", e.Locator, e.Step, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(locator, step string, err error) *FetchError {
	return &FetchError{Locator: locator, Step: step, Err: err}
}

// Interface guard for FetchError
var _ error = &FetchError{}
