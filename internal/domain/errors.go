package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport means the call to the geocoding service could not complete.
	ErrTransport = errors.New("transport failure")
	// ErrParse means the service response could not be read as coordinates.
	ErrParse = errors.New("parse failure")
	// ErrEmptyResult means the service answered but matched nothing.
	ErrEmptyResult = errors.New("empty result")
)

// FailurePolicy selects what happens when an address cannot be resolved.
type FailurePolicy int

const (
	// ReturnEmpty absorbs failures and yields an empty result.
	ReturnEmpty FailurePolicy = iota
	// ReturnError surfaces failures, including empty results, as errors.
	ReturnError
)

func (p FailurePolicy) String() string {
	switch p {
	case ReturnEmpty:
		return "empty"
	case ReturnError:
		return "error"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy maps "empty" or "error" (case-insensitive) to a policy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "empty", "":
		return ReturnEmpty, nil
	case "error":
		return ReturnError, nil
	default:
		return ReturnEmpty, fmt.Errorf("unknown failure policy %q", s)
	}
}

// ResolveError is returned under ReturnError when an address cannot be
// resolved. It matches ErrParse and the original cause under errors.Is.
type ResolveError struct {
	Address string
	Err     error
}

func (e *ResolveError) Error() string {
	if errors.Is(e.Err, ErrParse) {
		return fmt.Sprintf("geocode %q: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("geocode %q: %v: %v", e.Address, ErrParse, e.Err)
}

func (e *ResolveError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}
