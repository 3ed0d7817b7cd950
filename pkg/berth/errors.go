package berth

import "fmt"

// ValidationError reports a malformed fixture declaration: a resource field
// that is not a shared handle, an absent resource value at first access, or a
// property-source method with the wrong shape. Validation errors are fatal
// and surface unchanged to the caller performing fixture setup.
type ValidationError struct {
	// Member identifies the offending field or method, e.g.
	// "github.com/acme/app.Fixture.db".
	Member string

	// Reason describes what the declaration got wrong.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("berth: invalid declaration member %q: %s", e.Member, e.Reason)
}

// ResolutionError reports that generated code could not resolve a type or
// member by name in the executing environment. It indicates drift between the
// environment the code was generated in and the one running it, and is raised
// at the generated unit's load time rather than at generation time.
type ResolutionError struct {
	// Kind is what failed to resolve: "declaration", "field" or "method".
	Kind string

	// Name is the fully-qualified name that could not be resolved.
	Name string

	// Hint optionally explains how to fix the drift.
	Hint string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("berth: cannot resolve %s %q", e.Kind, e.Name)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// MarkerError reports an unparseable berth struct-tag annotation.
type MarkerError struct {
	// Tag is the raw tag value that failed to parse.
	Tag string

	// Err is the underlying parse error.
	Err error
}

// Error implements the error interface.
func (e *MarkerError) Error() string {
	return fmt.Sprintf("berth: invalid marker tag %q: %v", e.Tag, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *MarkerError) Unwrap() error {
	return e.Err
}
