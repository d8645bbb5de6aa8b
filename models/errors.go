package models

import "fmt"

// ExternalDependencyError marks an import that points at a third-party
// package rather than project code. Suggestion carries a remediation hint
// surfaced verbatim in strict mode.
type ExternalDependencyError struct {
	Module     string
	Suggestion string
}

func (e *ExternalDependencyError) Error() string {
	return fmt.Sprintf("external dependency %q is not part of the project: %s", e.Module, e.Suggestion)
}

// ResolutionFailedError marks a local import that could not be mapped to a
// file on disk.
type ResolutionFailedError struct {
	Import string
	Reason string
}

func (e *ResolutionFailedError) Error() string {
	return fmt.Sprintf("failed to resolve import %q: %s", e.Import, e.Reason)
}
