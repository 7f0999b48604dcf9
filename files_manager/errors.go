package files_manager

import (
	"errors"
	"fmt"
)

// EnumerationError means the source root could not be listed. It is fatal for the run.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("cannot enumerate %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

func IsEnumerationError(err error) bool {
	var e *EnumerationError
	return errors.As(err, &e)
}

// PathMappingError means a file path does not live under the source root, or
// that its destination is already taken by Conflict.
type PathMappingError struct {
	Path     string
	Root     string
	Conflict string
}

func (e *PathMappingError) Error() string {
	if e.Conflict != "" {
		return fmt.Sprintf("path %q maps to the same output as %q", e.Path, e.Conflict)
	}
	return fmt.Sprintf("path %q is not under source root %q", e.Path, e.Root)
}
