package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"syscall"
)

// Reason is the path-scoped cause of a failed directory load.
type Reason int

const (
	ReasonIO Reason = iota
	ReasonNotFound
	ReasonPermissionDenied
	ReasonNotADirectory
)

func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not found"
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonNotADirectory:
		return "not a directory"
	default:
		return "i/o error"
	}
}

// LoadError describes why a directory could not be listed.
type LoadError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *LoadError) Error() string {
	if e.Reason == ReasonIO && e.Err != nil {
		return fmt.Sprintf("cannot read directory %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot read directory %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Detail returns a short status-line description of the failure.
func (e *LoadError) Detail() string {
	if e.Reason == ReasonIO && e.Err != nil {
		var pathErr *iofs.PathError
		if errors.As(e.Err, &pathErr) {
			return fmt.Sprintf("%s: %v", e.Reason, pathErr.Err)
		}
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason.String()
}

// ReasonOf extracts the failure reason from err, defaulting to ReasonIO.
func ReasonOf(err error) Reason {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Reason
	}
	return classify(err)
}

func newLoadError(path string, err error) *LoadError {
	return &LoadError{Path: path, Reason: classify(err), Err: err}
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, iofs.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, syscall.ENOTDIR):
		return ReasonNotADirectory
	default:
		return ReasonIO
	}
}
