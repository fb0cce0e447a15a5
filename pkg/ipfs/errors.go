package ipfs

import (
	"fmt"
	"net/http"
	"strings"

	"gitlab.com/distributed_lab/logan/v3/errors"
)

// AttemptError describes a single failed fetch from one gateway.
type AttemptError struct {
	Gateway string
	// StatusCode is zero for transport level failures.
	StatusCode int
	Err        error
}

func (a AttemptError) Error() string {
	if a.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status code %d", a.Gateway, a.StatusCode)
	}
	return fmt.Sprintf("%s: %v", a.Gateway, a.Err)
}

// ResolutionFailedError is returned once every gateway attempt of every pass
// has failed.
type ResolutionFailedError struct {
	ResourceID string
	Attempts   []AttemptError
}

func (e *ResolutionFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, attempt.Error())
	}

	return fmt.Sprintf("failed to resolve %q after %d attempts: [%s]",
		e.ResourceID, len(e.Attempts), strings.Join(parts, "; "))
}

// LastError returns the error of the final attempt.
func (e *ResolutionFailedError) LastError() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1]
}

// NotFound reports whether every gateway answered 404.
func (e *ResolutionFailedError) NotFound() bool {
	if len(e.Attempts) == 0 {
		return false
	}
	for _, attempt := range e.Attempts {
		if attempt.StatusCode != http.StatusNotFound {
			return false
		}
	}
	return true
}

func (e *ResolutionFailedError) Is(target error) bool {
	switch target {
	case ErrResolutionFailed:
		return true
	case ErrNotFound:
		return e.NotFound()
	default:
		return false
	}
}

// AsResolutionFailed unwraps err down to a ResolutionFailedError.
func AsResolutionFailed(err error) (*ResolutionFailedError, bool) {
	failed, ok := errors.Cause(err).(*ResolutionFailedError)
	return failed, ok
}

func IsNotFound(err error) bool {
	if errors.Cause(err) == ErrNotFound {
		return true
	}
	failed, ok := AsResolutionFailed(err)
	return ok && failed.NotFound()
}
