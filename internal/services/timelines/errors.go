package timelinesvc

import (
	"errors"
	"fmt"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/graph"
	"github.com/EvModder/438-TSN/internal/registry"
)

var (
	// ErrInvalidBody rejects empty or oversized post bodies.
	ErrInvalidBody = errors.New("timelines: invalid post body")
	// ErrInvalidFilter rejects a handshake filter that does not compile.
	ErrInvalidFilter = errors.New("timelines: invalid filter")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("timelines: service closed")
)

// StorageError reports a failed durable read or write. It fails only the
// operation that hit it.
type StorageError struct {
	Op   string
	User string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("timelines: %s %q: %v", e.Op, e.User, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// domainErr keeps sentinel errors as they are and wraps anything else as a
// StorageError.
func domainErr(op, user string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, registry.ErrAlreadyExists),
		errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, registry.ErrUnknownUser),
		errors.Is(err, graph.ErrAlreadyExists),
		errors.Is(err, graph.ErrNotFollowing),
		errors.Is(err, graph.ErrInvalidTarget):
		return err
	}
	return &StorageError{Op: op, User: user, Err: err}
}

// StatusFor maps an operation error onto the RPC status enumeration.
// Storage failures map to FAILURE_UNKNOWN; transports that can do better
// check for *StorageError first.
func StatusFor(err error) tsnv1.Status {
	switch {
	case err == nil:
		return tsnv1.Status_SUCCESS
	case errors.Is(err, registry.ErrAlreadyExists), errors.Is(err, graph.ErrAlreadyExists):
		return tsnv1.Status_FAILURE_ALREADY_EXISTS
	case errors.Is(err, registry.ErrInvalidName), errors.Is(err, graph.ErrInvalidTarget):
		return tsnv1.Status_FAILURE_INVALID_USERNAME
	case errors.Is(err, registry.ErrUnknownUser):
		return tsnv1.Status_FAILURE_NOT_EXISTS
	case errors.Is(err, graph.ErrNotFollowing), errors.Is(err, ErrInvalidBody), errors.Is(err, ErrInvalidFilter):
		return tsnv1.Status_FAILURE_INVALID
	default:
		return tsnv1.Status_FAILURE_UNKNOWN
	}
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
