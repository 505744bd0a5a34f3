package arena

import (
	"github.com/cockroachdb/errors"
	"github.com/myalloc/arsenal/memutils"
)

// Status is the outcome of the most recent arena operation
type Status int32

const (
	StatusSuccess Status = iota
	StatusUninitialized
	StatusOutOfMemory
	StatusBadArguments
	StatusSyscallFailed
	StatusCorruptChain
)

var statusMapping = map[Status]string{
	StatusSuccess:       "StatusSuccess",
	StatusUninitialized: "StatusUninitialized",
	StatusOutOfMemory:   "StatusOutOfMemory",
	StatusBadArguments:  "StatusBadArguments",
	StatusSyscallFailed: "StatusSyscallFailed",
	StatusCorruptChain:  "StatusCorruptChain",
}

func (s Status) String() string {
	str, ok := statusMapping[s]
	if !ok {
		return "unknown Status"
	}

	return str
}

// Err returns the sentinel error that corresponds to this status, or nil for StatusSuccess
func (s Status) Err() error {
	switch s {
	case StatusSuccess:
		return nil
	case StatusUninitialized:
		return memutils.ErrUninitialized
	case StatusOutOfMemory:
		return memutils.ErrOutOfMemory
	case StatusBadArguments:
		return memutils.ErrBadArguments
	case StatusSyscallFailed:
		return memutils.ErrSyscallFailed
	case StatusCorruptChain:
		return memutils.ErrCorruptChain
	}

	return errors.Newf("unknown status %d", s)
}

// StatusFromError maps an error returned by this package back onto a Status. Rejected Release and
// Initialize calls are caller errors and map to StatusBadArguments; anything else is a chain failure.
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, memutils.ErrUninitialized):
		return StatusUninitialized
	case errors.Is(err, memutils.ErrOutOfMemory):
		return StatusOutOfMemory
	case errors.Is(err, memutils.ErrBadArguments):
		return StatusBadArguments
	case errors.Is(err, memutils.ErrSyscallFailed):
		return StatusSyscallFailed
	case errors.Is(err, memutils.ErrAlreadyInitialized),
		errors.Is(err, memutils.ErrInvalidPointer),
		errors.Is(err, memutils.ErrDoubleFree):
		return StatusBadArguments
	}

	return StatusCorruptChain
}
