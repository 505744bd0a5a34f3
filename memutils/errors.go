package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrBadArguments is returned when a requested arena size is zero, negative, or larger than the
	// maximum arena size
	ErrBadArguments = errors.New("bad arguments")
	// ErrSyscallFailed is returned when the operating system refused to reserve or release arena memory
	ErrSyscallFailed = errors.New("syscall failed")
	// ErrUninitialized is returned when an operation that requires an arena is called before the arena
	// was initialized, or after it was destroyed
	ErrUninitialized = errors.New("arena is uninitialized")
	// ErrAlreadyInitialized is returned when the process-wide arena is initialized a second time without
	// being destroyed first
	ErrAlreadyInitialized = errors.New("arena is already initialized")
	// ErrOutOfMemory is returned when no free block and no trailing arena space can satisfy a request
	ErrOutOfMemory = errors.New("out of memory")
	// ErrCorruptChain is returned when the block header chain fails a consistency check
	ErrCorruptChain = errors.New("block header chain is corrupt")
	// ErrOutOfBounds is returned when a header offset points outside of the arena
	ErrOutOfBounds = errors.New("offset is out of arena bounds")
	// ErrInvalidPointer is returned when an address passed to Release was never returned by Allocate
	ErrInvalidPointer = errors.New("address does not refer to a live allocation")
	// ErrDoubleFree is returned when an address passed to Release refers to a block that is already free
	ErrDoubleFree = errors.New("block is already free")
)
