package arena

//go:generate mockgen -source memory.go -destination ./internal/mocks/memory_source.go -package mocks

// MemorySource supplies the raw region an Arena subdivides. The default implementation maps anonymous,
// private, zero-filled pages from the operating system.
type MemorySource interface {
	// PageSize returns the granularity that reservations are rounded up to. It must be a power of two.
	PageSize() int
	// Reserve returns size bytes of zeroed, read-write memory
	Reserve(size int) ([]byte, error)
	// Release returns a region previously handed out by Reserve
	Release(region []byte) error
}
