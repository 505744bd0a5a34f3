package arena

// ReserveMemoryCallback is called after an Arena has reserved its region from the MemorySource
type ReserveMemoryCallback func(
	arena *Arena,
	size int,
	userData interface{},
)

// ReleaseMemoryCallback is called after an Arena has returned its region to the MemorySource
type ReleaseMemoryCallback func(
	arena *Arena,
	size int,
	userData interface{},
)

type MemoryCallbackOptions struct {
	Reserve  ReserveMemoryCallback
	Release  ReleaseMemoryCallback
	UserData interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Arena     *Arena
}

func (c *memoryCallbacks) Reserve(size int) {
	if c.Callbacks != nil && c.Callbacks.Reserve != nil {
		c.Callbacks.Reserve(c.Arena, size, c.Callbacks.UserData)
	}
}

func (c *memoryCallbacks) Release(size int) {
	if c.Callbacks != nil && c.Callbacks.Release != nil {
		c.Callbacks.Release(c.Arena, size, c.Callbacks.UserData)
	}
}
