//go:build !unix

package vmem

import (
	"os"

	"github.com/pkg/errors"
)

// System hands out heap memory on platforms without mmap. The region is zeroed like a fresh mapping
// but is only returned to the OS by the garbage collector.
type System struct{}

func (System) PageSize() int {
	return os.Getpagesize()
}

func (System) Reserve(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Errorf("cannot reserve %d bytes", size)
	}

	return make([]byte, size), nil
}

func (System) Release(region []byte) error {
	if region == nil {
		return errors.New("cannot release a nil region")
	}

	return nil
}
