//go:build unix

package vmem

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// System reserves arena memory with anonymous private mappings
type System struct{}

func (System) PageSize() int {
	return unix.Getpagesize()
}

func (System) Reserve(size int) ([]byte, error) {
	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap of %d bytes failed", size)
	}

	return region, nil
}

func (System) Release(region []byte) error {
	err := unix.Munmap(region)
	if err != nil {
		return errors.Wrapf(err, "munmap of %d bytes failed", len(region))
	}

	return nil
}
