package main

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

type opKind int

const (
	opAllocate opKind = iota
	opRelease
)

// operation is a single step of the script passed on the command line
type operation struct {
	kind opKind
	// value is the size to allocate, or the index of the allocation to release
	value int
}

// parseOps reads operations of the form a:<size> and r:<index>. Sizes accept humanized units.
func parseOps(args []string) ([]operation, error) {
	ops := make([]operation, 0, len(args))

	for _, arg := range args {
		kind, value, found := strings.Cut(arg, ":")
		if !found {
			return nil, errors.Newf("operation %q must be of the form a:<size> or r:<index>", arg)
		}

		switch kind {
		case "a", "alloc":
			size, err := humanize.ParseBytes(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid allocation size in %q", arg)
			}
			// Anything past math.MaxInt cannot fit in an arena either
			if size > math.MaxInt {
				size = math.MaxInt
			}
			ops = append(ops, operation{kind: opAllocate, value: int(size)})
		case "r", "release":
			index, err := strconv.Atoi(value)
			if err != nil || index < 0 {
				return nil, errors.Newf("invalid allocation index in %q", arg)
			}
			ops = append(ops, operation{kind: opRelease, value: index})
		default:
			return nil, errors.Newf("unknown operation %q", kind)
		}
	}

	return ops, nil
}
