package btree

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidDegree is returned when a tree is constructed with a minimum
	// degree below 2.
	ErrInvalidDegree = errors.New("btree: minimum degree must be at least 2")

	// ErrNilCompare is returned when NewWithCompare is given no ordering.
	ErrNilCompare = errors.New("btree: compare function is nil")

	// ErrKeyNotFound reports a search or removal of a key the tree does not hold.
	ErrKeyNotFound = errors.New("btree: key not found")

	// ErrEmptyTree is returned by Remove on a tree with no keys. It matches
	// ErrKeyNotFound as well, so callers only need to check for that.
	ErrEmptyTree error = emptyTreeError{}
)

type emptyTreeError struct{}

func (emptyTreeError) Error() string { return "btree: tree is empty" }

func (emptyTreeError) Is(target error) bool { return target == ErrKeyNotFound }

func newDegreeError(degree int) error {
	return errors.Wrapf(ErrInvalidDegree, "degree %d", degree)
}
