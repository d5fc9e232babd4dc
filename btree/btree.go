// Package btree implements an in-memory B-tree of arbitrary minimum degree.
//
// A tree of minimum degree t keeps between t-1 and 2t-1 keys in every node
// except the root, and every internal node has one more child than it has
// keys. All leaves sit at the same depth. Insertion splits full nodes on the
// way down and deletion tops up thin nodes on the way down, so both complete
// in a single pass from the root.
//
// Only keys are stored. The tree is not safe for concurrent mutation; callers
// that share a tree between goroutines must serialize access themselves.
package btree

import (
	"cmp"

	"github.com/sirupsen/logrus"
)

// Log is the logger used by trees created without WithLogger. Structural
// changes (splits, merges, borrows, root growth) are reported at debug level.
var Log = logrus.New()

// CompareFunc defines a total order over keys. It returns a negative number
// when a < b, zero when a == b and a positive number when a > b.
type CompareFunc[K any] func(a, b K) int

// ItemIterator allows callers of Ascend and Descend to walk the tree in order.
// When it returns false the walk stops.
type ItemIterator[K any] func(key K) bool

// Option configures a tree at construction time.
type Option func(*options)

type options struct {
	duplicates bool
	log        *logrus.Logger
}

// WithDuplicates controls whether equal keys may be stored more than once.
// Duplicates are rejected by default.
func WithDuplicates(allow bool) Option {
	return func(o *options) {
		o.duplicates = allow
	}
}

// WithLogger routes the tree's debug events to l instead of Log.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// btreeContext carries the per-tree parameters every node operation needs.
type btreeContext[K any] struct {
	degree  int
	compare CompareFunc[K]
	log     *logrus.Logger
}

// maxKeys is the number of keys a full node holds.
func (c *btreeContext[K]) maxKeys() int {
	return 2*c.degree - 1
}

// minKeys is the number of keys a non-root node may not drop below.
func (c *btreeContext[K]) minKeys() int {
	return c.degree - 1
}

func (c *btreeContext[K]) newNode(leaf bool) *node[K] {
	n := &node[K]{
		keys: make(items[K], 0, c.maxKeys()),
		leaf: leaf,
	}
	if !leaf {
		n.children = make(children[K], 0, c.maxKeys()+1)
	}
	return n
}

func (c *btreeContext[K]) tracing() bool {
	return c.log.IsLevelEnabled(logrus.DebugLevel)
}

// New creates an empty tree ordered by cmp.Compare.
//
// New[int](2), for example, creates a 2-3-4 tree (each node holds 1-3 keys and
// 2-4 children).
func New[K cmp.Ordered](degree int, opts ...Option) (*BTree[K], error) {
	return NewWithCompare[K](degree, cmp.Compare[K], opts...)
}

// NewWithCompare creates an empty tree ordered by compare.
func NewWithCompare[K any](degree int, compare CompareFunc[K], opts ...Option) (*BTree[K], error) {
	if degree < 2 {
		return nil, newDegreeError(degree)
	}
	if compare == nil {
		return nil, ErrNilCompare
	}
	o := options{log: Log}
	for _, opt := range opts {
		opt(&o)
	}
	return &BTree[K]{
		duplicates: o.duplicates,
		ctx: btreeContext[K]{
			degree:  degree,
			compare: compare,
			log:     o.log,
		},
	}, nil
}
