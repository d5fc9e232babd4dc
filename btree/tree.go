package btree

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

/*
BTree only keeps a pointer to the root node of the tree, the fixed minimum
degree and a running key count. The root is nil while the tree is empty.

Write operations are not safe for concurrent use by multiple goroutines.
*/
type BTree[K any] struct {
	root       *node[K]
	length     int
	duplicates bool
	ctx        btreeContext[K]
}

// Position locates a key inside the tree: the depth of the node holding it
// (the root is depth 0) and the key's slot within that node.
type Position struct {
	Depth int
	Index int
}

// Degree returns the tree's minimum degree.
func (t *BTree[K]) Degree() int {
	return t.ctx.degree
}

// Len returns the number of keys currently in the tree.
func (t *BTree[K]) Len() int {
	return t.length
}

// AllowsDuplicates reports whether equal keys may be stored more than once.
func (t *BTree[K]) AllowsDuplicates() bool {
	return t.duplicates
}

// Height returns the number of levels in the tree; 0 for an empty tree.
func (t *BTree[K]) Height() int {
	if t.root == nil {
		return 0
	}
	h := 1
	for n := t.root; !n.leaf; n = n.children[0] {
		h++
	}
	return h
}

// Search looks for key and reports where it is stored.
func (t *BTree[K]) Search(key K) (Position, bool) {
	if t.root == nil {
		return Position{}, false
	}
	n, i, depth := t.root.search(key, 0, &t.ctx)
	if n == nil {
		return Position{}, false
	}
	return Position{Depth: depth, Index: i}, true
}

// Get returns the stored key equal to key, or ErrKeyNotFound.
func (t *BTree[K]) Get(key K) (K, error) {
	if t.root != nil {
		if n, i, _ := t.root.search(key, 0, &t.ctx); n != nil {
			return n.keys[i], nil
		}
	}
	var zero K
	return zero, ErrKeyNotFound
}

// Has returns true if the given key is in the tree.
func (t *BTree[K]) Has(key K) bool {
	_, ok := t.Search(key)
	return ok
}

/*
Insert adds key to the tree and reports whether it did. When duplicates are
not allowed and an equal key is already stored, the tree is left untouched
and false is returned.

A full root is split first: a new root is created, the old root becomes its
only child and is split in two, which is the only way the tree grows taller.
*/
func (t *BTree[K]) Insert(key K) bool {
	if !t.duplicates && t.Has(key) {
		if t.ctx.tracing() {
			t.ctx.log.WithFields(logrus.Fields{"op": "insert", "key": key}).Debug("duplicate key rejected")
		}
		return false
	}

	// The tree is empty, so start with a single leaf.
	if t.root == nil {
		t.root = t.ctx.newNode(true)
		t.root.keys = append(t.root.keys, key)
		t.length++
		return true
	}

	if len(t.root.keys) == t.ctx.maxKeys() {
		t.splitRoot()
	}
	t.root.insertNotFull(key, &t.ctx)
	t.length++
	return true
}

func (t *BTree[K]) splitRoot() {
	newRoot := t.ctx.newNode(false)
	newRoot.children = append(newRoot.children, t.root)
	newRoot.splitChild(0, &t.ctx)
	t.root = newRoot

	if t.ctx.tracing() {
		t.ctx.log.WithFields(logrus.Fields{
			"op": "splitRoot", "median": newRoot.keys[0], "height": t.Height(),
		}).Debug("root split, tree grew")
	}
}

/*
Remove deletes one occurrence of key. It returns ErrEmptyTree on an empty
tree and ErrKeyNotFound when the key is absent; in both cases the tree is not
modified. When the root runs out of keys its only child becomes the new root,
which is the only way the tree gets shorter.
*/
func (t *BTree[K]) Remove(key K) error {
	if t.root == nil {
		if t.ctx.tracing() {
			t.ctx.log.WithFields(logrus.Fields{"op": "remove", "key": key}).Debug("tree is empty")
		}
		return ErrEmptyTree
	}
	// The descent rebalances before it knows whether key exists, so absent
	// keys are turned away here.
	if !t.Has(key) {
		if t.ctx.tracing() {
			t.ctx.log.WithFields(logrus.Fields{"op": "remove", "key": key}).Debug("key does not exist")
		}
		return ErrKeyNotFound
	}

	if !t.root.remove(key, &t.ctx) {
		panic(errors.AssertionFailedf("key %v found by search but not by remove", key))
	}
	t.length--

	if len(t.root.keys) == 0 {
		if t.root.leaf {
			t.root = nil
		} else {
			t.root = t.root.children[0]
		}
		if t.ctx.tracing() {
			t.ctx.log.WithFields(logrus.Fields{
				"op": "shrinkRoot", "height": t.Height(),
			}).Debug("root emptied, tree shrank")
		}
	}
	return nil
}

// Traverse returns all keys in ascending order.
func (t *BTree[K]) Traverse() []K {
	out := make([]K, 0, t.length)
	t.Ascend(func(key K) bool {
		out = append(out, key)
		return true
	})
	return out
}

// Ascend calls the iterator for every key in ascending order until the
// iterator returns false.
func (t *BTree[K]) Ascend(iterator ItemIterator[K]) {
	if t.root == nil {
		return
	}
	t.root.ascend(iterator)
}

// Descend calls the iterator for every key in descending order until the
// iterator returns false.
func (t *BTree[K]) Descend(iterator ItemIterator[K]) {
	if t.root == nil {
		return
	}
	t.root.descend(iterator)
}

// Min returns the smallest key; ok is false for an empty tree.
func (t *BTree[K]) Min() (key K, ok bool) {
	n := t.root
	if n == nil {
		return key, false
	}
	for !n.leaf {
		n = n.children[0]
	}
	return n.keys[0], true
}

// Max returns the largest key; ok is false for an empty tree.
func (t *BTree[K]) Max() (key K, ok bool) {
	n := t.root
	if n == nil {
		return key, false
	}
	for !n.leaf {
		n = n.children[len(n.children)-1]
	}
	return n.keys[len(n.keys)-1], true
}

// Clear removes every key. The degree and options are kept.
func (t *BTree[K]) Clear() {
	t.root = nil
	t.length = 0
}

// String renders the tree level by level.
func (t *BTree[K]) String() string {
	v := &Visualizer[K]{Tree: t}
	return v.Visualize()
}
