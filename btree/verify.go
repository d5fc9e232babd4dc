package btree

import (
	"github.com/cockroachdb/errors"
)

// Stats summarizes the shape of a tree.
type Stats struct {
	Keys     int
	Nodes    int
	Leaves   int
	Height   int
	MinDepth int // depth of the shallowest leaf; equals Height-1 on a valid tree
}

// Stats walks the whole tree and counts its nodes.
func (t *BTree[K]) Stats() Stats {
	s := Stats{Height: t.Height(), MinDepth: -1}
	if t.root != nil {
		t.root.stats(0, &s)
	}
	return s
}

func (n *node[K]) stats(depth int, s *Stats) {
	s.Nodes++
	s.Keys += len(n.keys)
	if n.leaf {
		s.Leaves++
		if s.MinDepth < 0 || depth < s.MinDepth {
			s.MinDepth = depth
		}
		return
	}
	for _, c := range n.children {
		c.stats(depth+1, s)
	}
}

/*
Verify checks every structural invariant of the tree and returns an error
describing the first violation found:
  - every non-root node holds between t-1 and 2t-1 keys, the root at least one
  - a leaf has no children, an internal node one more child than keys
  - all leaves are at the same depth
  - an in-order scan is strictly ascending (non-decreasing with duplicates)
  - the scan visits exactly Len() keys
*/
func (t *BTree[K]) Verify() error {
	if t.root == nil {
		if t.length != 0 {
			return errors.Newf("empty tree reports %d keys", t.length)
		}
		return nil
	}
	v := &verifier[K]{ctx: &t.ctx, duplicates: t.duplicates, leafDepth: -1}
	if err := v.walk(t.root, 0, true); err != nil {
		return err
	}
	if v.count != t.length {
		return errors.Newf("scan found %d keys, tree reports %d", v.count, t.length)
	}
	return nil
}

type verifier[K any] struct {
	ctx        *btreeContext[K]
	duplicates bool
	leafDepth  int
	count      int
	prev       K
	hasPrev    bool
}

func (v *verifier[K]) walk(n *node[K], depth int, root bool) error {
	switch {
	case len(n.keys) > v.ctx.maxKeys():
		return errors.Newf("node at depth %d holds %d keys, maximum is %d", depth, len(n.keys), v.ctx.maxKeys())
	case root && len(n.keys) == 0:
		return errors.New("root node holds no keys")
	case !root && len(n.keys) < v.ctx.minKeys():
		return errors.Newf("node at depth %d holds %d keys, minimum is %d", depth, len(n.keys), v.ctx.minKeys())
	}

	if n.leaf {
		if len(n.children) != 0 {
			return errors.Newf("leaf at depth %d has %d children", depth, len(n.children))
		}
		if v.leafDepth < 0 {
			v.leafDepth = depth
		} else if depth != v.leafDepth {
			return errors.Newf("leaf at depth %d, expected all leaves at depth %d", depth, v.leafDepth)
		}
	} else if len(n.children) != len(n.keys)+1 {
		return errors.Newf("internal node at depth %d has %d keys and %d children", depth, len(n.keys), len(n.children))
	}

	for i, key := range n.keys {
		if !n.leaf {
			if err := v.walk(n.children[i], depth+1, false); err != nil {
				return err
			}
		}
		if err := v.visit(key); err != nil {
			return errors.Wrapf(err, "node at depth %d slot %d", depth, i)
		}
	}
	if !n.leaf {
		return v.walk(n.children[len(n.keys)], depth+1, false)
	}
	return nil
}

func (v *verifier[K]) visit(key K) error {
	if v.hasPrev {
		c := v.ctx.compare(v.prev, key)
		if c > 0 || (c == 0 && !v.duplicates) {
			return errors.Newf("key %v follows %v out of order", key, v.prev)
		}
	}
	v.prev, v.hasPrev = key, true
	v.count++
	return nil
}
