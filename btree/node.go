package btree

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// items stores the ordered keys of a node.
type items[K any] []K

// insertAt inserts a value into the given index, pushing all subsequent values
// forward.
func (s *items[K]) insertAt(index int, key K) {
	var zero K
	*s = append(*s, zero)
	if index < len(*s) {
		copy((*s)[index+1:], (*s)[index:])
	}
	(*s)[index] = key
}

// removeAt removes a value at a given index, pulling all subsequent values
// back.
func (s *items[K]) removeAt(index int) K {
	key := (*s)[index]
	copy((*s)[index:], (*s)[index+1:])
	var zero K
	(*s)[len(*s)-1] = zero
	*s = (*s)[:len(*s)-1]
	return key
}

// pop removes and returns the last element in the list.
func (s *items[K]) pop() K {
	index := len(*s) - 1
	out := (*s)[index]
	var zero K
	(*s)[index] = zero
	*s = (*s)[:index]
	return out
}

// truncate keeps the first index elements and clears the rest so the
// dropped keys can be collected.
func (s *items[K]) truncate(index int) {
	var zero K
	for i := index; i < len(*s); i++ {
		(*s)[i] = zero
	}
	*s = (*s)[:index]
}

// children stores the child pointers of an internal node.
type children[K any] []*node[K]

func (s *children[K]) insertAt(index int, n *node[K]) {
	*s = append(*s, nil)
	if index < len(*s) {
		copy((*s)[index+1:], (*s)[index:])
	}
	(*s)[index] = n
}

func (s *children[K]) removeAt(index int) *node[K] {
	n := (*s)[index]
	copy((*s)[index:], (*s)[index+1:])
	(*s)[len(*s)-1] = nil
	*s = (*s)[:len(*s)-1]
	return n
}

func (s *children[K]) pop() *node[K] {
	index := len(*s) - 1
	out := (*s)[index]
	(*s)[index] = nil
	*s = (*s)[:index]
	return out
}

func (s *children[K]) truncate(index int) {
	for i := index; i < len(*s); i++ {
		(*s)[i] = nil
	}
	*s = (*s)[:index]
}

/*
node is a single tree node. It maintains at all times that
  - a leaf has no children
  - an internal node has exactly len(keys)+1 children
  - keys are sorted ascending and every key of children[i] lies between
    keys[i-1] and keys[i]

Nodes are owned by their parent alone; there are no back pointers.
*/
type node[K any] struct {
	keys     items[K]
	children children[K]
	leaf     bool
}

/*
findKey returns the index of the first key that is not less than key.
That is either the position of key itself or the child to descend into when
key is not in this node.
*/
func (n *node[K]) findKey(key K, c *btreeContext[K]) int {
	return sort.Search(len(n.keys), func(i int) bool {
		return c.compare(n.keys[i], key) >= 0
	})
}

// search returns the node holding key, the key's slot in it and the node's
// depth below n. The node is nil when key is absent.
func (n *node[K]) search(key K, depth int, c *btreeContext[K]) (*node[K], int, int) {
	i := n.findKey(key, c)
	if i < len(n.keys) && c.compare(n.keys[i], key) == 0 {
		return n, i, depth
	}
	if n.leaf {
		return nil, -1, depth
	}
	return n.children[i].search(key, depth+1, c)
}

/*
insertNotFull inserts key into the subtree rooted at n, which must have room
for one more key. Any full child on the way down is split before we enter it,
so the leaf we finally reach always has room and nothing needs fixing on the
way back up. Equal keys land after the ones already stored.
*/
func (n *node[K]) insertNotFull(key K, c *btreeContext[K]) {
	i := len(n.keys) - 1
	for i >= 0 && c.compare(n.keys[i], key) > 0 {
		i--
	}
	i++
	if n.leaf {
		n.keys.insertAt(i, key)
		return
	}
	if len(n.children[i].keys) == c.maxKeys() {
		n.splitChild(i, c)
		// the promoted median now sits at keys[i]; pick the half that covers key
		if c.compare(n.keys[i], key) < 0 {
			i++
		}
	}
	n.children[i].insertNotFull(key, c)
}

/*
splitChild splits the full child at index i. The child keeps the lower t-1
keys, a new right sibling takes the upper t-1 keys (and upper t children),
and the median moves up into n at index i.
*/
func (n *node[K]) splitChild(i int, c *btreeContext[K]) {
	child := n.children[i]
	mid := c.degree - 1
	median := child.keys[mid]

	sibling := c.newNode(child.leaf)
	sibling.keys = append(sibling.keys, child.keys[mid+1:]...)
	if !child.leaf {
		sibling.children = append(sibling.children, child.children[mid+1:]...)
		child.children.truncate(mid + 1)
	}
	child.keys.truncate(mid)

	n.keys.insertAt(i, median)
	n.children.insertAt(i+1, sibling)

	if c.tracing() {
		c.log.WithFields(logrus.Fields{
			"op": "splitChild", "index": i, "median": median,
			"left": len(child.keys), "right": len(sibling.keys),
		}).Debug("split full child")
	}
}

// remove deletes one occurrence of key from the subtree rooted at n and
// reports whether it was there.
func (n *node[K]) remove(key K, c *btreeContext[K]) bool {
	idx := n.findKey(key, c)

	if idx < len(n.keys) && c.compare(n.keys[idx], key) == 0 {
		if n.leaf {
			n.removeFromLeaf(idx)
			return true
		}
		return n.removeFromNonLeaf(idx, c)
	}

	if n.leaf {
		return false
	}

	// key, if present, lives under children[idx]. Remember whether that was
	// the last child: a merge in fill can fold it into its left neighbour.
	last := idx == len(n.keys)
	if len(n.children[idx].keys) < c.degree {
		n.fill(idx, c)
	}
	if last && idx > len(n.keys) {
		return n.children[idx-1].remove(key, c)
	}
	return n.children[idx].remove(key, c)
}

func (n *node[K]) removeFromLeaf(idx int) {
	n.keys.removeAt(idx)
}

/*
removeFromNonLeaf deletes keys[idx] from an internal node:
 1. left child has at least t keys: replace with the predecessor and delete
    that from the left child.
 2. right child has at least t keys: same with the successor.
 3. both at t-1: merge key and right child into the left child, then delete
    key from the merged node.
*/
func (n *node[K]) removeFromNonLeaf(idx int, c *btreeContext[K]) bool {
	key := n.keys[idx]

	switch {
	case len(n.children[idx].keys) >= c.degree:
		pred := n.predecessor(idx)
		n.keys[idx] = pred
		return n.children[idx].remove(pred, c)
	case len(n.children[idx+1].keys) >= c.degree:
		succ := n.successor(idx)
		n.keys[idx] = succ
		return n.children[idx+1].remove(succ, c)
	default:
		n.merge(idx, c)
		return n.children[idx].remove(key, c)
	}
}

// predecessor returns the rightmost key of the subtree left of keys[idx].
func (n *node[K]) predecessor(idx int) K {
	cur := n.children[idx]
	for !cur.leaf {
		cur = cur.children[len(cur.children)-1]
	}
	return cur.keys[len(cur.keys)-1]
}

// successor returns the leftmost key of the subtree right of keys[idx].
func (n *node[K]) successor(idx int) K {
	cur := n.children[idx+1]
	for !cur.leaf {
		cur = cur.children[0]
	}
	return cur.keys[0]
}

// fill brings children[idx], which holds only t-1 keys, up to at least t.
// It prefers borrowing from the left sibling, then the right, and merges
// only when neither sibling can spare a key.
func (n *node[K]) fill(idx int, c *btreeContext[K]) {
	switch {
	case idx != 0 && len(n.children[idx-1].keys) >= c.degree:
		n.borrowFromPrev(idx, c)
	case idx != len(n.keys) && len(n.children[idx+1].keys) >= c.degree:
		n.borrowFromNext(idx, c)
	case idx != len(n.keys):
		n.merge(idx, c)
	default:
		// the last child has no right sibling
		n.merge(idx-1, c)
	}
}

// borrowFromPrev rotates the last key of children[idx-1] up into n and the
// separator keys[idx-1] down to the front of children[idx].
func (n *node[K]) borrowFromPrev(idx int, c *btreeContext[K]) {
	child, sibling := n.children[idx], n.children[idx-1]

	child.keys.insertAt(0, n.keys[idx-1])
	n.keys[idx-1] = sibling.keys.pop()
	if !child.leaf {
		child.children.insertAt(0, sibling.children.pop())
	}

	if c.tracing() {
		c.log.WithFields(logrus.Fields{
			"op": "borrowFromPrev", "index": idx, "separator": n.keys[idx-1],
		}).Debug("rotated key from left sibling")
	}
}

// borrowFromNext is the mirror image of borrowFromPrev.
func (n *node[K]) borrowFromNext(idx int, c *btreeContext[K]) {
	child, sibling := n.children[idx], n.children[idx+1]

	child.keys = append(child.keys, n.keys[idx])
	n.keys[idx] = sibling.keys.removeAt(0)
	if !child.leaf {
		child.children = append(child.children, sibling.children.removeAt(0))
	}

	if c.tracing() {
		c.log.WithFields(logrus.Fields{
			"op": "borrowFromNext", "index": idx, "separator": n.keys[idx],
		}).Debug("rotated key from right sibling")
	}
}

/*
merge folds the separator keys[idx] and all of children[idx+1] into
children[idx]. The right sibling is dropped and n loses one key and one
child. With both children at t-1 keys the result holds exactly 2t-1.
*/
func (n *node[K]) merge(idx int, c *btreeContext[K]) {
	child := n.children[idx]
	sibling := n.children.removeAt(idx + 1)

	child.keys = append(child.keys, n.keys.removeAt(idx))
	child.keys = append(child.keys, sibling.keys...)
	if !child.leaf {
		child.children = append(child.children, sibling.children...)
	}

	if c.tracing() {
		c.log.WithFields(logrus.Fields{
			"op": "merge", "index": idx, "keys": len(child.keys),
		}).Debug("merged child with right sibling")
	}
}

// ascend visits children[0], keys[0], children[1], ... in order until iter
// returns false. It reports whether the walk ran to completion.
func (n *node[K]) ascend(iter ItemIterator[K]) bool {
	for i, key := range n.keys {
		if !n.leaf && !n.children[i].ascend(iter) {
			return false
		}
		if !iter(key) {
			return false
		}
	}
	if !n.leaf {
		return n.children[len(n.keys)].ascend(iter)
	}
	return true
}

// descend is ascend in reverse.
func (n *node[K]) descend(iter ItemIterator[K]) bool {
	if !n.leaf && !n.children[len(n.keys)].descend(iter) {
		return false
	}
	for i := len(n.keys) - 1; i >= 0; i-- {
		if !iter(n.keys[i]) {
			return false
		}
		if !n.leaf && !n.children[i].descend(iter) {
			return false
		}
	}
	return true
}
