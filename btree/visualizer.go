package btree

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	levelColor    = color.New(color.FgYellow)
	internalColor = color.New(color.FgCyan, color.Bold)
	leafColor     = color.New(color.FgGreen)
)

// Visualizer renders a tree breadth first, one line per level:
//
//	Level 0: [10]
//	Level 1: [3 7] [13 16]
//
// Internal nodes and leaves are colored differently unless color.NoColor is set.
type Visualizer[K any] struct {
	Tree *BTree[K]
}

func (v *Visualizer[K]) Visualize() string {
	if v.Tree == nil || v.Tree.root == nil {
		return "(empty tree)"
	}
	var sb strings.Builder
	level := []*node[K]{v.Tree.root}
	for depth := 0; len(level) > 0; depth++ {
		if depth > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(levelColor.Sprintf("Level %d:", depth))
		var next []*node[K]
		for _, n := range level {
			sb.WriteByte(' ')
			sb.WriteString(renderNode(n))
			next = append(next, n.children...)
		}
		level = next
	}
	return sb.String()
}

func renderNode[K any](n *node[K]) string {
	keys := make([]string, len(n.keys))
	for i, k := range n.keys {
		keys[i] = fmt.Sprint(k)
	}
	s := "[" + strings.Join(keys, " ") + "]"
	if n.leaf {
		return leafColor.Sprint(s)
	}
	return internalColor.Sprint(s)
}
