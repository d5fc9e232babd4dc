package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"btreeindex/btree"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	errColor    = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
	promptColor = color.New(color.FgBlue, color.Bold)
)

// The walkthrough replayed by DEMO.
var (
	demoInserts  = []int{1, 3, 7, 10, 11, 13, 14, 15, 18, 16, 19, 24, 25, 26, 21, 4, 5, 20, 22, 2, 17, 12, 6}
	demoRemovals = []int{6, 13, 7, 4, 2, 16}
)

type Cli struct {
	scanner    *bufio.Scanner
	out        io.Writer
	tree       *btree.BTree[int]
	visualizer *btree.Visualizer[int]
	log        *logrus.Logger
}

func NewCli(s *bufio.Scanner, out io.Writer, t *btree.BTree[int], log *logrus.Logger) *Cli {
	v := &btree.Visualizer[int]{
		Tree: t,
	}
	if log == nil {
		log = btree.Log
	}
	return &Cli{scanner: s, out: out, tree: t, visualizer: v, log: log}
}

// Start runs the read-eval-print loop until EXIT or end of input.
func (c *Cli) Start() {
	c.printHelp()
	c.printPrompt()
	for c.scanner.Scan() {
		if !c.processInput(c.scanner.Text()) {
			return
		}
		c.printPrompt()
	}
	fmt.Fprintln(c.out)
}

func (c *Cli) printHelp() {
	fmt.Fprintf(c.out, `
B-Tree CLI (minimum degree %d)

Available Commands:
  INSERT <key>...  Insert one or more integer keys (alias ADD)
  DEL <key>...     Remove one or more keys
  GET <key>        Look up a key and show where it is stored
  LIST             Print all keys in ascending order
  SHOW             Draw the tree level by level
  CHECK            Verify the B-tree invariants
  STATS            Show key, node and height counts
  DEMO             Replay the degree-%d walkthrough on a scratch tree
  CLEAR            Remove every key
  HELP             Show this message
  EXIT             Terminate this session

`, c.tree.Degree(), c.tree.Degree())
}

func (c *Cli) printPrompt() {
	promptColor.Fprint(c.out, "> ")
}

// processInput handles one line and reports whether the session continues.
func (c *Cli) processInput(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return true
	}
	command := strings.ToLower(fields[0])
	c.log.WithFields(logrus.Fields{"command": command, "args": len(fields) - 1}).Debug("processing command")

	switch command {
	default:
		errColor.Fprintf(c.out, "Unknown command \"%s\"\n", command)
	case "insert", "add":
		c.processInsertCommand(fields[1:])
	case "del", "delete", "remove":
		c.processDeleteCommand(fields[1:])
	case "get", "find":
		c.processGetCommand(fields[1:])
	case "list", "traverse":
		c.processListCommand()
	case "show":
		fmt.Fprintln(c.out, c.visualizer.Visualize())
	case "check":
		c.processCheckCommand()
	case "stats":
		c.processStatsCommand()
	case "demo":
		c.processDemoCommand()
	case "clear":
		c.tree.Clear()
		okColor.Fprintln(c.out, "Tree cleared.")
	case "help":
		c.printHelp()
	case "exit", "quit":
		return false
	}
	return true
}

func parseKeys(args []string) ([]int, error) {
	keys := make([]int, 0, len(args))
	for _, a := range args {
		k, err := strconv.Atoi(a)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid key %q", a)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (c *Cli) processInsertCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: INSERT <key> [key...]")
		return
	}
	keys, err := parseKeys(args)
	if err != nil {
		errColor.Fprintln(c.out, err)
		return
	}
	for _, k := range keys {
		if !c.tree.Insert(k) {
			fmt.Fprintf(c.out, "Key %d already exists.\n", k)
		}
	}
	fmt.Fprintln(c.out, c.visualizer.Visualize())
}

func (c *Cli) processDeleteCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: DEL <key> [key...]")
		return
	}
	keys, err := parseKeys(args)
	if err != nil {
		errColor.Fprintln(c.out, err)
		return
	}
	for _, k := range keys {
		if err := c.tree.Remove(k); err != nil {
			if errors.Is(err, btree.ErrEmptyTree) {
				fmt.Fprintln(c.out, "The tree is empty.")
				return
			}
			fmt.Fprintf(c.out, "Key %d not found.\n", k)
		}
	}
	fmt.Fprintln(c.out, c.visualizer.Visualize())
}

func (c *Cli) processGetCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: GET <key>")
		return
	}
	keys, err := parseKeys(args)
	if err != nil {
		errColor.Fprintln(c.out, err)
		return
	}
	pos, ok := c.tree.Search(keys[0])
	if !ok {
		fmt.Fprintln(c.out, "Key not found.")
		return
	}
	fmt.Fprintf(c.out, "Found %d at depth %d, slot %d.\n", keys[0], pos.Depth, pos.Index)
}

func (c *Cli) processListCommand() {
	fmt.Fprintln(c.out, joinKeys(c.tree.Traverse()))
}

func (c *Cli) processCheckCommand() {
	if err := c.tree.Verify(); err != nil {
		errColor.Fprintf(c.out, "Invariant violated: %v\n", err)
		return
	}
	okColor.Fprintln(c.out, "OK")
}

func (c *Cli) processStatsCommand() {
	s := c.tree.Stats()
	fmt.Fprintf(c.out, "keys=%d nodes=%d leaves=%d height=%d degree=%d\n",
		s.Keys, s.Nodes, s.Leaves, s.Height, c.tree.Degree())
}

// processDemoCommand replays the walkthrough on a scratch tree of the same
// degree, printing the traversal after every step.
func (c *Cli) processDemoCommand() {
	demo, err := btree.New[int](c.tree.Degree(), btree.WithLogger(c.log))
	if err != nil {
		errColor.Fprintln(c.out, err)
		return
	}
	for _, k := range demoInserts {
		demo.Insert(k)
	}
	fmt.Fprintln(c.out, "Traversal of tree constructed is")
	fmt.Fprintln(c.out, joinKeys(demo.Traverse()))

	for _, k := range demoRemovals {
		if err := demo.Remove(k); err != nil {
			errColor.Fprintln(c.out, err)
			return
		}
		fmt.Fprintf(c.out, "Traversal of tree after removing %d\n", k)
		fmt.Fprintln(c.out, joinKeys(demo.Traverse()))
	}
}

func joinKeys(keys []int) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Itoa(k)
	}
	return strings.Join(parts, " ")
}
