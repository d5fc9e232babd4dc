package btree

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var btreeDegree = flag.Int("degree", 32, "B-Tree degree")

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// perm returns a random permutation of n ints in the range [0, n).
func perm(n int) []int {
	return rand.Perm(n)
}

// rang returns an ordered list of ints in the range [0, n).
func rang(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func newTree(t testing.TB, degree int, opts ...Option) *BTree[int] {
	t.Helper()
	tr, err := New[int](degree, opts...)
	require.NoError(t, err)
	return tr
}

var (
	scenarioInserts  = []int{1, 3, 7, 10, 11, 13, 14, 15, 18, 16, 19, 24, 25, 26, 21, 4, 5, 20, 22, 2, 17, 12, 6}
	scenarioRemovals = []int{6, 13, 7, 4, 2, 16}
)

func without(keys []int, drop ...int) []int {
	var out []int
	for _, k := range keys {
		keep := true
		for _, d := range drop {
			if k == d {
				keep = false
			}
		}
		if keep {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}

func TestNewRejectsSmallDegree(t *testing.T) {
	for _, degree := range []int{-3, 0, 1} {
		t.Run(fmt.Sprint(degree), func(t *testing.T) {
			tr, err := New[int](degree)
			require.ErrorIs(t, err, ErrInvalidDegree)
			assert.Nil(t, tr)
			assert.Contains(t, err.Error(), fmt.Sprintf("degree %d", degree))
		})
	}

	_, err := NewWithCompare[int](3, nil)
	require.ErrorIs(t, err, ErrNilCompare)

	tr, err := New[int](2)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Degree())
}

func TestEmptyTree(t *testing.T) {
	tr := newTree(t, 3)

	assert.Empty(t, tr.Traverse())
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, tr.Height())
	assert.False(t, tr.Has(1))

	_, ok := tr.Search(1)
	assert.False(t, ok)
	_, err := tr.Get(1)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	err = tr.Remove(1)
	assert.ErrorIs(t, err, ErrEmptyTree)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, ok = tr.Min()
	assert.False(t, ok)
	_, ok = tr.Max()
	assert.False(t, ok)

	assert.NoError(t, tr.Verify())
	assert.Equal(t, "(empty tree)", tr.String())
}

// The degree-2 walkthrough: shapes after each step are fixed by the
// split-before-descend and fill-before-descend rules.
func TestScenarioShapes(t *testing.T) {
	tr := newTree(t, 2)
	for _, k := range scenarioInserts {
		require.True(t, tr.Insert(k))
		require.NoError(t, tr.Verify())
	}

	assert.Equal(t, without(rang(27), 0, 8, 9, 23), tr.Traverse())
	assert.Equal(t, strings.Join([]string{
		"Level 0: [15]",
		"Level 1: [10] [20]",
		"Level 2: [3 5] [13] [18] [24]",
		"Level 3: [1 2] [4] [6 7] [11 12] [14] [16 17] [19] [21 22] [25 26]",
	}, "\n"), tr.String())

	shapes := map[int][]string{
		6: {
			"Level 0: [10 15 20]",
			"Level 1: [3 5] [13] [18] [24]",
			"Level 2: [1 2] [4] [7] [11 12] [14] [16 17] [19] [21 22] [25 26]",
		},
		13: {
			"Level 0: [5 15 20]",
			"Level 1: [3] [10 12] [18] [24]",
			"Level 2: [1 2] [4] [7] [11] [14] [16 17] [19] [21 22] [25 26]",
		},
		7: {
			"Level 0: [5 15 20]",
			"Level 1: [3] [12] [18] [24]",
			"Level 2: [1 2] [4] [10 11] [14] [16 17] [19] [21 22] [25 26]",
		},
		4: {
			"Level 0: [15 20]",
			"Level 1: [2 5 12] [18] [24]",
			"Level 2: [1] [3] [10 11] [14] [16 17] [19] [21 22] [25 26]",
		},
		2: {
			"Level 0: [15 20]",
			"Level 1: [5 12] [18] [24]",
			"Level 2: [1 3] [10 11] [14] [16 17] [19] [21 22] [25 26]",
		},
		16: {
			"Level 0: [12 20]",
			"Level 1: [5] [15 18] [24]",
			"Level 2: [1 3] [10 11] [14] [17] [19] [21 22] [25 26]",
		},
	}

	var removed []int
	for _, k := range scenarioRemovals {
		require.NoError(t, tr.Remove(k), "remove %d", k)
		removed = append(removed, k)
		require.NoError(t, tr.Verify(), "after removing %d", k)
		assert.Equal(t, without(scenarioInserts, removed...), tr.Traverse(), "after removing %d", k)
		assert.Equal(t, strings.Join(shapes[k], "\n"), tr.String(), "after removing %d", k)
		assert.False(t, tr.Has(k))
	}
	assert.Equal(t, len(scenarioInserts)-len(scenarioRemovals), tr.Len())
}

func TestSearchPosition(t *testing.T) {
	tr := newTree(t, 2)
	for _, k := range scenarioInserts {
		tr.Insert(k)
	}

	tests := []struct {
		key  int
		pos  Position
		want bool
	}{
		{key: 15, pos: Position{Depth: 0, Index: 0}, want: true},
		{key: 20, pos: Position{Depth: 1, Index: 0}, want: true},
		{key: 5, pos: Position{Depth: 2, Index: 1}, want: true},
		{key: 26, pos: Position{Depth: 3, Index: 1}, want: true},
		{key: 8},
		{key: 0},
		{key: 99},
	}
	for _, tt := range tests {
		pos, ok := tr.Search(tt.key)
		assert.Equal(t, tt.want, ok, "key %d", tt.key)
		assert.Equal(t, tt.pos, pos, "key %d", tt.key)
	}
}

func TestRemoveAbsentLeavesTreeUnchanged(t *testing.T) {
	tr := newTree(t, 2)
	for _, k := range scenarioInserts {
		tr.Insert(k)
	}
	before := tr.String()
	stats := tr.Stats()

	// 8 and 9 would send the descent into thin children that need a merge.
	for _, k := range []int{0, 8, 9, 23, 27, -5} {
		err := tr.Remove(k)
		require.ErrorIs(t, err, ErrKeyNotFound, "key %d", k)
		assert.NotErrorIs(t, err, ErrEmptyTree)
		assert.Equal(t, before, tr.String(), "key %d", k)
		assert.Equal(t, stats, tr.Stats())
		require.NoError(t, tr.Verify())
	}
}

func TestInsertRemoveRoundTrip(t *testing.T) {
	tr := newTree(t, 3)
	for _, k := range perm(200) {
		tr.Insert(k * 2)
	}
	want := tr.Traverse()
	for k := -1; k < 401; k += 2 {
		require.True(t, tr.Insert(k))
		require.NoError(t, tr.Remove(k))
		require.NoError(t, tr.Verify())
		require.Equal(t, want, tr.Traverse(), "key %d", k)
	}
}

func TestBTree(t *testing.T) {
	tr := newTree(t, *btreeDegree)
	const treeSize = 10000
	for i := 0; i < 5; i++ {
		for _, k := range perm(treeSize) {
			require.True(t, tr.Insert(k), "insert %d", k)
		}
		for _, k := range perm(treeSize) {
			require.False(t, tr.Insert(k), "reinsert %d", k)
		}
		require.NoError(t, tr.Verify())
		assert.Equal(t, treeSize, tr.Len())

		lo, _ := tr.Min()
		hi, _ := tr.Max()
		assert.Equal(t, 0, lo)
		assert.Equal(t, treeSize-1, hi)
		require.Equal(t, rang(treeSize), tr.Traverse())

		for _, k := range perm(treeSize) {
			require.NoError(t, tr.Remove(k), "remove %d", k)
		}
		require.Empty(t, tr.Traverse())
		require.Equal(t, 0, tr.Height())
	}
}

// Every mutation is followed by a full invariant check, at the small degrees
// where splits and merges happen constantly.
func TestInvariantsAfterEveryMutation(t *testing.T) {
	for _, degree := range []int{2, 3, 4, 7} {
		t.Run(fmt.Sprintf("degree=%d", degree), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(int64(degree)))
			tr := newTree(t, degree)
			model := map[int]bool{}

			for step := 0; step < 4000; step++ {
				k := rnd.Intn(500)
				if rnd.Intn(100) < 55 {
					assert.Equal(t, !model[k], tr.Insert(k))
					model[k] = true
				} else {
					err := tr.Remove(k)
					if model[k] {
						require.NoError(t, err)
					} else {
						require.ErrorIs(t, err, ErrKeyNotFound)
					}
					delete(model, k)
				}
				require.NoError(t, tr.Verify(), "step %d", step)
			}

			want := make([]int, 0, len(model))
			for k := range model {
				want = append(want, k)
			}
			sort.Ints(want)
			require.Equal(t, want, tr.Traverse())
			for k := 0; k < 500; k++ {
				assert.Equal(t, model[k], tr.Has(k), "key %d", k)
			}
		})
	}
}

func TestDuplicatesRejectedByDefault(t *testing.T) {
	tr := newTree(t, 2)
	for _, k := range scenarioInserts {
		tr.Insert(k)
	}
	before := tr.String()

	assert.False(t, tr.AllowsDuplicates())
	assert.False(t, tr.Insert(15))
	assert.False(t, tr.Insert(26))
	assert.Equal(t, before, tr.String())
	assert.Equal(t, len(scenarioInserts), tr.Len())
}

func TestDuplicatesAllowed(t *testing.T) {
	tr := newTree(t, 2, WithDuplicates(true))
	require.True(t, tr.AllowsDuplicates())

	for copies := 0; copies < 3; copies++ {
		for _, k := range perm(50) {
			require.True(t, tr.Insert(k))
			require.NoError(t, tr.Verify())
		}
	}
	assert.Equal(t, 150, tr.Len())

	got := tr.Traverse()
	for i, k := range got {
		assert.Equal(t, i/3, k)
	}

	// one occurrence per call
	for copies := 3; copies > 0; copies-- {
		require.True(t, tr.Has(7))
		require.NoError(t, tr.Remove(7))
		require.NoError(t, tr.Verify())
	}
	assert.False(t, tr.Has(7))
	assert.ErrorIs(t, tr.Remove(7), ErrKeyNotFound)
	assert.Equal(t, 147, tr.Len())
}

func TestAscendDescendStopEarly(t *testing.T) {
	tr := newTree(t, 3)
	for _, k := range perm(100) {
		tr.Insert(k)
	}

	var got []int
	tr.Ascend(func(k int) bool {
		if k >= 40 {
			return false
		}
		got = append(got, k)
		return true
	})
	assert.Equal(t, rang(40), got)

	got = got[:0]
	tr.Descend(func(k int) bool {
		got = append(got, k)
		return true
	})
	require.Len(t, got, 100)
	for i, k := range got {
		assert.Equal(t, 99-i, k)
	}

	got = got[:0]
	tr.Descend(func(k int) bool {
		got = append(got, k)
		return len(got) < 5
	})
	assert.Equal(t, []int{99, 98, 97, 96, 95}, got)
}

func TestCustomCompare(t *testing.T) {
	// equality comes from the comparator, not from ==
	foldCase := func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}
	tr, err := NewWithCompare[string](2, foldCase)
	require.NoError(t, err)

	for _, w := range []string{"Pear", "apple", "Fig", "banana", "cherry", "Date"} {
		require.True(t, tr.Insert(w))
	}
	assert.False(t, tr.Insert("APPLE"))

	got, err := tr.Get("PEAR")
	require.NoError(t, err)
	assert.Equal(t, "Pear", got)
	assert.Equal(t, []string{"apple", "banana", "cherry", "Date", "Fig", "Pear"}, tr.Traverse())

	require.NoError(t, tr.Remove("fig"))
	assert.Equal(t, []string{"apple", "banana", "cherry", "Date", "Pear"}, tr.Traverse())
	require.NoError(t, tr.Verify())
}

func TestHeightAndStats(t *testing.T) {
	tr := newTree(t, 2)
	for _, k := range scenarioInserts {
		tr.Insert(k)
	}
	s := tr.Stats()
	assert.Equal(t, Stats{Keys: 23, Nodes: 16, Leaves: 9, Height: 4, MinDepth: 3}, s)
	assert.Equal(t, 4, tr.Height())

	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, Stats{MinDepth: -1}, tr.Stats())
	assert.True(t, tr.Insert(1))
}

func TestRootGrowsAndShrinks(t *testing.T) {
	tr := newTree(t, 2)
	for k := 1; k <= 3; k++ {
		tr.Insert(k)
	}
	assert.Equal(t, 1, tr.Height())
	assert.Equal(t, "Level 0: [1 2 3]", tr.String())

	tr.Insert(4)
	assert.Equal(t, 2, tr.Height())
	assert.Equal(t, "Level 0: [2]\nLevel 1: [1] [3 4]", tr.String())

	require.NoError(t, tr.Remove(2))
	assert.Equal(t, "Level 0: [3]\nLevel 1: [1] [4]", tr.String())
	require.NoError(t, tr.Remove(1))
	assert.Equal(t, 1, tr.Height())
	assert.Equal(t, "Level 0: [3 4]", tr.String())

	require.NoError(t, tr.Remove(3))
	require.NoError(t, tr.Remove(4))
	assert.Equal(t, 0, tr.Height())
	assert.ErrorIs(t, tr.Remove(4), ErrEmptyTree)
}

func TestStructuralEventsAreLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	tr := newTree(t, 2, WithLogger(logger))
	for _, k := range scenarioInserts {
		tr.Insert(k)
	}
	for _, k := range scenarioRemovals {
		require.NoError(t, tr.Remove(k))
	}
	tr.Insert(1)
	assert.ErrorIs(t, tr.Remove(8), ErrKeyNotFound)

	ops := map[string]int{}
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.DebugLevel, e.Level)
		ops[fmt.Sprint(e.Data["op"])]++
	}
	for _, op := range []string{"splitChild", "splitRoot", "merge", "borrowFromPrev", "shrinkRoot", "insert", "remove"} {
		assert.Positive(t, ops[op], "op %s", op)
	}

	hook.Reset()
	logger.SetLevel(logrus.InfoLevel)
	tr.Insert(100)
	assert.Empty(t, hook.AllEntries())
}

func ExampleBTree() {
	tr, _ := New[int](2)
	for _, k := range []int{1, 3, 7, 10, 11, 13, 14, 15, 18, 16, 19, 24, 25, 26, 21, 4, 5, 20, 22, 2, 17, 12, 6} {
		tr.Insert(k)
	}
	fmt.Println("traverse:", tr.Traverse())
	fmt.Println("has 13:  ", tr.Has(13))
	fmt.Println("remove 6:", tr.Remove(6))
	fmt.Println("remove 8:", tr.Remove(8))
	fmt.Println("len:     ", tr.Len())
	fmt.Println(tr)
	// Output:
	// traverse: [1 2 3 4 5 6 7 10 11 12 13 14 15 16 17 18 19 20 21 22 24 25 26]
	// has 13:   true
	// remove 6: <nil>
	// remove 8: btree: key not found
	// len:      22
	// Level 0: [10 15 20]
	// Level 1: [3 5] [13] [18] [24]
	// Level 2: [1 2] [4] [7] [11 12] [14] [16 17] [19] [21 22] [25 26]
}

func ExampleNewWithCompare() {
	desc := func(a, b int) int { return b - a }
	tr, _ := NewWithCompare[int](3, desc)
	for _, k := range []int{5, 1, 9, 3, 7} {
		tr.Insert(k)
	}
	fmt.Println(tr.Traverse())
	// Output:
	// [9 7 5 3 1]
}

const benchmarkTreeSize = 10000

func BenchmarkInsert(b *testing.B) {
	b.StopTimer()
	insertP := perm(benchmarkTreeSize)
	b.StartTimer()
	i := 0
	for i < b.N {
		tr := newTree(b, *btreeDegree)
		for _, k := range insertP {
			tr.Insert(k)
			i++
			if i >= b.N {
				return
			}
		}
	}
}

func BenchmarkRemove(b *testing.B) {
	b.StopTimer()
	insertP := perm(benchmarkTreeSize)
	removeP := perm(benchmarkTreeSize)
	b.StartTimer()
	i := 0
	for i < b.N {
		b.StopTimer()
		tr := newTree(b, *btreeDegree)
		for _, k := range insertP {
			tr.Insert(k)
		}
		b.StartTimer()
		for _, k := range removeP {
			_ = tr.Remove(k)
			i++
			if i >= b.N {
				return
			}
		}
		if tr.Len() > 0 {
			panic(tr.Len())
		}
	}
}

func BenchmarkHas(b *testing.B) {
	b.StopTimer()
	insertP := perm(benchmarkTreeSize)
	tr := newTree(b, *btreeDegree)
	for _, k := range insertP {
		tr.Insert(k)
	}
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tr.Has(insertP[i%benchmarkTreeSize])
	}
}
