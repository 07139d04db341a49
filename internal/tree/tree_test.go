package tree

import (
	"math"
	"testing"

	"github.com/btree-query-bench/catalog/internal/node"
	"github.com/btree-query-bench/catalog/internal/pager"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, l int) *Tree {
	t.Helper()
	store, err := pager.Open(t.TempDir()+"/pages.db", 4096)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rootID, err := store.Allocate()
	require.NoError(t, err)
	require.NoError(t, node.Commit(store, node.NewLeaf(rootID)))

	return &Tree{Store: store, Fanout: node.Fanout{L: l, U: l * 2}, RootID: rootID}
}

// recordIDForKey lets tests use the key itself as a stand-in record id so
// assertions can check keys without a separate heap.
func recordIDForKey(k float64) int64 { return int64(k) }

func insertAll(t *testing.T, tr *Tree, keys []float64) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, tr.Insert(k, recordIDForKey(k)))
	}
}

func keysOf(recs []Record) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = r.Key
	}
	return out
}

// TestScenario1Through3 reproduces spec.md §8's literal end-to-end scenarios.
func TestScenario1Through3(t *testing.T) {
	tr := newTestTree(t, 2)
	insertAll(t, tr, []float64{10, 20, 30, 40, 50})

	root, err := node.Load(tr.Store, tr.RootID)
	require.NoError(t, err)
	require.False(t, root.IsLeaf())
	require.Equal(t, []float64{30}, root.Keys)

	left, err := node.Load(tr.Store, root.ChildIDs[0])
	require.NoError(t, err)
	require.Equal(t, []float64{10, 20}, left.Keys)
	right, err := node.Load(tr.Store, root.ChildIDs[1])
	require.NoError(t, err)
	require.Equal(t, []float64{30, 40, 50}, right.Keys)

	// Scenario 2: insert 25, left leaf grows, root unchanged.
	require.NoError(t, tr.Insert(25, 25))
	root2, err := node.Load(tr.Store, tr.RootID)
	require.NoError(t, err)
	require.Equal(t, root.PageID, root2.PageID)
	left, err = node.Load(tr.Store, root.ChildIDs[0])
	require.NoError(t, err)
	require.Equal(t, []float64{10, 20, 25}, left.Keys)

	// Scenario 3: insert 26, 27 — left leaf splits, root becomes [25,30].
	require.NoError(t, tr.Insert(26, 26))
	require.NoError(t, tr.Insert(27, 27))

	root3, err := node.Load(tr.Store, tr.RootID)
	require.NoError(t, err)
	require.Equal(t, []float64{25, 30}, root3.Keys)
	require.Len(t, root3.ChildIDs, 3)

	c0, err := node.Load(tr.Store, root3.ChildIDs[0])
	require.NoError(t, err)
	require.Equal(t, []float64{10, 20}, c0.Keys)
	c1, err := node.Load(tr.Store, root3.ChildIDs[1])
	require.NoError(t, err)
	require.Equal(t, []float64{25, 26, 27}, c1.Keys)
	c2, err := node.Load(tr.Store, root3.ChildIDs[2])
	require.NoError(t, err)
	require.Equal(t, []float64{30, 40, 50}, c2.Keys)
}

func buildScenario3Tree(t *testing.T) *Tree {
	tr := newTestTree(t, 2)
	insertAll(t, tr, []float64{10, 20, 30, 40, 50, 25, 26, 27})
	return tr
}

// Scenario 4: point_query(25) returns exactly one record.
func TestScenario4PointQuery(t *testing.T) {
	tr := buildScenario3Tree(t)
	recs, err := tr.PointQuery(25)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 25.0, recs[0].Key)
}

// Scenario 5: window_query(20, 30) returns {20,25,26,27,30} ascending.
func TestScenario5WindowQuery(t *testing.T) {
	tr := buildScenario3Tree(t)
	recs, err := tr.WindowQuery(20, 30)
	require.NoError(t, err)
	require.Equal(t, []float64{20, 25, 26, 27, 30}, keysOf(recs))
}

// Scenario 6: knn_query(28, 3) returns {27,30,26} in that order.
func TestScenario6KNNQuery(t *testing.T) {
	tr := buildScenario3Tree(t)
	recs, err := tr.KNNQuery(28, 3)
	require.NoError(t, err)
	require.Equal(t, []float64{27, 30, 26}, keysOf(recs))
}

func TestWindowQueryUnboundedReturnsEveryKey(t *testing.T) {
	tr := newTestTree(t, 2)
	keys := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0, 12, 11, 10}
	insertAll(t, tr, keys)

	recs, err := tr.WindowQuery(math.Inf(-1), math.Inf(1))
	require.NoError(t, err)
	require.Len(t, recs, len(keys))

	got := keysOf(recs)
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1], got[i])
	}
}

func TestRangeQueryClampsAtZero(t *testing.T) {
	tr := newTestTree(t, 2)
	insertAll(t, tr, []float64{0, 1, 2, 3, 10})

	recs, err := tr.RangeQuery(1, 5) // would be [-4, 6] unclamped
	require.NoError(t, err)
	for _, r := range recs {
		require.GreaterOrEqual(t, r.Key, 0.0)
	}
	require.Equal(t, []float64{0, 1, 2, 3}, keysOf(recs))
}

func TestKNNQueryLargerThanTreeReturnsEverything(t *testing.T) {
	tr := newTestTree(t, 2)
	keys := []float64{1, 2, 3, 4, 5}
	insertAll(t, tr, keys)

	recs, err := tr.KNNQuery(3, 100)
	require.NoError(t, err)
	require.Len(t, recs, len(keys))
}

func TestWindowQuerySingletonAtEqualBounds(t *testing.T) {
	tr := newTestTree(t, 2)
	insertAll(t, tr, []float64{1, 2, 2, 2, 3})

	recs, err := tr.WindowQuery(2, 2)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		require.Equal(t, 2.0, r.Key)
	}
}

func TestDuplicateInsertIsRetrievableTwice(t *testing.T) {
	tr := newTestTree(t, 2)
	require.NoError(t, tr.Insert(7, 100))
	require.NoError(t, tr.Insert(7, 101))

	recs, err := tr.PointQuery(7)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestLeafChainVisitsAllLeavesInAscendingOrder(t *testing.T) {
	tr := newTestTree(t, 2)
	keys := []float64{40, 10, 30, 20, 60, 50, 70, 80, 90, 15, 25, 35, 45}
	insertAll(t, tr, keys)

	// Find the leftmost leaf by descending via the minimum key.
	leaf, err := tr.descendToLeaf(math.Inf(-1))
	require.NoError(t, err)

	var seen []float64
	for {
		seen = append(seen, leaf.Keys...)
		if leaf.NextLeafID == -1 {
			break
		}
		leaf, err = node.Load(tr.Store, leaf.NextLeafID)
		require.NoError(t, err)
	}
	require.Len(t, seen, len(keys))
	for i := 1; i < len(seen); i++ {
		require.LessOrEqual(t, seen[i-1], seen[i])
	}
}

func TestInsertUPlusOneKeysProducesTwoLeafChildren(t *testing.T) {
	tr := newTestTree(t, 2) // U = 4
	for i := 0; i < tr.Fanout.U+1; i++ {
		require.NoError(t, tr.Insert(float64(i), int64(i)))
	}
	root, err := node.Load(tr.Store, tr.RootID)
	require.NoError(t, err)
	require.False(t, root.IsLeaf())
	require.Len(t, root.ChildIDs, 2)
	for _, cid := range root.ChildIDs {
		child, err := node.Load(tr.Store, cid)
		require.NoError(t, err)
		require.True(t, child.IsLeaf())
	}
}
