package query

import (
	"strings"
	"testing"

	"github.com/btree-query-bench/catalog/internal/catalog"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(t.TempDir(), 256)
	require.NoError(t, err)
	cat.WithFanoutOverride(2)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func TestRunInsertThenPointQuery(t *testing.T) {
	cat := newTestCatalog(t)
	stream := "0 10 alpha\n0 20 beta\n1 10\n"

	var results []Result
	err := Run(strings.NewReader(stream), cat, func(r Result) { results = append(results, r) }, func(Skip) {
		t.Fatal("unexpected skip")
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, tagPoint, results[2].Tag)
	require.Len(t, results[2].Records, 1)
	require.Equal(t, "alpha", results[2].Records[0].Payload)
}

func TestRunRangeQueryScalesRadius(t *testing.T) {
	cat := newTestCatalog(t)
	for _, k := range []float64{10, 12, 50} {
		require.NoError(t, cat.Insert(k, "x"))
	}

	stream := "2 10 20\n" // radius = 20 * 0.1 = 2, window [8,12]
	var results []Result
	err := Run(strings.NewReader(stream), cat, func(r Result) { results = append(results, r) }, func(Skip) {
		t.Fatal("unexpected skip")
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Records, 2) // keys 10 and 12, not 50
}

func TestRunSkipsUnknownTag(t *testing.T) {
	cat := newTestCatalog(t)
	stream := "9 1 2\n0 5 x\n"

	var skips []Skip
	var results []Result
	err := Run(strings.NewReader(stream), cat,
		func(r Result) { results = append(results, r) },
		func(s Skip) { skips = append(skips, s) },
	)
	require.NoError(t, err)
	require.Len(t, skips, 1)
	require.Equal(t, 1, skips[0].Line)
	require.Len(t, results, 1)
}

func TestRunSkipsMalformedInsert(t *testing.T) {
	cat := newTestCatalog(t)
	stream := "0 notanumber\n"

	var skips []Skip
	err := Run(strings.NewReader(stream), cat, func(Result) {}, func(s Skip) { skips = append(skips, s) })
	require.NoError(t, err)
	require.Len(t, skips, 1)
}

func TestRunKNNQuery(t *testing.T) {
	cat := newTestCatalog(t)
	for _, k := range []float64{20, 25, 26, 27, 30} {
		require.NoError(t, cat.Insert(k, "v"))
	}

	stream := "3 28 3\n"
	var results []Result
	err := Run(strings.NewReader(stream), cat, func(r Result) { results = append(results, r) }, func(Skip) {
		t.Fatal("unexpected skip")
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Records, 3)
}
