package catalog

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenBootstrapsEmptyTree(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 256)
	require.NoError(t, err)
	defer cat.Close()

	got, err := cat.WindowQuery(0, 100)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestInsertThenPointQueryRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 256)
	require.NoError(t, err)
	defer cat.Close()

	require.NoError(t, cat.Insert(10, "ten"))
	require.NoError(t, cat.Insert(20, "twenty"))

	got, err := cat.PointQuery(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, Result{Key: 10, Payload: "ten"}, got[0])
}

func TestCloseThenReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 256)
	require.NoError(t, err)
	cat.WithFanoutOverride(2)

	for i := 0; i < 20; i++ {
		require.NoError(t, cat.Insert(float64(i), fmt.Sprintf("v%d", i)))
	}
	require.NoError(t, cat.Close())

	reopened, err := Open(dir, 256)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.WindowQuery(0, 19)
	require.NoError(t, err)
	require.Len(t, got, 20)

	for i := 0; i < 20; i++ {
		require.NoError(t, reopened.Insert(float64(100+i), fmt.Sprintf("w%d", i)))
	}
	got, err = reopened.WindowQuery(0, 119)
	require.NoError(t, err)
	require.Len(t, got, 40)
}

func TestRangeAndKNNQueriesHydratePayloads(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(dir, 256)
	require.NoError(t, err)
	cat.WithFanoutOverride(2)
	defer cat.Close()

	keys := []float64{10, 20, 25, 27, 30, 35, 40}
	for _, k := range keys {
		require.NoError(t, cat.Insert(k, fmt.Sprintf("p%d", int(k))))
	}

	rangeGot, err := cat.RangeQuery(28, 5)
	require.NoError(t, err)
	require.Len(t, rangeGot, 3) // 25, 27, 30

	knnGot, err := cat.KNNQuery(28, 3)
	require.NoError(t, err)
	require.Len(t, knnGot, 3)
	require.Equal(t, "p27", knnGot[0].Payload)
}

func TestOpenRejectsUnwritableDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "nested"), 256)
	require.Error(t, err)
}
