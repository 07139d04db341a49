package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendReturnsLineIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.heap")
	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	id0, err := h.Append("alpha")
	require.NoError(t, err)
	require.Equal(t, ID(0), id0)

	id1, err := h.Append("beta")
	require.NoError(t, err)
	require.Equal(t, ID(1), id1)
}

func TestFetchReturnsAppendedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.heap")
	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	id, err := h.Append("payload-42")
	require.NoError(t, err)

	got, err := h.Fetch(id)
	require.NoError(t, err)
	require.Equal(t, "payload-42", got)
}

func TestDuplicateAppendsYieldDistinctIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.heap")
	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	id1, err := h.Append("same")
	require.NoError(t, err)
	id2, err := h.Append("same")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	v1, err := h.Fetch(id1)
	require.NoError(t, err)
	v2, err := h.Fetch(id2)
	require.NoError(t, err)
	require.Equal(t, "same", v1)
	require.Equal(t, "same", v2)
}

func TestReopenCountsExistingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.heap")
	h1, err := Open(path)
	require.NoError(t, err)
	_, err = h1.Append("a")
	require.NoError(t, err)
	_, err = h1.Append("b")
	require.NoError(t, err)
	require.NoError(t, h1.Close())

	h2, err := Open(path)
	require.NoError(t, err)
	defer h2.Close()
	require.Equal(t, ID(2), h2.NextID())

	id, err := h2.Append("c")
	require.NoError(t, err)
	require.Equal(t, ID(2), id)
}

func TestFetchUnknownRecordErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.heap")
	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Fetch(5)
	require.Error(t, err)
}
