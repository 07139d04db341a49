package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.page")
	_, ok, err := Load(path)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.page")
	want := State{RootID: 42, NextPageID: 7, NextRecordID: 99}
	require.NoError(t, Save(path, want))

	got, ok, err := Load(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestSaveOverwritesPriorSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.page")
	require.NoError(t, Save(path, State{RootID: 1, NextPageID: 1, NextRecordID: 1}))
	require.NoError(t, Save(path, State{RootID: 2, NextPageID: 5, NextRecordID: 9}))

	got, ok, err := Load(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, State{RootID: 2, NextPageID: 5, NextRecordID: 9}, got)
}
