// Package session persists the one piece of state a tree needs to reopen
// cleanly across process invocations: the root page id and the two
// process-wide allocator cursors (spec.md §4.6).
package session

import (
	"encoding/binary"
	"os"

	"github.com/btree-query-bench/catalog/internal/node"
	"github.com/cockroachdb/errors"
)

// State is the persisted checkpoint.
type State struct {
	RootID       node.ID
	NextPageID   int64
	NextRecordID int64
}

const wireSize = 8 + 8 + 8

// Load reads a session file. ok is false if the file does not exist yet —
// that is a normal "first run" condition, not an error (spec.md §4.6).
func Load(path string) (state State, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, errors.Wrap(err, "session: read")
	}
	if len(data) < wireSize {
		return State{}, false, errors.New("session: truncated session file")
	}
	state.RootID = node.ID(int64(binary.LittleEndian.Uint64(data[0:8])))
	state.NextPageID = int64(binary.LittleEndian.Uint64(data[8:16]))
	state.NextRecordID = int64(binary.LittleEndian.Uint64(data[16:24]))
	return state, true, nil
}

// Save persists the session file, overwriting any prior contents.
func Save(path string, state State) error {
	buf := make([]byte, wireSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(state.RootID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(state.NextPageID))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(state.NextRecordID))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return errors.Wrap(err, "session: write")
	}
	return nil
}
