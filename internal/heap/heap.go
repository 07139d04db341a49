// Package heap implements the append-only record heap: one payload per
// line, addressed by zero-based line index.
package heap

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// ID is the zero-based line index of a payload in the heap.
type ID = int64

// Heap is an append-only text file of payload strings. It does not support
// update or delete (spec.md §4.2); payloads must not contain newlines.
type Heap struct {
	file   *os.File
	nextID ID
}

// Open opens (or creates) the heap file at path, counting existing lines to
// establish the next record id.
func Open(path string) (*Heap, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "heap: open")
	}

	n, err := countLines(path)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Heap{file: f, nextID: n}, nil
}

func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "heap: count lines")
	}
	defer f.Close()

	var n int64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, errors.Wrap(err, "heap: count lines")
	}
	return n, nil
}

// Rebind sets the allocator cursor explicitly, used when a session page
// disagrees with the file's own line count (spec.md §4.6).
func (h *Heap) Rebind(nextID ID) {
	h.nextID = nextID
}

// NextID reports the id the next Append call will return.
func (h *Heap) NextID() ID { return h.nextID }

// Append writes payload+"\n" and returns the pre-append line count.
func (h *Heap) Append(payload string) (ID, error) {
	id := h.nextID
	if _, err := h.file.WriteString(payload + "\n"); err != nil {
		return 0, errors.Wrap(err, "heap: append")
	}
	h.nextID++
	return id, nil
}

// Fetch reads the record-id-th line of the heap.
func (h *Heap) Fetch(id ID) (string, error) {
	if id < 0 {
		return "", errors.Newf("heap: negative record id %d", id)
	}
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "heap: seek")
	}
	sc := bufio.NewScanner(h.file)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var i ID
	for sc.Scan() {
		if i == id {
			return sc.Text(), nil
		}
		i++
	}
	if err := sc.Err(); err != nil {
		return "", errors.Wrap(err, "heap: fetch")
	}
	return "", errors.Newf("heap: record %d not found", id)
}

// Close closes the underlying file.
func (h *Heap) Close() error {
	return errors.Wrap(h.file.Close(), "heap: close")
}
