// Package pager implements the content-addressed page store: a single data
// file addressed by page id, with a one-page write-through cache in front of it
// (spec.md §5: "the cache-of-one strategy is to rely on the OS page cache").
package pager

import (
	"os"

	"github.com/btree-query-bench/catalog/internal/metrics"
	"github.com/cockroachdb/errors"
)

// ID identifies a page. Allocation is monotonic and ids are never reused.
type ID = int64

// Page is one fixed-size block of the store. Its length is always the
// store's configured page size.
type Page []byte

// Store owns a single data file of fixed-size pages, plus a one-page cache
// of the most recently touched page. The store is single-writer: two
// processes must not open the same file (spec.md §5).
type Store struct {
	file       *os.File
	pageSize   int
	nextPageID ID
	cachedID   ID
	cachedPage Page
	hasCache   bool
	metrics    *metrics.Registry
}

// SetMetrics attaches a registry that Read/Write/Allocate report counters
// into. Optional — a nil registry (the default) disables instrumentation.
func (s *Store) SetMetrics(r *metrics.Registry) {
	s.metrics = r
}

// Open opens (or creates) a page store backed by path. pageSize is fixed for
// the life of the store (spec.md §3 invariant) and must already have been
// validated by the config layer.
func Open(path string, pageSize int) (*Store, error) {
	if pageSize <= 0 {
		return nil, errors.Newf("pager: invalid page size %d", pageSize)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "pager: open")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "pager: stat")
	}

	s := &Store{
		file:     f,
		pageSize: pageSize,
	}

	s.nextPageID = info.Size() / int64(pageSize)
	return s, nil
}

// PageSize reports the fixed page size for this store.
func (s *Store) PageSize() int { return s.pageSize }

// Allocate reserves a new page id larger than all ids previously returned by
// this store and materializes a blank page on disk for it.
func (s *Store) Allocate() (ID, error) {
	id := s.nextPageID
	s.nextPageID++
	blank := make(Page, s.pageSize)
	if err := s.writeToDisk(id, blank); err != nil {
		return 0, err
	}
	return id, nil
}

// Rebind sets the allocator cursor explicitly, used when a session page is
// loaded at startup (spec.md §4.6).
func (s *Store) Rebind(nextPageID ID) {
	s.nextPageID = nextPageID
}

// NextPageID reports the id that the next Allocate call will return, for the
// session page to persist.
func (s *Store) NextPageID() ID { return s.nextPageID }

// Read returns the page with the given id, from the one-page cache or disk.
// The returned slice must not be retained past the next Write of the same
// id — callers that mutate must do so on this slice and then Write it back.
//
// Only the single most recently touched page is cached: the tree-level
// algorithms repeatedly reload the same page during one logical operation
// (a split walking back up the parent chain, a query re-landing on the same
// leaf), and that is the only repetition this single-process, single-writer
// engine actually exhibits (spec.md §5) — anything colder is left to the OS
// page cache rather than reimplemented here.
func (s *Store) Read(id ID) (Page, error) {
	if s.hasCache && s.cachedID == id {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return s.cachedPage, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
	pg, err := s.readFromDisk(id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PagesRead.Inc()
	}
	s.cachedID, s.cachedPage, s.hasCache = id, pg, true
	return pg, nil
}

// Write commits a page back to disk and updates the cache. Every mutated
// node must be committed this way before its in-memory value is released
// (spec.md §5).
func (s *Store) Write(id ID, pg Page) error {
	if len(pg) != s.pageSize {
		return errors.Newf("pager: write page %d: expected %d bytes, got %d", id, s.pageSize, len(pg))
	}
	s.cachedID, s.cachedPage, s.hasCache = id, pg, true
	if err := s.writeToDisk(id, pg); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.PagesWritten.Inc()
	}
	return nil
}

// Close closes the underlying file. Every Write has already gone to disk, so
// there is nothing buffered to flush.
func (s *Store) Close() error {
	return errors.Wrap(s.file.Close(), "pager: close")
}

func (s *Store) offset(id ID) int64 {
	return id * int64(s.pageSize)
}

func (s *Store) readFromDisk(id ID) (Page, error) {
	pg := make(Page, s.pageSize)
	if _, err := s.file.ReadAt(pg, s.offset(id)); err != nil {
		return nil, errors.Wrapf(err, "pager: read page %d", id)
	}
	return pg, nil
}

func (s *Store) writeToDisk(id ID, pg Page) error {
	if _, err := s.file.WriteAt(pg, s.offset(id)); err != nil {
		return errors.Wrapf(err, "pager: write page %d", id)
	}
	return nil
}
