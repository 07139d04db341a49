// Package catalog wires the page store, record heap, node codec/operations,
// tree, and session into the single open/close unit the harness drives
// (spec.md §4.7). It is the module's equivalent of the teacher's BPTree
// type, split along the spec's component boundaries.
package catalog

import (
	"path/filepath"

	"github.com/btree-query-bench/catalog/internal/diagnostics"
	"github.com/btree-query-bench/catalog/internal/heap"
	"github.com/btree-query-bench/catalog/internal/metrics"
	"github.com/btree-query-bench/catalog/internal/node"
	"github.com/btree-query-bench/catalog/internal/pager"
	"github.com/btree-query-bench/catalog/internal/session"
	"github.com/btree-query-bench/catalog/internal/tree"
	"github.com/cockroachdb/errors"
)

const (
	pagesFileName   = "pages.db"
	heapFileName    = "records.heap"
	sessionFileName = "session.page"
)

// Result is a hydrated (key, payload) pair returned to a caller — the
// tree.Record's RecordID has already been resolved against the heap.
type Result struct {
	Key     float64
	Payload string
}

// Catalog is the three co-located on-disk artifacts (spec.md §6) plus the
// in-memory tree view over them.
type Catalog struct {
	pages   *pager.Store
	records *heap.Heap
	tree    *tree.Tree

	sessionPath string
}

// Open loads the three co-located artifacts under dir, rebinding the
// allocators from a prior session if one exists, or bootstrapping a fresh
// single-leaf tree otherwise (spec.md §4.6).
func Open(dir string, pageSize int) (*Catalog, error) {
	pagesPath := filepath.Join(dir, pagesFileName)
	heapPath := filepath.Join(dir, heapFileName)
	sessionPath := filepath.Join(dir, sessionFileName)

	pages, err := pager.Open(pagesPath, pageSize)
	if err != nil {
		return nil, err
	}
	records, err := heap.Open(heapPath)
	if err != nil {
		pages.Close()
		return nil, err
	}

	fanout, err := node.DeriveFanout(pageSize, 0)
	if err != nil {
		pages.Close()
		records.Close()
		return nil, err
	}

	state, ok, err := session.Load(sessionPath)
	if err != nil {
		pages.Close()
		records.Close()
		return nil, err
	}

	var rootID node.ID
	if ok {
		pages.Rebind(state.NextPageID)
		records.Rebind(state.NextRecordID)
		rootID = state.RootID
	} else {
		rootID, err = pages.Allocate()
		if err != nil {
			pages.Close()
			records.Close()
			return nil, err
		}
		if err := node.Commit(pages, node.NewLeaf(rootID)); err != nil {
			pages.Close()
			records.Close()
			return nil, err
		}
	}

	return &Catalog{
		pages:       pages,
		records:     records,
		tree:        &tree.Tree{Store: pages, Fanout: fanout, RootID: rootID},
		sessionPath: sessionPath,
	}, nil
}

// AttachMetrics wires r into the page store's read/write/cache counters and
// the node package's split counter. Call once, right after Open.
func (c *Catalog) AttachMetrics(r *metrics.Registry) {
	c.pages.SetMetrics(r)
	node.SetSplitCounter(func() { r.Splits.Inc() })
}

// WithFanoutOverride pins L (and U=2L) instead of deriving it from the page
// size, for tests that want to force splits on small trees (spec.md §4.3,
// Open Question #2).
func (c *Catalog) WithFanoutOverride(l int) {
	c.tree.Fanout = node.Fanout{L: l, U: l * 2}
}

// Insert appends payload to the record heap and inserts (key, recordID)
// into the tree.
func (c *Catalog) Insert(key float64, payload string) error {
	recID, err := c.records.Append(payload)
	if err != nil {
		return err
	}
	return c.tree.Insert(key, int64(recID))
}

// PointQuery returns every record whose key equals k.
func (c *Catalog) PointQuery(k float64) ([]Result, error) {
	recs, err := c.tree.PointQuery(k)
	if err != nil {
		return nil, err
	}
	return c.hydrate(recs)
}

// WindowQuery returns every record whose key lies in [lo, hi].
func (c *Catalog) WindowQuery(lo, hi float64) ([]Result, error) {
	recs, err := c.tree.WindowQuery(lo, hi)
	if err != nil {
		return nil, err
	}
	return c.hydrate(recs)
}

// RangeQuery returns every record within radius r of center c (clamped at
// zero on the low end).
func (c *Catalog) RangeQuery(center, radius float64) ([]Result, error) {
	recs, err := c.tree.RangeQuery(center, radius)
	if err != nil {
		return nil, err
	}
	return c.hydrate(recs)
}

// KNNQuery returns the k records nearest to center.
func (c *Catalog) KNNQuery(center float64, k int) ([]Result, error) {
	recs, err := c.tree.KNNQuery(center, k)
	if err != nil {
		return nil, err
	}
	return c.hydrate(recs)
}

func (c *Catalog) hydrate(recs []tree.Record) ([]Result, error) {
	out := make([]Result, len(recs))
	for i, r := range recs {
		payload, err := c.records.Fetch(heap.ID(r.RecordID))
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: fetch record %d", r.RecordID)
		}
		out[i] = Result{Key: r.Key, Payload: payload}
	}
	return out, nil
}

// WriteLeafOccupancyChart renders a bar chart of per-leaf key counts across
// the current leaf chain to a PNG at path, for ad-hoc inspection of split
// behaviour (SPEC_FULL.md §7). It is optional tooling: nothing else in the
// catalog depends on it.
func (c *Catalog) WriteLeafOccupancyChart(path string) error {
	firstLeaf, err := diagnostics.LeftmostLeaf(c.pages, c.tree.RootID)
	if err != nil {
		return errors.Wrap(err, "catalog: find leftmost leaf")
	}
	occupancy, err := diagnostics.LeafOccupancy(c.pages, firstLeaf)
	if err != nil {
		return errors.Wrap(err, "catalog: compute leaf occupancy")
	}
	return errors.Wrap(diagnostics.ChartLeafOccupancy(occupancy, c.tree.Fanout.U, path), "catalog: render chart")
}

// Close writes the session page and closes both underlying files.
func (c *Catalog) Close() error {
	state := session.State{
		RootID:       c.tree.RootID,
		NextPageID:   c.pages.NextPageID(),
		NextRecordID: c.records.NextID(),
	}
	if err := session.Save(c.sessionPath, state); err != nil {
		return err
	}
	if err := c.records.Close(); err != nil {
		return err
	}
	return c.pages.Close()
}
