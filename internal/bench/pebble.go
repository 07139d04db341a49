// Package bench adapts the teacher's Pebble-backed LSM comparison index
// (dbms/index/lsm/lsm.go) to the catalog's float64-keyed record model, so
// the same query stream can be replayed against both storage engines
// (SPEC_FULL.md §7).
package bench

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/btree-query-bench/catalog/internal/catalog"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// PebbleIndex is a comparison backend built on Pebble, an LSM engine, with
// the same operations the query dispatcher expects of a catalog.Catalog.
type PebbleIndex struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble database at dir, matching the
// teacher's memtable/compaction tuning.
func OpenPebble(dir string) (*PebbleIndex, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrap(err, "bench: pebble open")
	}
	return &PebbleIndex{db: db}, nil
}

// Close shuts Pebble down, flushing any in-memory state.
func (p *PebbleIndex) Close() error {
	return errors.Wrap(p.db.Close(), "bench: pebble close")
}

// Insert stores payload under key. Unlike the paged catalog, Pebble is a
// map: a later insert of a duplicate key overwrites rather than appending,
// a known divergence from the catalog's multiset semantics (see DESIGN.md).
func (p *PebbleIndex) Insert(key float64, payload string) error {
	return errors.Wrap(p.db.Set(encodeKey(key), []byte(payload), pebble.NoSync), "bench: pebble set")
}

// PointQuery returns zero or one record for key (Pebble has no duplicates).
func (p *PebbleIndex) PointQuery(key float64) ([]catalog.Result, error) {
	val, closer, err := p.db.Get(encodeKey(key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "bench: pebble get")
	}
	payload := string(val)
	closer.Close()
	return []catalog.Result{{Key: key, Payload: payload}}, nil
}

// WindowQuery returns every record whose key lies in [lo, hi], ascending.
func (p *PebbleIndex) WindowQuery(lo, hi float64) ([]catalog.Result, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: encodeKey(lo),
		UpperBound: encodeKeyExclusive(hi),
	})
	if err != nil {
		return nil, errors.Wrap(err, "bench: pebble range")
	}
	defer iter.Close()

	var out []catalog.Result
	for iter.First(); iter.Valid(); iter.Next() {
		out = append(out, catalog.Result{
			Key:     decodeKey(iter.Key()),
			Payload: string(iter.Value()),
		})
	}
	return out, errors.Wrap(iter.Error(), "bench: pebble iterate")
}

// RangeQuery mirrors catalog.Catalog.RangeQuery's zero-clamped window.
func (p *PebbleIndex) RangeQuery(center, radius float64) ([]catalog.Result, error) {
	lo := center - radius
	if lo < 0 {
		lo = 0
	}
	return p.WindowQuery(lo, center+radius)
}

// KNNQuery scans a window around center, doubling its radius from 1 until k
// candidates are found or 32 windows have been tried (records farther than
// the last radius are not seen), then sorts by distance — Pebble has
// no leaf chain to walk, so this is the closest analogue available to an
// LSM engine (see DESIGN.md).
func (p *PebbleIndex) KNNQuery(center float64, k int) ([]catalog.Result, error) {
	if k <= 0 {
		return nil, nil
	}
	radius := 1.0
	var candidates []catalog.Result
	for i := 0; i < 32; i++ {
		recs, err := p.RangeQuery(center, radius)
		if err != nil {
			return nil, err
		}
		if len(recs) >= k {
			candidates = recs
			break
		}
		candidates = recs
		radius *= 2
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return math.Abs(candidates[a].Key-center) < math.Abs(candidates[b].Key-center)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// encodeKey encodes a non-negative float64 key as a sortable 8-byte
// big-endian slice. IEEE-754 bit patterns for non-negative floats increase
// monotonically with value, so lexical and numeric order coincide — the
// float analogue of the teacher's int64 big-endian key encoding.
func encodeKey(k float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(k))
	return b
}

func decodeKey(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// encodeKeyExclusive returns the exclusive upper bound for Pebble's
// UpperBound option (our interface treats hi as inclusive).
func encodeKeyExclusive(k float64) []byte {
	return encodeKey(math.Nextafter(k, math.Inf(1)))
}
