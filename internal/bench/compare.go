// compare.go adapts the teacher's BenchResult/Record/GetDetailedMem trio
// (benchmark.go) to report per-tag latency and memory footprint for the two
// engines replaying the same query stream.
package bench

import (
	"encoding/csv"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/btree-query-bench/catalog/internal/query"
)

// Result is one reported sample, analogous to the teacher's BenchResult.
type Result struct {
	Engine    string
	Tag       int
	LatencyNs int64
	AllocMB   uint64
}

// MemoryStats mirrors GetDetailedMem's forced-GC snapshot.
type MemoryStats struct {
	AllocMB     uint64
	HeapObjects uint64
}

// Snapshot forces a GC and reads live heap stats, same discipline as the
// teacher's GetDetailedMem.
func Snapshot() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{AllocMB: m.Alloc / 1024 / 1024, HeapObjects: m.HeapObjects}
}

// WriteCSV writes results in the teacher's six-column style, minus the
// columns that don't apply to a two-engine comparison.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{"Engine", "Tag", "LatencyNs", "AllocMB"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{
			r.Engine,
			strconv.Itoa(r.Tag),
			strconv.FormatInt(r.LatencyNs, 10),
			strconv.FormatUint(r.AllocMB, 10),
		}); err != nil {
			return err
		}
	}
	return cw.Error()
}

// Replay drives queryReader against engine, timing each dispatched query and
// tagging the sample with engineName.
func Replay(engineName string, queryReader io.Reader, engine query.Engine) ([]Result, error) {
	var results []Result
	start := time.Now()
	err := query.Run(queryReader, engine, func(r query.Result) {
		results = append(results, Result{
			Engine:    engineName,
			Tag:       r.Tag,
			LatencyNs: time.Since(start).Nanoseconds(),
			AllocMB:   Snapshot().AllocMB,
		})
		start = time.Now()
	}, func(query.Skip) {})
	return results, err
}
