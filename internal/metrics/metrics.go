// Package metrics collects engine counters (pages read/written, splits,
// queries served by tag, cache hits/misses) on a private prometheus
// registry and renders them as text at shutdown (spec.md §6 expansion:
// no HTTP listener, so the network Non-goal holds).
package metrics

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry is the engine's private metric set for one run.
type Registry struct {
	reg *prometheus.Registry

	PagesRead    prometheus.Counter
	PagesWritten prometheus.Counter
	Splits       prometheus.Counter
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	Queries      *prometheus.CounterVec
}

// New builds and registers a fresh counter set.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		PagesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_pages_read_total",
			Help: "Pages read from the page store.",
		}),
		PagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_pages_written_total",
			Help: "Pages written to the page store.",
		}),
		Splits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_node_splits_total",
			Help: "Leaf or internal node splits performed.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Page reads served from the one-page cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Page reads that fell through to disk.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_queries_total",
			Help: "Queries served, partitioned by stream tag.",
		}, []string{"tag"}),
	}

	reg.MustRegister(r.PagesRead, r.PagesWritten, r.Splits, r.CacheHits, r.CacheMisses, r.Queries)
	return r
}

// WriteText renders every collected metric family in the Prometheus text
// exposition format to w.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return errors.Wrap(err, "metrics: gather")
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "metrics: encode")
		}
	}
	_, err = w.Write(buf.Bytes())
	return errors.Wrap(err, "metrics: write")
}
