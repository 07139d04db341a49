package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTextIncludesIncrementedCounters(t *testing.T) {
	r := New()
	r.PagesRead.Add(3)
	r.PagesWritten.Inc()
	r.Splits.Inc()
	r.CacheHits.Add(5)
	r.CacheMisses.Inc()
	r.Queries.WithLabelValues("1").Add(2)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))

	out := buf.String()
	require.True(t, strings.Contains(out, "catalog_pages_read_total 3"))
	require.True(t, strings.Contains(out, "catalog_node_splits_total 1"))
	require.True(t, strings.Contains(out, `catalog_queries_total{tag="1"} 2`))
}

func TestWriteTextOnFreshRegistryHasZeroedCounters(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	require.True(t, strings.Contains(buf.String(), "catalog_pages_read_total 0"))
}
