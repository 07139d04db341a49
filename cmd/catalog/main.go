// Command catalog is the harness: it loads configuration, bulk-loads an
// ingestion file or reopens a prior session, replays a query stream against
// the tree, and writes results to stdout (spec.md §6–7).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/btree-query-bench/catalog/internal/catalog"
	"github.com/btree-query-bench/catalog/internal/config"
	"github.com/btree-query-bench/catalog/internal/metrics"
	"github.com/btree-query-bench/catalog/internal/query"
	"github.com/cockroachdb/errors"
)

func main() {
	configPath := flag.String("config", "bplustree.config", "page-size configuration file")
	dataDir := flag.String("data", "data", "directory holding the page store, record heap, and session page")
	ingestPath := flag.String("ingest", "", "optional (key payload)-per-line ingestion file")
	queryPath := flag.String("queries", "", "query stream file")
	metricsPath := flag.String("metrics-out", "", "optional path to dump Prometheus text metrics on exit")
	chartPath := flag.String("chart", "", "optional path to write a leaf-occupancy PNG chart on exit")
	flag.Parse()

	if err := run(*configPath, *dataDir, *ingestPath, *queryPath, *metricsPath, *chartPath); err != nil {
		log.Fatalf("catalog: %v", err)
	}
}

func run(configPath, dataDir, ingestPath, queryPath, metricsPath, chartPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	cat, err := catalog.Open(dataDir, cfg.PageSize)
	if err != nil {
		return errors.Wrap(err, "open catalog")
	}
	defer func() {
		if err := cat.Close(); err != nil {
			log.Printf("catalog: close: %v", err)
		}
	}()

	reg := metrics.New()
	cat.AttachMetrics(reg)

	if ingestPath != "" {
		if err := ingest(cat, ingestPath); err != nil {
			return errors.Wrap(err, "ingest")
		}
	}

	if queryPath != "" {
		if err := runQueries(cat, queryPath, reg); err != nil {
			return errors.Wrap(err, "run queries")
		}
	}

	if metricsPath != "" {
		f, err := os.Create(metricsPath)
		if err != nil {
			return errors.Wrap(err, "create metrics file")
		}
		defer f.Close()
		if err := reg.WriteText(f); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}

	if chartPath != "" {
		if err := cat.WriteLeafOccupancyChart(chartPath); err != nil {
			return errors.Wrap(err, "write leaf occupancy chart")
		}
	}

	return nil
}

func ingest(cat *catalog.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open ingestion file")
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	count := 0
	for sc.Scan() {
		keyTok := sc.Text()
		key, err := strconv.ParseFloat(keyTok, 64)
		if err != nil {
			return errors.Wrapf(err, "ingest: key %q is not a number", keyTok)
		}
		if !sc.Scan() {
			return errors.New("ingest: trailing key with no payload")
		}
		if err := cat.Insert(key, sc.Text()); err != nil {
			return errors.Wrap(err, "ingest: insert")
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "ingest: scan")
	}
	log.Printf("catalog: ingested %d records from %s", count, path)
	return sc.Err()
}

func runQueries(cat *catalog.Catalog, path string, reg *metrics.Registry) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open query stream")
	}
	defer f.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	return query.Run(f, cat, func(r query.Result) {
		reg.Queries.WithLabelValues(strconv.Itoa(r.Tag)).Inc()
		if r.Records == nil {
			return
		}
		parts := make([]string, len(r.Records))
		for i, rec := range r.Records {
			parts[i] = fmt.Sprintf("%g:%s", rec.Key, rec.Payload)
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
	}, func(s query.Skip) {
		fmt.Fprintf(os.Stderr, "catalog: query line %d skipped: %s\n", s.Line, s.Reason)
	})
}
