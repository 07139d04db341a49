// Command catalog-bench adapts the teacher's benchmark.go/workload.go
// sweep into a head-to-head comparison: the same ingestion file and query
// stream replayed against the paged catalog.Catalog and a Pebble-backed
// comparison index, reported as per-query latency (SPEC_FULL.md §7).
package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/btree-query-bench/catalog/internal/bench"
	"github.com/btree-query-bench/catalog/internal/catalog"
	"github.com/btree-query-bench/catalog/internal/config"
	"github.com/btree-query-bench/catalog/internal/query"
	"github.com/cockroachdb/errors"
)

func main() {
	configPath := flag.String("config", "bplustree.config", "page-size configuration file")
	dataDir := flag.String("catalog-dir", "bench-data/catalog", "working directory for the paged catalog")
	pebbleDir := flag.String("pebble-dir", "bench-data/pebble", "working directory for the Pebble comparison index")
	ingestPath := flag.String("ingest", "", "(key payload)-per-line ingestion file")
	queryPath := flag.String("queries", "", "query stream file")
	csvPath := flag.String("csv-out", "bench-results.csv", "where to write the comparison CSV")
	flag.Parse()

	if err := run(*configPath, *dataDir, *pebbleDir, *ingestPath, *queryPath, *csvPath); err != nil {
		log.Fatalf("catalog-bench: %v", err)
	}
}

func run(configPath, dataDir, pebbleDir, ingestPath, queryPath, csvPath string) error {
	if ingestPath == "" || queryPath == "" {
		return errors.New("catalog-bench: -ingest and -queries are required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrap(err, "create catalog dir")
	}

	cat, err := catalog.Open(dataDir, cfg.PageSize)
	if err != nil {
		return errors.Wrap(err, "open catalog")
	}
	defer cat.Close()

	pebbleIdx, err := bench.OpenPebble(pebbleDir)
	if err != nil {
		return errors.Wrap(err, "open pebble")
	}
	defer pebbleIdx.Close()

	if err := loadBoth(cat, pebbleIdx, ingestPath); err != nil {
		return errors.Wrap(err, "ingest")
	}

	catResults, err := replay("catalog", cat, queryPath)
	if err != nil {
		return errors.Wrap(err, "replay catalog")
	}
	pebbleResults, err := replay("pebble", pebbleIdx, queryPath)
	if err != nil {
		return errors.Wrap(err, "replay pebble")
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer f.Close()

	all := append(catResults, pebbleResults...)
	if err := bench.WriteCSV(f, all); err != nil {
		return errors.Wrap(err, "write csv")
	}
	log.Printf("catalog-bench: wrote %d samples to %s", len(all), csvPath)
	return nil
}

func loadBoth(cat *catalog.Catalog, pebbleIdx *bench.PebbleIndex, ingestPath string) error {
	f, err := os.Open(ingestPath)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	for sc.Scan() {
		key, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return errors.Wrapf(err, "ingest: key %q is not a number", sc.Text())
		}
		if !sc.Scan() {
			return errors.New("ingest: trailing key with no payload")
		}
		payload := sc.Text()
		if err := cat.Insert(key, payload); err != nil {
			return err
		}
		if err := pebbleIdx.Insert(key, payload); err != nil {
			return err
		}
	}
	return sc.Err()
}

func replay(name string, engine query.Engine, queryPath string) ([]bench.Result, error) {
	f, err := os.Open(queryPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return bench.Replay(name, f, engine)
}
