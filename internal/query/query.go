// Package query parses and runs the whitespace-separated query stream
// against a catalog (spec.md §6): each line begins with an integer tag,
// the remaining tokens are tag-specific arguments.
package query

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/btree-query-bench/catalog/internal/catalog"
	"github.com/cockroachdb/errors"
)

const (
	tagInsert = 0
	tagPoint  = 1
	tagRange  = 2
	tagKNN    = 3
	tagWindow = 4
)

// rangeScale is the domain convention scaling a raw "range" token down to a
// query radius (spec.md §6, Open Question #4). It belongs here, at the
// dispatch boundary, and nowhere inside the tree algorithms themselves.
const rangeScale = 0.1

// Engine is anything the dispatcher can drive: the real catalog.Catalog, or
// a comparison backend such as internal/bench's Pebble wrapper.
type Engine interface {
	Insert(key float64, payload string) error
	PointQuery(k float64) ([]catalog.Result, error)
	WindowQuery(lo, hi float64) ([]catalog.Result, error)
	RangeQuery(center, radius float64) ([]catalog.Result, error)
	KNNQuery(center float64, k int) ([]catalog.Result, error)
}

// Result pairs a query's tag with the hydrated records it produced. A
// skipped (unknown-tag) line is not reported here — Run logs it and moves
// on, per the query-input-error handling in spec.md §7.
type Result struct {
	Tag     int
	Records []catalog.Result
}

// Skip is invoked once per query line that could not be parsed or carried
// an unknown tag, so the harness can log it without Run itself taking a
// logging dependency.
type Skip struct {
	Line   int
	Reason string
}

// Run streams queries from r against cat, calling onResult for every
// successfully dispatched query and onSkip for every malformed or
// unrecognised one. It stops at end of input (spec.md §7: EOF ends the
// phase normally) or at the first store-level error.
func Run(r io.Reader, cat Engine, onResult func(Result), onSkip func(Skip)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		ws := bufio.NewScanner(strings.NewReader(sc.Text()))
		ws.Split(bufio.ScanWords)
		if !ws.Scan() {
			continue
		}
		tagTok := ws.Text()
		tag, err := strconv.Atoi(tagTok)
		if err != nil {
			onSkip(Skip{Line: line, Reason: fmt.Sprintf("tag %q is not an integer", tagTok)})
			continue
		}

		switch tag {
		case tagInsert:
			key, payload, ok := readKeyPayload(ws)
			if !ok {
				onSkip(Skip{Line: line, Reason: "insert: expected key and payload"})
				continue
			}
			if err := cat.Insert(key, payload); err != nil {
				return errors.Wrapf(err, "query line %d: insert", line)
			}
			onResult(Result{Tag: tag})

		case tagPoint:
			key, ok := readFloat(ws)
			if !ok {
				onSkip(Skip{Line: line, Reason: "point query: expected key"})
				continue
			}
			recs, err := cat.PointQuery(key)
			if err != nil {
				return errors.Wrapf(err, "query line %d: point query", line)
			}
			onResult(Result{Tag: tag, Records: recs})

		case tagRange:
			center, rng, ok := readTwoFloats(ws)
			if !ok {
				onSkip(Skip{Line: line, Reason: "range query: expected key and range"})
				continue
			}
			recs, err := cat.RangeQuery(center, rng*rangeScale)
			if err != nil {
				return errors.Wrapf(err, "query line %d: range query", line)
			}
			onResult(Result{Tag: tag, Records: recs})

		case tagKNN:
			center, kf, ok := readTwoFloats(ws)
			if !ok {
				onSkip(Skip{Line: line, Reason: "knn query: expected key and k"})
				continue
			}
			recs, err := cat.KNNQuery(center, int(kf))
			if err != nil {
				return errors.Wrapf(err, "query line %d: knn query", line)
			}
			onResult(Result{Tag: tag, Records: recs})

		case tagWindow:
			lo, hi, ok := readTwoFloats(ws)
			if !ok {
				onSkip(Skip{Line: line, Reason: "window query: expected lo and hi"})
				continue
			}
			recs, err := cat.WindowQuery(lo, hi)
			if err != nil {
				return errors.Wrapf(err, "query line %d: window query", line)
			}
			onResult(Result{Tag: tag, Records: recs})

		default:
			onSkip(Skip{Line: line, Reason: fmt.Sprintf("unknown tag %d", tag)})
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "query: scan")
	}
	return nil
}

func readFloat(sc *bufio.Scanner) (float64, bool) {
	if !sc.Scan() {
		return 0, false
	}
	v, err := strconv.ParseFloat(sc.Text(), 64)
	return v, err == nil
}

func readTwoFloats(sc *bufio.Scanner) (a, b float64, ok bool) {
	a, ok = readFloat(sc)
	if !ok {
		return 0, 0, false
	}
	b, ok = readFloat(sc)
	return a, b, ok
}

func readKeyPayload(sc *bufio.Scanner) (key float64, payload string, ok bool) {
	key, ok = readFloat(sc)
	if !ok {
		return 0, "", false
	}
	if !sc.Scan() {
		return 0, "", false
	}
	return key, sc.Text(), true
}
