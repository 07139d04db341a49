// Package diagnostics renders a bar chart of per-leaf occupancy across the
// leaf chain, the gonum/plot replacement for the teacher's
// graphviz-via-exec.Command tree dump (SPEC_FULL.md §7).
package diagnostics

import (
	"fmt"
	"image/color"

	"github.com/btree-query-bench/catalog/internal/node"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// LeafOccupancy walks the leaf chain starting at the given leaf id and
// returns the key count of each leaf in chain order.
func LeafOccupancy(ps node.PageStore, firstLeafID node.ID) ([]int, error) {
	var counts []int
	id := firstLeafID
	for id != node.NoneID {
		n, err := node.Load(ps, id)
		if err != nil {
			return nil, err
		}
		if !n.IsLeaf() {
			return nil, errors.Newf("diagnostics: page %d is not a leaf", id)
		}
		counts = append(counts, len(n.Keys))
		id = n.NextLeafID
	}
	return counts, nil
}

// LeftmostLeaf descends the leftmost spine from root to find the first leaf
// in chain order.
func LeftmostLeaf(ps node.PageStore, rootID node.ID) (node.ID, error) {
	id := rootID
	for {
		n, err := node.Load(ps, id)
		if err != nil {
			return node.NoneID, err
		}
		if n.IsLeaf() {
			return id, nil
		}
		id = n.ChildIDs[0]
	}
}

// ChartLeafOccupancy renders occupancy (one bar per leaf, in chain order)
// to a PNG at path.
func ChartLeafOccupancy(occupancy []int, fanoutU int, path string) error {
	p := plot.New()
	p.Title.Text = "leaf occupancy"
	p.Y.Label.Text = "keys"
	p.X.Label.Text = "leaf (chain order)"

	values := make(plotter.Values, len(occupancy))
	labels := make([]string, len(occupancy))
	for i, c := range occupancy {
		values[i] = float64(c)
		labels[i] = fmt.Sprintf("%d", i)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return errors.Wrap(err, "diagnostics: new bar chart")
	}
	bars.Color = color.RGBA{R: 77, G: 144, B: 194, A: 255}
	p.Add(bars)
	p.NominalX(labels...)

	p.Y.Max = float64(fanoutU) + 1

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "diagnostics: save chart")
	}
	return nil
}
