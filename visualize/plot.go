// Package visualize renders ROC and precision-recall curves with gonum/plot.
package visualize

import (
	"fmt"
	"image/color"
	"io"

	"github.com/YuminosukeSato/classigo/metrics"
	"github.com/YuminosukeSato/classigo/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Default canvas size used by Save and Write.
const (
	DefaultWidth  = 4 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Series is one named curve on a plot.
type Series struct {
	Name  string
	Curve metrics.Curve
}

// ROC plots one or more ROC curves against the chance diagonal.
// Each legend entry carries the area under its curve.
func ROC(series ...Series) (*plot.Plot, error) {
	p, err := newUnitPlot("ROC", series)
	if err != nil {
		return nil, err
	}
	p.Title.Text = "ROC curve"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.Legend.Left = false
	p.Legend.Top = false

	chance := plotter.NewFunction(func(x float64) float64 { return x })
	chance.XMin, chance.XMax = 0, 1
	chance.Samples = 2
	chance.Color = color.Gray{Y: 128}
	chance.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(chance)
	p.Legend.Add("chance", chance)

	if err := addSeries(p, series, func(c metrics.Curve) string {
		return fmt.Sprintf("AUC = %.3f", c.AUC())
	}); err != nil {
		return nil, err
	}
	fixUnitAxes(p)
	return p, nil
}

// PR plots one or more precision-recall curves.
// Each legend entry carries the average precision of its curve.
func PR(series ...Series) (*plot.Plot, error) {
	p, err := newUnitPlot("PR", series)
	if err != nil {
		return nil, err
	}
	p.Title.Text = "Precision-recall curve"
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.Legend.Top = false

	if err := addSeries(p, series, func(c metrics.Curve) string {
		return fmt.Sprintf("AP = %.3f", c.StepArea())
	}); err != nil {
		return nil, err
	}
	fixUnitAxes(p)
	return p, nil
}

func newUnitPlot(op string, series []Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, errors.NewValueError(op, "no series to plot")
	}
	for i, s := range series {
		if s.Curve.Len() == 0 {
			return nil, errors.NewValueError(op, fmt.Sprintf("series %d (%q) has no points", i, s.Name))
		}
	}
	p := plot.New()
	p.Add(plotter.NewGrid())
	return p, nil
}

func addSeries(p *plot.Plot, series []Series, summary func(metrics.Curve) string) error {
	for i, s := range series {
		line, err := plotter.NewLine(s.Curve)
		if err != nil {
			return errors.Wrapf(err, "series %q", s.Name)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)

		label := summary(s.Curve)
		if s.Name != "" {
			label = s.Name + " (" + label + ")"
		}
		p.Legend.Add(label, line)
	}
	return nil
}

// fixUnitAxes pins both axes to [0, 1]; Add widens them to the data range.
func fixUnitAxes(p *plot.Plot) {
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
}

// Save writes p to path at the default size. The format is taken from the
// file extension (png, svg, pdf, ...).
func Save(p *plot.Plot, path string) error {
	if p == nil {
		return errors.NewValueError("Save", "nil plot")
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "save plot to %s", path)
	}
	return nil
}

// Write renders p in the given format to w at the default size.
func Write(p *plot.Plot, w io.Writer, format string) error {
	if p == nil {
		return errors.NewValueError("Write", "nil plot")
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return errors.Wrapf(err, "render %s plot", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write plot")
	}
	return nil
}
