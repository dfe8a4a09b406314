package bench

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// ComparisonPlot draws a CV-mean versus test-MSE scatter with one labelled
// glyph per approach. Rows without CV statistics are left out of the plot.
func ComparisonPlot(report *Report, path string) error {
	if report == nil || len(report.Rows) == 0 {
		return errors.NewValidationError("report", "must contain at least one row", 0)
	}

	p := plot.New()
	p.Title.Text = "Ensemble comparison"
	p.X.Label.Text = "CV mean MSE"
	p.Y.Label.Text = "test MSE"

	pts := make(plotter.XYs, 0, len(report.Rows))
	labels := make([]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		if math.IsNaN(row.CVMean) || math.IsNaN(row.TestMSE) {
			continue
		}
		pts = append(pts, plotter.XY{X: row.CVMean, Y: row.TestMSE})
		labels = append(labels, row.Name)
	}
	if len(pts) == 0 {
		return errors.NewValidationError("report", "no row has both CV and test statistics", 0)
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "bench: comparison scatter")
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(4)
	scatter.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(scatter)

	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
	if err != nil {
		return errors.Wrap(err, "bench: comparison labels")
	}
	p.Add(lbl)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "bench: save comparison plot")
	}
	return nil
}

// PredictionPlot draws predicted against actual targets for one approach,
// with the identity line for reference.
func PredictionPlot(name string, yTrue, yPred mat.Matrix, path string) error {
	rows, _ := yTrue.Dims()
	predRows, _ := yPred.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "bench: prediction plot")
	}
	if rows != predRows {
		return errors.NewDimensionError("bench.PredictionPlot", rows, predRows, 0)
	}

	p := plot.New()
	p.Title.Text = name + ": predicted vs actual"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, rows)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < rows; i++ {
		a, pr := yTrue.At(i, 0), yPred.At(i, 0)
		pts[i] = plotter.XY{X: a, Y: pr}
		lo = math.Min(lo, math.Min(a, pr))
		hi = math.Max(hi, math.Max(a, pr))
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "bench: prediction scatter")
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.Color = color.RGBA{R: 44, G: 160, B: 44, A: 180}
	p.Add(scatter)

	ident, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "bench: identity line")
	}
	ident.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	ident.LineStyle.Width = vg.Points(1)
	p.Add(ident)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "bench: save prediction plot")
	}
	return nil
}
