package bench

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
)

// Report is the ordered result table of one benchmark run.
type Report struct {
	Rows []Row
}

// Summary aggregates test error across all approaches.
type Summary struct {
	Best        string
	BestTestMSE float64
	MeanTestMSE float64
	StdTestMSE  float64
}

// String renders the report as an aligned text table. Missing statistics
// print as "n/a".
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-24s %12s %12s %12s %12s %10s\n",
		"approach", "train MSE", "CV mean", "CV std", "test MSE", "fit [s]")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 24+5*13))

	for _, row := range r.Rows {
		fmt.Fprintf(&b, "%-24s %12s %12s %12s %12s %10.2f\n",
			row.Name,
			cell(row.TrainMSE),
			cell(row.CVMean),
			cell(row.CVStd),
			cell(row.TestMSE),
			row.Seconds)
	}
	return b.String()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.6f", v)
}

// Summary computes aggregate test-error statistics across the rows.
func (r *Report) Summary() Summary {
	s := Summary{Best: "", BestTestMSE: math.Inf(1)}

	testMSEs := make([]float64, 0, len(r.Rows))
	for _, row := range r.Rows {
		if math.IsNaN(row.TestMSE) {
			continue
		}
		testMSEs = append(testMSEs, row.TestMSE)
		if row.TestMSE < s.BestTestMSE {
			s.Best = row.Name
			s.BestTestMSE = row.TestMSE
		}
	}
	if len(testMSEs) == 0 {
		return Summary{Best: "", BestTestMSE: math.NaN(), MeanTestMSE: math.NaN(), StdTestMSE: math.NaN()}
	}

	if m, err := stats.Mean(testMSEs); err == nil {
		s.MeanTestMSE = m
	}
	if len(testMSEs) > 1 {
		if sd, err := stats.StandardDeviationSample(testMSEs); err == nil {
			s.StdTestMSE = sd
		}
	}
	return s
}
