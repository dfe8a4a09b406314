package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// CSVOptions controls how LoadCSV interprets a file.
type CSVOptions struct {
	// TargetColumn is the target column index; negative counts from the end
	// (-1 is the last column).
	TargetColumn int

	// HasHeader forces header handling. When AutoHeader is true this field
	// is ignored and the first row is probed instead.
	HasHeader bool

	// AutoHeader treats the first row as a header if any cell fails to
	// parse as a number.
	AutoHeader bool

	// Comma is the field delimiter; zero value means ','.
	Comma rune
}

// DefaultCSVOptions targets the last column and probes for a header.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{TargetColumn: -1, AutoHeader: true}
}

// LoadCSV reads a numeric CSV file into a Dataset. Every non-target column
// becomes a feature; non-numeric data is an error, not a skip.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadCSV: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("LoadCSV", "empty file", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "LoadCSV: read")
	}

	nCols := len(first)
	target := opts.TargetColumn
	if target < 0 {
		target = nCols + target
	}
	if target < 0 || target >= nCols {
		return nil, errors.NewValidationError("TargetColumn", "out of range", opts.TargetColumn)
	}

	header := opts.HasHeader
	if opts.AutoHeader {
		header = false
		for _, cell := range first {
			if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
				header = true
				break
			}
		}
	}

	names := make([]string, 0, nCols-1)
	targetName := "target"
	var rows [][]float64

	parseRow := func(record []string, line int) error {
		if len(record) != nCols {
			return errors.NewDimensionError("LoadCSV", nCols, len(record), 1)
		}
		row := make([]float64, nCols)
		for i, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return errors.Wrapf(err, "LoadCSV: line %d column %d", line, i)
			}
			row[i] = v
		}
		rows = append(rows, row)
		return nil
	}

	line := 1
	if header {
		for i, name := range first {
			if i == target {
				targetName = strings.TrimSpace(name)
				continue
			}
			names = append(names, strings.TrimSpace(name))
		}
	} else {
		for i := 0; i < nCols; i++ {
			if i != target {
				names = append(names, "x"+strconv.Itoa(i))
			}
		}
		if err := parseRow(first, line); err != nil {
			return nil, err
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "LoadCSV: read")
		}
		line++
		if err := parseRow(record, line); err != nil {
			return nil, err
		}
	}

	if len(rows) == 0 {
		return nil, errors.NewModelError("LoadCSV", "no data rows", errors.ErrEmptyData)
	}

	n := len(rows)
	X := mat.NewDense(n, nCols-1, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range rows {
		col := 0
		for j, v := range row {
			if j == target {
				y.SetVec(i, v)
				continue
			}
			X.Set(i, col, v)
			col++
		}
	}

	ds := &Dataset{X: X, Y: y, FeatureNames: names, Target: targetName}
	if err := ds.validate("LoadCSV"); err != nil {
		return nil, err
	}
	return ds, nil
}
