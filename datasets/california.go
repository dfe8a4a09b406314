package datasets

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// CaliforniaHousingURL is the StatLib mirror of the raw cal_housing.data
// file (20640 block groups from the 1990 census).
const CaliforniaHousingURL = "https://raw.githubusercontent.com/ageron/handson-ml/master/datasets/housing/cal_housing.data"

// Raw column order of cal_housing.data.
const (
	rawLongitude = iota
	rawLatitude
	rawHousingMedianAge
	rawTotalRooms
	rawTotalBedrooms
	rawPopulation
	rawHouseholds
	rawMedianIncome
	rawMedianHouseValue
	rawColumns
)

// californiaFeatureNames matches the derived feature set of the scikit-learn
// fetch_california_housing loader.
var californiaFeatureNames = []string{
	"MedInc", "HouseAge", "AveRooms", "AveBedrms",
	"Population", "AveOccup", "Latitude", "Longitude",
}

// LoadCaliforniaHousing parses a local cal_housing.data file into the
// derived feature set used by the scikit-learn loader: per-household rooms,
// bedrooms and occupancy, with the target scaled to units of $100,000.
func LoadCaliforniaHousing(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "LoadCaliforniaHousing: open %s", path)
	}
	defer f.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != rawColumns {
			return nil, errors.NewValueError("LoadCaliforniaHousing",
				"line "+strconv.Itoa(lineNo)+": expected "+strconv.Itoa(rawColumns)+" columns, got "+strconv.Itoa(len(fields)))
		}

		row := make([]float64, rawColumns)
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "LoadCaliforniaHousing: line %d column %d", lineNo, i)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "LoadCaliforniaHousing: scan")
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("LoadCaliforniaHousing", "empty file", errors.ErrEmptyData)
	}

	n := len(rows)
	X := mat.NewDense(n, len(californiaFeatureNames), nil)
	y := mat.NewVecDense(n, nil)

	for i, row := range rows {
		households := row[rawHouseholds]
		if households == 0 {
			// A block group without households carries no per-household
			// statistics; mirror the raw counts instead of dividing by zero.
			households = 1
		}

		X.Set(i, 0, row[rawMedianIncome])
		X.Set(i, 1, row[rawHousingMedianAge])
		X.Set(i, 2, row[rawTotalRooms]/households)
		X.Set(i, 3, row[rawTotalBedrooms]/households)
		X.Set(i, 4, row[rawPopulation])
		X.Set(i, 5, row[rawPopulation]/households)
		X.Set(i, 6, row[rawLatitude])
		X.Set(i, 7, row[rawLongitude])

		// Target in units of $100k, as in the sklearn loader.
		y.SetVec(i, row[rawMedianHouseValue]/100000.0)
	}

	ds := &Dataset{
		X:            X,
		Y:            y,
		FeatureNames: californiaFeatureNames,
		Target:       "MedHouseVal",
	}
	if err := ds.validate("LoadCaliforniaHousing"); err != nil {
		return nil, err
	}
	return ds, nil
}
