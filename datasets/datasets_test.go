package datasets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCaliforniaHousing(t *testing.T) {
	// Two rows in the raw StatLib column order: longitude, latitude, age,
	// rooms, bedrooms, population, households, income, house value.
	raw := "-122.23,37.88,41,880,129,322,126,8.3252,452600\n" +
		"-122.22,37.86,21,7099,1106,2401,1138,8.3014,358500\n"
	path := writeFile(t, "cal_housing.data", raw)

	ds, err := LoadCaliforniaHousing(path)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.NumSamples())
	assert.Equal(t, 8, ds.NumFeatures())
	assert.Equal(t, "MedHouseVal", ds.Target)
	assert.Equal(t, californiaFeatureNames, ds.FeatureNames)

	// First row, derived features: MedInc, HouseAge, AveRooms, AveBedrms,
	// Population, AveOccup, Latitude, Longitude.
	assert.InDelta(t, 8.3252, ds.X.At(0, 0), 1e-9)
	assert.InDelta(t, 41, ds.X.At(0, 1), 1e-9)
	assert.InDelta(t, 880.0/126.0, ds.X.At(0, 2), 1e-9)
	assert.InDelta(t, 129.0/126.0, ds.X.At(0, 3), 1e-9)
	assert.InDelta(t, 322, ds.X.At(0, 4), 1e-9)
	assert.InDelta(t, 322.0/126.0, ds.X.At(0, 5), 1e-9)
	assert.InDelta(t, 37.88, ds.X.At(0, 6), 1e-9)
	assert.InDelta(t, -122.23, ds.X.At(0, 7), 1e-9)

	// Target scaled to $100k units.
	assert.InDelta(t, 4.526, ds.Y.AtVec(0), 1e-9)
	assert.InDelta(t, 3.585, ds.Y.AtVec(1), 1e-9)
}

func TestLoadCaliforniaHousingBadColumn(t *testing.T) {
	path := writeFile(t, "bad.data", "1,2,3\n")
	_, err := LoadCaliforniaHousing(path)
	assert.Error(t, err)
}

func TestLoadCSVWithHeader(t *testing.T) {
	path := writeFile(t, "data.csv", "a,b,price\n1,2,10\n3,4,20\n")

	ds, err := LoadCSV(path, DefaultCSVOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, ds.NumSamples())
	assert.Equal(t, []string{"a", "b"}, ds.FeatureNames)
	assert.Equal(t, "price", ds.Target)
	assert.InDelta(t, 10, ds.Y.AtVec(0), 1e-9)
	assert.InDelta(t, 4, ds.X.At(1, 1), 1e-9)
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	path := writeFile(t, "data.csv", "1,2,10\n3,4,20\n")

	ds, err := LoadCSV(path, DefaultCSVOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, ds.NumSamples())
	assert.Equal(t, []string{"x0", "x1"}, ds.FeatureNames)
}

func TestLoadCSVTargetColumn(t *testing.T) {
	path := writeFile(t, "data.csv", "y,a,b\n10,1,2\n20,3,4\n")

	opts := DefaultCSVOptions()
	opts.TargetColumn = 0
	ds, err := LoadCSV(path, opts)
	require.NoError(t, err)

	assert.Equal(t, "y", ds.Target)
	assert.InDelta(t, 20, ds.Y.AtVec(1), 1e-9)
	assert.InDelta(t, 1, ds.X.At(0, 0), 1e-9)
}

func TestLoadCSVRejectsNonNumeric(t *testing.T) {
	path := writeFile(t, "data.csv", "a,b\n1,2\nfoo,4\n")
	_, err := LoadCSV(path, DefaultCSVOptions())
	assert.Error(t, err)
}

func TestMakeRegressionDeterministic(t *testing.T) {
	a, err := MakeRegression(100, 5, 0.5, 7)
	require.NoError(t, err)
	b, err := MakeRegression(100, 5, 0.5, 7)
	require.NoError(t, err)

	assert.Equal(t, 100, a.NumSamples())
	assert.Equal(t, 5, a.NumFeatures())
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Y.AtVec(i), b.Y.AtVec(i), "row %d target differs", i)
	}
}

func TestMakeRegressionValidation(t *testing.T) {
	_, err := MakeRegression(0, 3, 0, 1)
	assert.Error(t, err)
	_, err = MakeRegression(10, 0, 0, 1)
	assert.Error(t, err)
	_, err = MakeRegression(10, 3, -1, 1)
	assert.Error(t, err)
}

func TestSubset(t *testing.T) {
	ds, err := MakeRegression(10, 2, 0, 3)
	require.NoError(t, err)

	sub, err := ds.Subset([]int{9, 0, 4})
	require.NoError(t, err)

	assert.Equal(t, 3, sub.NumSamples())
	assert.Equal(t, ds.Y.AtVec(9), sub.Y.AtVec(0))
	assert.Equal(t, ds.X.At(4, 1), sub.X.At(2, 1))

	_, err = ds.Subset([]int{100})
	assert.Error(t, err)
}

func TestFetchCachesAndDownloads(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "sub", "file.data")

	path, err := Fetch(context.Background(), srv.URL, cache)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, 1, hits)

	// Second call hits the cache, not the server.
	_, err = Fetch(context.Background(), srv.URL, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, srv.URL, filepath.Join(t.TempDir(), "f"))
	assert.Error(t, err)
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "f"))
	assert.Error(t, err)
}
