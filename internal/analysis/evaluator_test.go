package analysis

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibra/internal/series"
)

func TestGEH(t *testing.T) {
	tests := []struct {
		name      string
		simulated float64
		observed  float64
		want      float64
		defined   bool
	}{
		{"reference pair", 100, 90, math.Sqrt(100.0 / 95.0), true},
		{"equal counts", 50, 50, 0, true},
		{"both zero is undefined", 0, 0, 0, false},
		{"one side zero", 10, 0, math.Sqrt(100.0 / 5.0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defined := GEH(tt.simulated, tt.observed)
			assert.Equal(t, tt.defined, defined)
			if tt.defined {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestGEHReferenceValue(t *testing.T) {
	got, defined := GEH(100, 90)
	require.True(t, defined)
	assert.InDelta(t, 1.0259, got, 1e-4)
}

func TestEvaluateInnerJoinDropsUnmatchedKeys(t *testing.T) {
	sim := series.Series{
		{Station: "G1", Bucket: 0}: 50,
		{Station: "G2", Bucket: 0}: 80, // no observed data for G2
		{Station: "G1", Bucket: 5}: 10, // no observed bucket 5
	}
	obs := series.Series{
		{Station: "G1", Bucket: 0}:  40,
		{Station: "G3", Bucket: 0}:  30, // simulator never reported G3
		{Station: "G1", Bucket: 10}: 12,
	}

	result := Evaluate(sim, obs, DefaultThresholds())

	require.Len(t, result.Records, 1)
	assert.Equal(t, "G1", result.Records[0].Station)
	assert.Equal(t, 0, result.Records[0].Bucket)
}

func TestEvaluateEndToEndExample(t *testing.T) {
	// One station, one bucket: E=50, V=40 gives GEH = sqrt(100/45) ≈ 1.491,
	// which falls below the low threshold and is therefore anomalous under
	// the asymmetric rule.
	sim := series.Series{{Station: "G1", Bucket: 0}: 50}
	obs := series.Series{{Station: "G1", Bucket: 0}: 40}

	result := Evaluate(sim, obs, DefaultThresholds())

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	require.True(t, rec.GEHDefined)
	assert.InDelta(t, 1.491, rec.GEH, 1e-3)
	assert.True(t, rec.Anomalous)
	assert.Equal(t, 1, result.Summary.AnomalyCount)
}

func TestEvaluateUndefinedGEHExcludedFromClassification(t *testing.T) {
	sim := series.Series{{Station: "G1", Bucket: 0}: 0}
	obs := series.Series{{Station: "G1", Bucket: 0}: 0}

	result := Evaluate(sim, obs, DefaultThresholds())

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.False(t, rec.GEHDefined)
	assert.False(t, rec.Anomalous)
	assert.Equal(t, 0, result.Summary.AnomalyCount)
	assert.Equal(t, 0, result.Summary.DefinedGEH)
}

func TestEvaluateAsymmetricThresholds(t *testing.T) {
	tests := []struct {
		name      string
		simulated float64
		observed  float64
		anomalous bool
	}{
		{"geh in band is normal", 400, 300, false},      // geh ≈ 5.345
		{"geh below low is anomalous", 100, 90, true},   // geh ≈ 1.026
		{"geh at high is anomalous", 800, 450, true},    // geh ≈ 14
		{"low side disabled by zero", 100, 90, false},   // thresholds {10, 0}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds := DefaultThresholds()
			if tt.name == "low side disabled by zero" {
				thresholds.Low = 0
			}
			sim := series.Series{{Station: "G1", Bucket: 0}: tt.simulated}
			obs := series.Series{{Station: "G1", Bucket: 0}: tt.observed}

			result := Evaluate(sim, obs, thresholds)

			require.Len(t, result.Records, 1)
			assert.Equal(t, tt.anomalous, result.Records[0].Anomalous)
		})
	}
}

func TestEvaluateSummaryStatistics(t *testing.T) {
	sim := make(series.Series)
	obs := make(series.Series)
	// GEH values 0, 0, 0 for identical pairs plus one known value.
	sim.Add("G1", 0, 100)
	obs.Add("G1", 0, 100)
	sim.Add("G1", 5, 100)
	obs.Add("G1", 5, 90)
	sim.Add("G2", 0, 0)
	obs.Add("G2", 0, 0) // undefined, excluded from stats

	result := Evaluate(sim, obs, DefaultThresholds())

	s := result.Summary
	assert.Equal(t, 3, s.Records)
	assert.Equal(t, 2, s.DefinedGEH)
	assert.Equal(t, 0.0, s.GEHMin)
	assert.InDelta(t, 1.0259, s.GEHMax, 1e-4)
	assert.InDelta(t, s.GEHMax/2, s.GEHMean, 1e-9)
}

func TestEvaluateRecordsSorted(t *testing.T) {
	sim := series.Series{
		{Station: "B", Bucket: 5}: 1,
		{Station: "A", Bucket: 10}: 1,
		{Station: "A", Bucket: 0}: 1,
	}
	obs := series.Series{
		{Station: "B", Bucket: 5}: 1,
		{Station: "A", Bucket: 10}: 1,
		{Station: "A", Bucket: 0}: 1,
	}

	result := Evaluate(sim, obs, DefaultThresholds())

	require.Len(t, result.Records, 3)
	assert.Equal(t, "A", result.Records[0].Station)
	assert.Equal(t, 0, result.Records[0].Bucket)
	assert.Equal(t, 10, result.Records[1].Bucket)
	assert.Equal(t, "B", result.Records[2].Station)
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	sim := series.Series{{Station: "G1", Bucket: 0}: 50}
	obs := series.Series{{Station: "G1", Bucket: 0}: 40}
	result := Evaluate(sim, obs, DefaultThresholds())

	require.NoError(t, WriteArtifacts(dir, result))

	f, err := os.Open(filepath.Join(dir, ComparisonFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "G1", rows[1][0])
	assert.Equal(t, "true", rows[1][5])

	for _, name := range []string{AnomalyFile, SummaryFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err)
	}
}
