package detector

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibra/internal/series"
)

func writeOutput(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStationID(t *testing.T) {
	assert.Equal(t, "G4201", StationID("G4201_lane0"))
	assert.Equal(t, "G4201", StationID("G4201_lane0_aux"))
	assert.Equal(t, "G4201", StationID("G4201"))
}

func TestAggregateSumsLanesIntoStation(t *testing.T) {
	dir := t.TempDir()
	writeOutput(t, dir, "lane0.xml", `<detector>
		<interval begin="0" end="300" count="12"/>
		<interval begin="300" end="600" count="7"/>
	</detector>`)
	writeOutput(t, dir, "lane1.xml", `<detector>
		<interval begin="0" end="300" count="3"/>
	</detector>`)

	defs := []Definition{
		{ID: "G1_0", Lane: "e1_0", File: "lane0.xml"},
		{ID: "G1_1", Lane: "e1_1", File: "lane1.xml"},
	}

	agg := NewAggregator(5, WithLogger(discardLogger()))
	got, skipped, err := agg.Aggregate(context.Background(), dir, defs)

	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, series.Series{
		{Station: "G1", Bucket: 0}: 15,
		{Station: "G1", Bucket: 5}: 7,
	}, got)
}

func TestAggregateBucketGrid(t *testing.T) {
	// begin=125s floors to minute 2 and lands in bucket 0; begin=305s
	// floors to minute 5 and lands in bucket 5.
	dir := t.TempDir()
	writeOutput(t, dir, "d.xml", `<detector>
		<interval begin="125" end="300" count="4"/>
		<interval begin="305" end="600" count="6"/>
	</detector>`)

	agg := NewAggregator(5, WithLogger(discardLogger()))
	got, _, err := agg.Aggregate(context.Background(), dir, []Definition{{ID: "G9", File: "d.xml"}})

	require.NoError(t, err)
	assert.Equal(t, series.Series{
		{Station: "G9", Bucket: 0}: 4,
		{Station: "G9", Bucket: 5}: 6,
	}, got)
}

func TestAggregateSkipsBrokenDetectorsOnly(t *testing.T) {
	dir := t.TempDir()
	writeOutput(t, dir, "good.xml", `<detector><interval begin="0" end="300" count="5"/></detector>`)
	writeOutput(t, dir, "broken.xml", `<detector><interval begin=`)

	defs := []Definition{
		{ID: "G1_0", File: "good.xml"},
		{ID: "G2_0", File: "broken.xml"},
		{ID: "G3_0", File: "missing.xml"},
	}

	agg := NewAggregator(5, WithLogger(discardLogger()), WithWorkers(2))
	got, skipped, err := agg.Aggregate(context.Background(), dir, defs)

	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, series.Series{{Station: "G1", Bucket: 0}: 5}, got)
}

func TestParseDefinitions(t *testing.T) {
	doc := `<additional>
		<inductionLoop id="G1_0" lane="edge1_0" file="G1_0.xml" freq="300"/>
		<inductionLoop id="G1_1" lane="edge1_1" file="G1_1.xml"/>
		<inductionLoop id="" lane="x" file="x.xml"/>
		<inductionLoop id="G2_0" lane="edge2_0" file=""/>
	</additional>`

	defs, err := ParseDefinitions(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []Definition{
		{ID: "G1_0", Lane: "edge1_0", File: "G1_0.xml"},
		{ID: "G1_1", Lane: "edge1_1", File: "G1_1.xml"},
	}, defs)
}

func TestParseDefinitionsMalformed(t *testing.T) {
	_, err := ParseDefinitions(strings.NewReader("<additional><inductionLoop"))
	require.Error(t, err)
}
