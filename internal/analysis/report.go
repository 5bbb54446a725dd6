package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Artifact file names inside a case's results directory.
const (
	ComparisonFile = "comparison.csv"
	AnomalyFile    = "anomalies.csv"
	SummaryFile    = "summary.json"
)

// WriteArtifacts persists the comparison dataset, the anomaly subset, and
// the summary report into dir.
func WriteArtifacts(dir string, result Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	if err := writeRecordsCSV(filepath.Join(dir, ComparisonFile), result.Records); err != nil {
		return err
	}
	if err := writeRecordsCSV(filepath.Join(dir, AnomalyFile), result.Anomalies); err != nil {
		return err
	}

	summary, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), append(summary, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func writeRecordsCSV(path string, records []ComparisonRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	w := csv.NewWriter(f)
	_ = w.Write([]string{"station", "bucket_minutes", "simulated", "observed", "geh", "anomalous"})
	for _, rec := range records {
		geh := ""
		if rec.GEHDefined {
			geh = strconv.FormatFloat(rec.GEH, 'f', 4, 64)
		}
		_ = w.Write([]string{
			rec.Station,
			strconv.Itoa(rec.Bucket),
			strconv.FormatFloat(rec.Simulated, 'f', -1, 64),
			strconv.FormatFloat(rec.Observed, 'f', -1, 64),
			geh,
			strconv.FormatBool(rec.Anomalous),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
