package analysis

import (
	"math"
	"sort"

	"calibra/internal/series"
)

// Thresholds are the anomaly classification bounds. The comparison is
// deliberately asymmetric: a record is anomalous when its GEH is at or above
// High, or strictly below Low. The low side flags suspiciously good fits and
// is kept verbatim from the reference behavior; set Low to 0 to disable it.
type Thresholds struct {
	High float64
	Low  float64
}

// DefaultThresholds are the values used in practice.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 10, Low: 5}
}

// ComparisonRecord is one joined (station, bucket) pair with its GEH score.
// GEHDefined is false when simulated and observed are both zero; such
// records are excluded from anomaly classification.
type ComparisonRecord struct {
	Station    string
	Bucket     int
	Simulated  float64
	Observed   float64
	GEH        float64
	GEHDefined bool
	Anomalous  bool
}

// Summary describes the comparison set: record count, descriptive statistics
// of the defined GEH values, and the anomaly subset.
type Summary struct {
	Records    int
	DefinedGEH int

	GEHMean float64
	GEHMin  float64
	GEHMax  float64
	GEHP50  float64
	GEHP85  float64
	GEHP95  float64

	AnomalyCount int
}

// Result is the full evaluator output.
type Result struct {
	Records   []ComparisonRecord
	Anomalies []ComparisonRecord
	Summary   Summary
}

// GEH computes the Geoffrey E. Havers statistic for one simulated/observed
// pair. The second return is false when the statistic is undefined, i.e.
// when both counts are zero.
func GEH(simulated, observed float64) (float64, bool) {
	denominator := (simulated + observed) / 2
	if denominator == 0 {
		return 0, false
	}
	diff := simulated - observed
	return math.Sqrt(diff * diff / denominator), true
}

// Evaluate inner-joins the simulated and observed series on (station,
// bucket), scores each joined pair, and classifies anomalies. Keys present
// in only one series never appear in the result: stations the simulator
// never reported, and buckets the observed store has no data for, are
// dropped.
func Evaluate(simulated, observed series.Series, thresholds Thresholds) Result {
	records := make([]ComparisonRecord, 0, len(simulated))
	for key, sim := range simulated {
		obs, ok := observed[key]
		if !ok {
			continue
		}
		rec := ComparisonRecord{
			Station:   key.Station,
			Bucket:    key.Bucket,
			Simulated: sim,
			Observed:  obs,
		}
		rec.GEH, rec.GEHDefined = GEH(sim, obs)
		if rec.GEHDefined {
			rec.Anomalous = rec.GEH >= thresholds.High || rec.GEH < thresholds.Low
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Station != records[j].Station {
			return records[i].Station < records[j].Station
		}
		return records[i].Bucket < records[j].Bucket
	})

	result := Result{Records: records}
	result.Summary = summarize(records)
	for _, rec := range records {
		if rec.Anomalous {
			result.Anomalies = append(result.Anomalies, rec)
		}
	}
	return result
}

func summarize(records []ComparisonRecord) Summary {
	s := Summary{Records: len(records)}

	var defined []float64
	for _, rec := range records {
		if rec.GEHDefined {
			defined = append(defined, rec.GEH)
		}
		if rec.Anomalous {
			s.AnomalyCount++
		}
	}
	s.DefinedGEH = len(defined)
	if len(defined) == 0 {
		return s
	}

	sort.Float64s(defined)
	var sum float64
	for _, v := range defined {
		sum += v
	}
	s.GEHMean = sum / float64(len(defined))
	s.GEHMin = defined[0]
	s.GEHMax = defined[len(defined)-1]
	s.GEHP50 = quantile(defined, 0.50)
	s.GEHP85 = quantile(defined, 0.85)
	s.GEHP95 = quantile(defined, 0.95)
	return s
}

// quantile linearly interpolates over a sorted sample.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
