// Package anomaly flags out-of-bound points in numeric series using two
// complementary checks: sample-σ z-scores with a sensitivity-derived
// threshold, and quartile (IQR) fences. A point flagged by either method
// is reported once, with the evidence unioned into a single Anomaly.
package anomaly

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"opsimpact/domain/core"
)

// DefaultSensitivity corresponds to a two-tailed z threshold of ~1.96
const DefaultSensitivity = 0.95

// Severity classifies how far out of bounds a point is
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Method names the check that produced the evidence
type Method string

const (
	MethodZScore   Method = "zscore"
	MethodIQR      Method = "iqr"
	MethodConstant Method = "constant"
)

// Point is one timestamped observation of a named metric
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Anomaly is one flagged point. Evidence lists every method that flagged
// it; the point is never reported twice.
type Anomaly struct {
	MetricName    string    `json:"metric_name"`
	Index         int       `json:"index"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	ActualValue   float64   `json:"actual_value"`
	ExpectedValue float64   `json:"expected_value"`
	StdDev        float64   `json:"std_dev"`
	ZScore        float64   `json:"z_score"`
	Severity      Severity  `json:"severity"`
	Confidence    float64   `json:"confidence"`
	Evidence      []Method  `json:"evidence"`
}

// Detect flags anomalous points in a single-metric series. Output is
// identical for identical input: there is no randomness anywhere in the
// detection path.
//
// An empty series is a recoverable insufficient-data condition; a single
// point yields no anomalies and no error.
func Detect(metricName string, series []float64, sensitivity float64) ([]Anomaly, error) {
	if sensitivity <= 0 || sensitivity >= 1 {
		return nil, core.NewInvalidInputError("sensitivity", sensitivity, "must be in (0, 1)")
	}
	if len(series) == 0 {
		return nil, core.NewInsufficientDataError("anomaly detection on empty series")
	}
	if len(series) == 1 {
		return nil, nil
	}

	mean, err := stats.Mean(series)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviationSample(series)
	if err != nil {
		return nil, err
	}

	if stdDev == 0 {
		return detectConstant(metricName, series, mean), nil
	}

	// Two-tailed threshold: sensitivity 0.95 -> |z| > 1.96
	zThreshold := distuv.UnitNormal.Quantile(1 - (1-sensitivity)/2)

	quartiles, err := stats.Quartile(series)
	if err != nil {
		return nil, err
	}
	iqr := quartiles.Q3 - quartiles.Q1
	innerLo, innerHi := quartiles.Q1-1.5*iqr, quartiles.Q3+1.5*iqr
	outerLo, outerHi := quartiles.Q1-3.0*iqr, quartiles.Q3+3.0*iqr

	var anomalies []Anomaly
	for i, v := range series {
		z := (v - mean) / stdDev
		absZ := math.Abs(z)

		var evidence []Method
		if absZ > zThreshold {
			evidence = append(evidence, MethodZScore)
		}
		if v < innerLo || v > innerHi {
			evidence = append(evidence, MethodIQR)
		}
		if len(evidence) == 0 {
			continue
		}

		beyondOuter := v < outerLo || v > outerHi
		beyondInner := v < innerLo || v > innerHi

		severity := SeverityLow
		switch {
		case absZ >= 3 || beyondOuter:
			severity = SeverityHigh
		case absZ >= 2 || beyondInner:
			severity = SeverityMedium
		}

		anomalies = append(anomalies, Anomaly{
			MetricName:    metricName,
			Index:         i,
			ActualValue:   v,
			ExpectedValue: mean,
			StdDev:        stdDev,
			ZScore:        z,
			Severity:      severity,
			Confidence:    math.Min(1, absZ/4),
			Evidence:      evidence,
		})
	}
	return anomalies, nil
}

// DetectSeries is the convenience form over timestamped points; anomalies
// carry the timestamp of the flagged point.
func DetectSeries(metricName string, points []Point, sensitivity float64) ([]Anomaly, error) {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	anomalies, err := Detect(metricName, values, sensitivity)
	if err != nil {
		return nil, err
	}
	for i := range anomalies {
		anomalies[i].Timestamp = points[anomalies[i].Index].Timestamp
	}
	return anomalies, nil
}

// detectConstant handles σ == 0: z-scores are undefined, so fall back to
// exact equality against the constant. Any differing value is trivially
// anomalous with full confidence.
func detectConstant(metricName string, series []float64, constant float64) []Anomaly {
	var anomalies []Anomaly
	for i, v := range series {
		if v == constant {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			MetricName:    metricName,
			Index:         i,
			ActualValue:   v,
			ExpectedValue: constant,
			Severity:      SeverityHigh,
			Confidence:    1,
			Evidence:      []Method{MethodConstant},
		})
	}
	return anomalies
}
