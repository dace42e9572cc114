// Package testkit generates synthetic operational data for tests and the
// dev harness. Every generator takes an explicitly seeded *rand.Rand;
// nothing here touches package-level RNG state, so identical seeds
// produce identical fixtures.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"opsimpact/domain/anomaly"
)

// Generator produces deterministic synthetic cohorts, series, and features
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator around an injected seeded source
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeededGenerator is shorthand for tests that only care about the seed
func NewSeededGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)))
}

// CohortRecords produces raw dict-like records with a heavy-tailed impact
// distribution under impactField, the shape Pareto analysis expects.
func (g *Generator) CohortRecords(n int, impactField string) []map[string]any {
	records := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		// Log-normal impacts: a few records dominate the total
		impact := math.Exp(g.rng.NormFloat64()*1.5 + 8)
		records = append(records, map[string]any{
			"id":        fmt.Sprintf("item-%03d", i),
			"label":     fmt.Sprintf("synthetic item %d", i),
			impactField: math.Round(impact*100) / 100,
		})
	}
	return records
}

// GaussianSeries produces n points drawn from N(mean, sd)
func (g *Generator) GaussianSeries(n int, mean, sd float64) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = mean + sd*g.rng.NormFloat64()
	}
	return series
}

// SeriesWithSpike produces a Gaussian series with one injected outlier at
// a random position, returning the series and the outlier index.
func (g *Generator) SeriesWithSpike(n int, mean, sd, spike float64) ([]float64, int) {
	series := g.GaussianSeries(n, mean, sd)
	at := g.rng.Intn(n)
	series[at] = spike
	return series, at
}

// MetricPoints wraps a series into timestamped points spaced a minute apart
func (g *Generator) MetricPoints(series []float64) []anomaly.Point {
	points := make([]anomaly.Point, len(series))
	base := int64(1700000000) // fixed epoch keeps fixtures deterministic
	for i, v := range series {
		points[i] = anomaly.Point{Timestamp: unixMinute(base, i), Value: v}
	}
	return points
}

func unixMinute(base int64, i int) time.Time {
	return time.Unix(base+int64(i)*60, 0).UTC()
}

// SubjectFeatures produces per-subject churn feature maps spanning the
// whole risk range.
func (g *Generator) SubjectFeatures(n int) map[string]map[string]float64 {
	subjects := make(map[string]map[string]float64, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("subscriber-%03d", i)
		subjects[id] = map[string]float64{
			"inactivity_days":  float64(g.rng.Intn(45)),
			"engagement_score": g.rng.Float64(),
			"payment_issues":   float64(g.rng.Intn(2)),
		}
	}
	return subjects
}
