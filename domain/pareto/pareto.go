// Package pareto ranks impact records by the 80/20 rule: a stable
// descending sort by impact, cumulative contribution percentages, and the
// minimal "vital few" prefix reaching a target cumulative threshold.
package pareto

import (
	"sort"

	"github.com/montanaflynn/stats"

	"opsimpact/domain/core"
	"opsimpact/domain/record"
)

// DefaultThresholdPct is the classic 80/20 cumulative threshold
const DefaultThresholdPct = 80.0

// Item is one ranked record with its share of total impact
type Item struct {
	Record          record.ImpactRecord `json:"record"`
	ContributionPct float64             `json:"contribution_pct"`
	CumulativePct   float64             `json:"cumulative_pct"`
}

// Result is a complete Pareto ranking.
// Invariants: CumulativePct is non-decreasing over Items and ends at 100
// (within floating-point tolerance) whenever TotalImpact > 0; VitalFew is
// the smallest prefix of Items whose cumulative share reaches ThresholdPct.
type Result struct {
	Items         []Item   `json:"items"`
	VitalFew      []string `json:"vital_few"`
	VitalFewCount int      `json:"vital_few_count"`
	TotalImpact   float64  `json:"total_impact"`
	ThresholdPct  float64  `json:"threshold_pct"`
}

// Analyze ranks records by impact descending and determines the vital few.
// Ties on impact keep the original input order, so output is deterministic
// for a given input ordering. A zero total impact yields a well-formed
// empty ranking, not an error.
//
// Each record contributes its full impact exactly once to the total;
// callers splitting one source record across several themes must pre-split
// the impact value to avoid double-counting.
func Analyze(records []record.ImpactRecord, thresholdPct float64) (*Result, error) {
	if thresholdPct <= 0 || thresholdPct > 100 {
		return nil, core.NewInvalidInputError("threshold_pct", thresholdPct, "must be in (0, 100]")
	}

	result := &Result{
		Items:        make([]Item, 0, len(records)),
		VitalFew:     []string{},
		ThresholdPct: thresholdPct,
	}
	if len(records) == 0 {
		return result, nil
	}

	sorted := make([]record.ImpactRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Impact > sorted[j].Impact
	})

	impacts := make([]float64, len(sorted))
	for i, r := range sorted {
		impacts[i] = r.Impact
	}
	total, err := stats.Sum(impacts)
	if err != nil {
		return nil, err
	}
	result.TotalImpact = total

	if total <= 0 {
		// Degenerate cohort: contributions are undefined, report zeros
		for _, r := range sorted {
			result.Items = append(result.Items, Item{Record: r})
		}
		return result, nil
	}

	cumulative := 0.0
	crossed := false
	for _, r := range sorted {
		contribution := r.Impact / total * 100
		cumulative += contribution
		result.Items = append(result.Items, Item{
			Record:          r,
			ContributionPct: contribution,
			CumulativePct:   cumulative,
		})
		if !crossed {
			result.VitalFew = append(result.VitalFew, r.ID)
			if cumulative >= thresholdPct {
				crossed = true
			}
		}
	}
	result.VitalFewCount = len(result.VitalFew)

	return result, nil
}
