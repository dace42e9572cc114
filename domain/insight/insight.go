// Package insight combines Pareto rankings, anomalies, and risk scores
// across domains into one prioritized list of human-readable findings.
// Insights are derived values: regenerated wholesale on every call, never
// mutated independently.
package insight

import (
	"fmt"
	"sort"

	"opsimpact/domain/anomaly"
	"opsimpact/domain/pareto"
	"opsimpact/domain/risk"
)

// Priority orders insights for triage
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// SourceType tags which analysis produced an insight. The set is closed:
// dispatch happens through these variants, never through reflection.
type SourceType string

const (
	SourcePareto  SourceType = "pareto"
	SourceAnomaly SourceType = "anomaly"
	SourceRisk    SourceType = "risk"
)

// Insight is one ranked, actionable finding
type Insight struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Magnitude         float64    `json:"magnitude"`
	Priority          Priority   `json:"priority"`
	RecommendedAction string     `json:"recommended_action"`
	Source            SourceType `json:"source_type"`
	SubjectID         string     `json:"subject_id"`
	Domain            string     `json:"domain,omitempty"`
}

// Pareto contribution thresholds for insight priority
const (
	criticalContributionPct = 40.0
	highContributionPct     = 20.0
)

// DefaultActions maps a risk score's top contributing factor to a
// recommended intervention.
var DefaultActions = map[string]string{
	"inactivity_days":  "launch a re-engagement campaign before the lookback window closes",
	"engagement_score": "schedule a success check-in and review recent product friction",
	"payment_issues":   "contact the subscriber to resolve billing before the next cycle",
}

const fallbackRiskAction = "flag for manual account review"

// Option configures an Aggregate call
type Option func(*options)

type options struct {
	magnitudeFloor float64
	actions        map[string]string
}

// WithMagnitudeFloor drops vital-few items whose impact falls below floor
func WithMagnitudeFloor(floor float64) Option {
	return func(o *options) { o.magnitudeFloor = floor }
}

// WithActions overrides the intervention lookup table keyed by the top
// contributing risk factor
func WithActions(actions map[string]string) Option {
	return func(o *options) { o.actions = actions }
}

// Aggregate builds the deduplicated, prioritized insight list. No two
// insights share the same (source, subject) pair even when an item
// qualifies under multiple rules; the first qualifying rule wins.
// Ordering is priority, then magnitude descending, then domain and
// subject ascending for determinism.
func Aggregate(paretos map[string]*pareto.Result, anomalies []anomaly.Anomaly, risks []risk.Score, opts ...Option) []Insight {
	o := options{actions: DefaultActions}
	for _, opt := range opts {
		opt(&o)
	}

	insights := []Insight{}
	seen := make(map[string]bool)
	add := func(in Insight) {
		key := string(in.Source) + "\x00" + in.SubjectID
		if seen[key] {
			return
		}
		seen[key] = true
		insights = append(insights, in)
	}

	// Map iteration order is random; walk domains sorted
	domains := make([]string, 0, len(paretos))
	for domain := range paretos {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		result := paretos[domain]
		if result == nil {
			continue
		}
		vital := make(map[string]bool, len(result.VitalFew))
		for _, id := range result.VitalFew {
			vital[id] = true
		}
		for _, item := range result.Items {
			if !vital[item.Record.ID] || item.Record.Impact < o.magnitudeFloor {
				continue
			}
			add(Insight{
				Title: fmt.Sprintf("%s drives %.1f%% of %s impact", displayName(item.Record.ID, item.Record.Label), item.ContributionPct, domain),
				Description: fmt.Sprintf("%s accounts for %.1f%% of the total %s impact of %.2f; the vital few (%d of %d items) cover %.0f%%.",
					displayName(item.Record.ID, item.Record.Label), item.ContributionPct, domain, result.TotalImpact, result.VitalFewCount, len(result.Items), result.ThresholdPct),
				Magnitude:         item.Record.Impact,
				Priority:          paretoPriority(item.ContributionPct),
				RecommendedAction: fmt.Sprintf("concentrate %s remediation effort on %s first", domain, displayName(item.Record.ID, item.Record.Label)),
				Source:            SourcePareto,
				SubjectID:         item.Record.ID,
				Domain:            domain,
			})
		}
	}

	for _, a := range anomalies {
		if a.Severity != anomaly.SeverityHigh {
			continue
		}
		add(Insight{
			Title: fmt.Sprintf("%s deviated sharply from its expected level", a.MetricName),
			Description: fmt.Sprintf("%s read %.2f against an expected %.2f (z=%.2f, confidence %.2f).",
				a.MetricName, a.ActualValue, a.ExpectedValue, a.ZScore, a.Confidence),
			Magnitude:         absFloat(a.ActualValue - a.ExpectedValue),
			Priority:          PriorityHigh,
			RecommendedAction: fmt.Sprintf("investigate the %s deviation and confirm upstream data health", a.MetricName),
			Source:            SourceAnomaly,
			SubjectID:         fmt.Sprintf("%s#%d", a.MetricName, a.Index),
			Domain:            a.MetricName,
		})
	}

	for _, r := range risks {
		if r.Category != risk.CategoryCritical && r.Category != risk.CategoryHigh {
			continue
		}
		action := fallbackRiskAction
		topFactor := ""
		if len(r.Factors) > 0 {
			topFactor = r.Factors[0].Name
			if a, ok := o.actions[topFactor]; ok {
				action = a
			}
		}
		priority := PriorityHigh
		if r.Category == risk.CategoryCritical {
			priority = PriorityCritical
		}
		description := fmt.Sprintf("Subject %s scored %.2f (%s risk).", r.SubjectID, r.Value, r.Category)
		if topFactor != "" {
			description = fmt.Sprintf("Subject %s scored %.2f (%s risk), driven primarily by %s.", r.SubjectID, r.Value, r.Category, topFactor)
		}
		add(Insight{
			Title:             fmt.Sprintf("Subject %s is at %s risk", r.SubjectID, r.Category),
			Description:       description,
			Magnitude:         r.Value,
			Priority:          priority,
			RecommendedAction: action,
			Source:            SourceRisk,
			SubjectID:         r.SubjectID.String(),
		})
	}

	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if priorityRank[a.Priority] != priorityRank[b.Priority] {
			return priorityRank[a.Priority] < priorityRank[b.Priority]
		}
		if a.Magnitude != b.Magnitude {
			return a.Magnitude > b.Magnitude
		}
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		return a.SubjectID < b.SubjectID
	})

	return insights
}

func paretoPriority(contributionPct float64) Priority {
	switch {
	case contributionPct >= criticalContributionPct:
		return PriorityCritical
	case contributionPct >= highContributionPct:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

func displayName(id, label string) string {
	if label != "" {
		return label
	}
	return id
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
