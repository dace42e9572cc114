// Package risk computes bounded [0,1] churn/incident risk scores from a
// weighted combination of normalized feature values. Weights and
// per-feature normalization rules come in as configuration, so adding a
// feature never touches the scoring loop.
package risk

import (
	"math"
	"sort"

	"opsimpact/domain/core"
)

// Category buckets a score for triage
type Category string

const (
	CategoryLow      Category = "low"
	CategoryMedium   Category = "medium"
	CategoryHigh     Category = "high"
	CategoryCritical Category = "critical"
)

// Category thresholds
const (
	criticalThreshold = 0.8
	highThreshold     = 0.6
	mediumThreshold   = 0.35
)

// RuleKind selects how a raw feature value maps onto [0,1]
type RuleKind string

const (
	// RuleIdentity clamps the raw value into [0,1]
	RuleIdentity RuleKind = "identity"
	// RuleInvert maps v to 1-v (clamped); low engagement means high risk
	RuleInvert RuleKind = "invert"
	// RuleCap maps v to min(v/Max, 1); negative values floor at 0
	RuleCap RuleKind = "cap"
)

// Rule is one feature's normalization rule
type Rule struct {
	Kind RuleKind `json:"kind"`
	Max  float64  `json:"max,omitempty"`
}

// Factor is one feature's contribution to the score, Normalized in [0,1]
// and Contribution = Weight * Normalized.
type Factor struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Normalized   float64 `json:"normalized"`
	Contribution float64 `json:"contribution"`
	Description  string  `json:"description"`
}

// Score is a bounded risk assessment for one subject. Factors are ordered
// by absolute contribution descending (name ascending on ties).
type Score struct {
	SubjectID core.SubjectID `json:"subject_id"`
	Value     float64        `json:"score"`
	Category  Category       `json:"category"`
	Factors   []Factor       `json:"contributing_factors"`
}

// ScorerConfig supplies weights and normalization rules per feature name.
// Features absent from either map fall back to weight 1 and the identity
// rule, keeping the scoring loop closed while configurations evolve.
type ScorerConfig struct {
	Weights      map[string]float64 `json:"weights"`
	Rules        map[string]Rule    `json:"rules"`
	Descriptions map[string]string  `json:"descriptions,omitempty"`
}

// DefaultConfig is the churn preset: three weighted behavioral features
// with a 30-day inactivity lookback.
func DefaultConfig() ScorerConfig {
	return ScorerConfig{
		Weights: map[string]float64{
			"inactivity_days":  1,
			"engagement_score": 1,
			"payment_issues":   1,
		},
		Rules: map[string]Rule{
			"inactivity_days":  {Kind: RuleCap, Max: 30},
			"engagement_score": {Kind: RuleInvert},
			"payment_issues":   {Kind: RuleCap, Max: 1},
		},
		Descriptions: map[string]string{
			"inactivity_days":  "days since last activity, capped at the lookback window",
			"engagement_score": "inverted engagement: low engagement implies higher risk",
			"payment_issues":   "recent payment failures",
		},
	}
}

// Scorer evaluates feature maps against a fixed configuration
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer validates the configuration and returns a Scorer
func NewScorer(cfg ScorerConfig) (*Scorer, error) {
	for name, w := range cfg.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, core.NewInvalidInputError("weights", w, "weight for "+name+" must be finite and non-negative")
		}
	}
	for name, rule := range cfg.Rules {
		switch rule.Kind {
		case RuleIdentity, RuleInvert:
		case RuleCap:
			if rule.Max <= 0 {
				return nil, core.NewInvalidInputError("rules", rule.Max, "cap rule for "+name+" needs max > 0")
			}
		default:
			return nil, core.NewInvalidInputError("rules", string(rule.Kind), "unknown rule kind for "+name)
		}
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes the weighted, normalized risk score for one subject.
// Value = sum(weight*normalized) / sum(weights), clamped to [0,1].
// Feature values must be finite: NaN and ±Inf pass through clamp untouched
// and would poison the score, so they are rejected at this boundary.
func (s *Scorer) Score(subjectID core.SubjectID, features map[string]float64) (*Score, error) {
	if len(features) == 0 {
		return nil, core.NewInsufficientDataError("risk scoring requires at least one feature")
	}

	factors := make([]Factor, 0, len(features))
	weightSum := 0.0
	contributionSum := 0.0

	for name, raw := range features {
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return nil, core.NewInvalidInputError("features", raw, "value for "+name+" must be finite")
		}
		weight, ok := s.cfg.Weights[name]
		if !ok {
			weight = 1
		}
		normalized := s.normalize(name, raw)
		contribution := weight * normalized

		weightSum += weight
		contributionSum += contribution
		factors = append(factors, Factor{
			Name:         name,
			Weight:       weight,
			Normalized:   normalized,
			Contribution: contribution,
			Description:  s.cfg.Descriptions[name],
		})
	}

	value := 0.0
	if weightSum > 0 {
		value = clamp(contributionSum/weightSum, 0, 1)
	}

	sort.SliceStable(factors, func(i, j int) bool {
		ci, cj := math.Abs(factors[i].Contribution), math.Abs(factors[j].Contribution)
		if ci == cj {
			return factors[i].Name < factors[j].Name
		}
		return ci > cj
	})

	return &Score{
		SubjectID: subjectID,
		Value:     value,
		Category:  categorize(value),
		Factors:   factors,
	}, nil
}

func (s *Scorer) normalize(name string, raw float64) float64 {
	rule, ok := s.cfg.Rules[name]
	if !ok {
		rule = Rule{Kind: RuleIdentity}
	}
	switch rule.Kind {
	case RuleInvert:
		return clamp(1-raw, 0, 1)
	case RuleCap:
		return clamp(raw/rule.Max, 0, 1)
	default:
		return clamp(raw, 0, 1)
	}
}

func categorize(value float64) Category {
	switch {
	case value >= criticalThreshold:
		return CategoryCritical
	case value >= highThreshold:
		return CategoryHigh
	case value >= mediumThreshold:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
