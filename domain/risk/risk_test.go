package risk

import (
	"math"
	"math/rand"
	"testing"

	"opsimpact/domain/core"
)

func newDefaultScorer(t *testing.T) *Scorer {
	t.Helper()
	scorer, err := NewScorer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewScorer returned error: %v", err)
	}
	return scorer
}

func TestScoreChurnExample(t *testing.T) {
	scorer := newDefaultScorer(t)

	score, err := scorer.Score("sub-1", map[string]float64{
		"inactivity_days":  21,   // normalized 0.7
		"engagement_score": 0.25, // normalized 0.75
		"payment_issues":   1,    // normalized 1.0
	})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	if math.Abs(score.Value-0.8167) > 0.001 {
		t.Errorf("score = %v, want ~0.8167", score.Value)
	}
	if score.Category != CategoryCritical {
		t.Errorf("category = %s, want critical", score.Category)
	}

	wantOrder := []string{"payment_issues", "engagement_score", "inactivity_days"}
	if len(score.Factors) != len(wantOrder) {
		t.Fatalf("got %d factors, want %d", len(score.Factors), len(wantOrder))
	}
	for i, name := range wantOrder {
		if score.Factors[i].Name != name {
			t.Errorf("factors[%d] = %s, want %s (ordered by weighted contribution)", i, score.Factors[i].Name, name)
		}
	}
}

func TestScoreCategories(t *testing.T) {
	scorer := newDefaultScorer(t)

	tests := []struct {
		name     string
		features map[string]float64
		want     Category
	}{
		{
			name:     "idle everything",
			features: map[string]float64{"inactivity_days": 45, "engagement_score": 0, "payment_issues": 3},
			want:     CategoryCritical,
		},
		{
			name:     "healthy subscriber",
			features: map[string]float64{"inactivity_days": 1, "engagement_score": 0.9, "payment_issues": 0},
			want:     CategoryLow,
		},
		{
			name:     "moderate disengagement",
			features: map[string]float64{"inactivity_days": 18, "engagement_score": 0.5, "payment_issues": 0},
			want:     CategoryMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scorer.Score("s", tt.features)
			if err != nil {
				t.Fatalf("Score returned error: %v", err)
			}
			if score.Category != tt.want {
				t.Errorf("category = %s (score %v), want %s", score.Category, score.Value, tt.want)
			}
		})
	}
}

func TestScoreBoundednessProperty(t *testing.T) {
	scorer := newDefaultScorer(t)
	rng := rand.New(rand.NewSource(13))

	for i := 0; i < 500; i++ {
		features := map[string]float64{
			"inactivity_days":  rng.Float64() * 200,
			"engagement_score": rng.Float64()*4 - 2,
			"payment_issues":   float64(rng.Intn(10)),
			"support_tickets":  rng.Float64() * 5, // unconfigured feature
		}
		score, err := scorer.Score("s", features)
		if err != nil {
			t.Fatalf("Score returned error: %v", err)
		}
		if score.Value < 0 || score.Value > 1 {
			t.Fatalf("score %v out of [0,1] for %v", score.Value, features)
		}

		// Contributions must reconstruct the unclamped weighted sum
		weightSum, contributionSum := 0.0, 0.0
		for _, f := range score.Factors {
			weightSum += f.Weight
			contributionSum += f.Contribution
			if f.Normalized < 0 || f.Normalized > 1 {
				t.Fatalf("normalized %v out of [0,1] for factor %s", f.Normalized, f.Name)
			}
		}
		if math.Abs(contributionSum-score.Value*weightSum) > 1e-9 {
			t.Fatalf("factor sum %v does not match score*weights %v", contributionSum, score.Value*weightSum)
		}
	}
}

func TestScoreRejectsNonFiniteFeatures(t *testing.T) {
	scorer := newDefaultScorer(t)

	tests := []struct {
		name     string
		features map[string]float64
	}{
		{"nan value", map[string]float64{"inactivity_days": math.NaN(), "payment_issues": 1}},
		{"positive infinity", map[string]float64{"engagement_score": math.Inf(1)}},
		{"negative infinity", map[string]float64{"inactivity_days": 5, "engagement_score": math.Inf(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scorer.Score("s", tt.features)
			if !core.IsInvalidInputError(err) {
				t.Fatalf("expected invalid input error, got score=%v err=%v", score, err)
			}
		})
	}
}

func TestScoreEmptyFeatures(t *testing.T) {
	scorer := newDefaultScorer(t)
	_, err := scorer.Score("s", nil)
	if !core.IsInsufficientDataError(err) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestNewScorerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  ScorerConfig
	}{
		{
			name: "negative weight",
			cfg:  ScorerConfig{Weights: map[string]float64{"a": -1}},
		},
		{
			name: "cap rule without max",
			cfg:  ScorerConfig{Rules: map[string]Rule{"a": {Kind: RuleCap}}},
		},
		{
			name: "unknown rule kind",
			cfg:  ScorerConfig{Rules: map[string]Rule{"a": {Kind: "sigmoid"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScorer(tt.cfg); !core.IsInvalidInputError(err) {
				t.Errorf("expected invalid input error, got %v", err)
			}
		})
	}
}

func TestNormalizationRules(t *testing.T) {
	scorer, err := NewScorer(ScorerConfig{
		Weights: map[string]float64{"capped": 1, "inverted": 1, "raw": 1},
		Rules: map[string]Rule{
			"capped":   {Kind: RuleCap, Max: 10},
			"inverted": {Kind: RuleInvert},
		},
	})
	if err != nil {
		t.Fatalf("NewScorer returned error: %v", err)
	}

	score, err := scorer.Score("s", map[string]float64{
		"capped":   25,  // -> 1.0
		"inverted": 0.2, // -> 0.8
		"raw":      1.7, // identity clamps -> 1.0
	})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	byName := map[string]Factor{}
	for _, f := range score.Factors {
		byName[f.Name] = f
	}
	if byName["capped"].Normalized != 1 {
		t.Errorf("capped normalized = %v, want 1", byName["capped"].Normalized)
	}
	if math.Abs(byName["inverted"].Normalized-0.8) > 1e-9 {
		t.Errorf("inverted normalized = %v, want 0.8", byName["inverted"].Normalized)
	}
	if byName["raw"].Normalized != 1 {
		t.Errorf("identity normalized = %v, want clamped 1", byName["raw"].Normalized)
	}
}
