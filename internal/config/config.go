package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"opsimpact/domain/anomaly"
	"opsimpact/domain/pareto"
	"opsimpact/domain/risk"
	"opsimpact/internal/errors"
)

// Config represents the complete analysis configuration
type Config struct {
	Analysis AnalysisConfig
	Cache    CacheConfig
	Risk     risk.ScorerConfig
}

// AnalysisConfig holds calculator parameters
type AnalysisConfig struct {
	ParetoThresholdPct float64
	Sensitivity        float64
	MagnitudeFloor     float64
	MaxConcurrency     int
}

// CacheConfig holds the result-cache settings. A zero TTL disables caching.
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// Load reads configuration from environment variables and validates it.
// Every failure carries the CONFIG_INVALID code, including parse errors
// from the env helpers.
func Load() (*Config, error) {
	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.WithCode(err, "CONFIG_INVALID")
	}

	cache, err := loadCacheConfig()
	if err != nil {
		return nil, errors.WithCode(err, "CONFIG_INVALID")
	}

	riskCfg, err := loadRiskConfig()
	if err != nil {
		return nil, errors.WithCode(err, "CONFIG_INVALID")
	}

	return &Config{Analysis: *analysis, Cache: *cache, Risk: riskCfg}, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			ParetoThresholdPct: pareto.DefaultThresholdPct,
			Sensitivity:        anomaly.DefaultSensitivity,
			MagnitudeFloor:     0,
			MaxConcurrency:     4,
		},
		Cache: CacheConfig{Size: 128, TTL: 30 * time.Second},
		Risk:  risk.DefaultConfig(),
	}
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	cfg := Default().Analysis

	threshold, err := envFloat("IMPACT_PARETO_THRESHOLD", cfg.ParetoThresholdPct)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 || threshold > 100 {
		return nil, errors.New("CONFIG_INVALID", "IMPACT_PARETO_THRESHOLD must be in (0, 100]")
	}
	cfg.ParetoThresholdPct = threshold

	sensitivity, err := envFloat("IMPACT_SENSITIVITY", cfg.Sensitivity)
	if err != nil {
		return nil, err
	}
	if sensitivity <= 0 || sensitivity >= 1 {
		return nil, errors.New("CONFIG_INVALID", "IMPACT_SENSITIVITY must be in (0, 1)")
	}
	cfg.Sensitivity = sensitivity

	floor, err := envFloat("IMPACT_MAGNITUDE_FLOOR", cfg.MagnitudeFloor)
	if err != nil {
		return nil, err
	}
	if floor < 0 {
		return nil, errors.New("CONFIG_INVALID", "IMPACT_MAGNITUDE_FLOOR must be >= 0")
	}
	cfg.MagnitudeFloor = floor

	concurrency, err := envInt("IMPACT_MAX_CONCURRENCY", cfg.MaxConcurrency)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		return nil, errors.New("CONFIG_INVALID", "IMPACT_MAX_CONCURRENCY must be >= 1")
	}
	cfg.MaxConcurrency = concurrency

	return &cfg, nil
}

func loadCacheConfig() (*CacheConfig, error) {
	cfg := Default().Cache

	size, err := envInt("IMPACT_CACHE_SIZE", cfg.Size)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, errors.New("CONFIG_INVALID", "IMPACT_CACHE_SIZE must be >= 0")
	}
	cfg.Size = size

	if raw := os.Getenv("IMPACT_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrap(err, "IMPACT_CACHE_TTL must be a duration like 30s")
		}
		if ttl < 0 {
			return nil, errors.New("CONFIG_INVALID", "IMPACT_CACHE_TTL must be >= 0")
		}
		cfg.TTL = ttl
	}

	return &cfg, nil
}

// loadRiskConfig starts from the churn preset and lets the environment
// override weights with IMPACT_RISK_WEIGHTS="name:weight,name:weight".
// Normalization rules stay in the preset; new features default to the
// identity rule inside the scorer.
func loadRiskConfig() (risk.ScorerConfig, error) {
	cfg := risk.DefaultConfig()

	raw := os.Getenv("IMPACT_RISK_WEIGHTS")
	if raw == "" {
		return cfg, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, ":")
		if !found {
			return cfg, errors.New("CONFIG_INVALID", "IMPACT_RISK_WEIGHTS entries must look like name:weight")
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid weight for %s in IMPACT_RISK_WEIGHTS", name)
		}
		if weight < 0 {
			return cfg, errors.New("CONFIG_INVALID", "IMPACT_RISK_WEIGHTS weights must be >= 0")
		}
		cfg.Weights[strings.TrimSpace(name)] = weight
	}

	return cfg, nil
}

func envFloat(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be numeric", name)
	}
	return v, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer", name)
	}
	return v, nil
}
