// Package app orchestrates the analysis calculators: it fans out per
// operational domain, fans results back in, and derives the combined
// insight list. All heavy lifting stays in the domain packages; this
// layer owns concurrency, caching, and warning collection.
package app

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"opsimpact/domain/anomaly"
	"opsimpact/domain/core"
	"opsimpact/domain/insight"
	"opsimpact/domain/pareto"
	"opsimpact/domain/record"
	"opsimpact/domain/risk"
	"opsimpact/internal"
	"opsimpact/internal/config"
	"opsimpact/internal/errors"
)

// DomainInput is everything one operational domain supplies for analysis
type DomainInput struct {
	Records     []map[string]any              `json:"records"`
	ImpactField string                        `json:"impact_field"`
	Strict      bool                          `json:"strict,omitempty"`
	Series      map[string][]anomaly.Point    `json:"series,omitempty"`
	Subjects    map[string]map[string]float64 `json:"subjects,omitempty"`
}

// Request maps domain names (churn, production, complaints, content) to
// their inputs
type Request struct {
	Domains map[string]DomainInput `json:"domains"`
}

// DomainReport is the fan-in result for one domain. Warnings carry every
// degraded-but-recovered condition; nothing is silently swallowed.
type DomainReport struct {
	Domain    string            `json:"domain"`
	Pareto    *pareto.Result    `json:"pareto"`
	Anomalies []anomaly.Anomaly `json:"anomalies"`
	Risks     []risk.Score      `json:"risk_scores"`
	Warnings  []record.Warning  `json:"warnings,omitempty"`
}

// Report is the complete analysis output for one Run invocation
type Report struct {
	RunID       core.RunID               `json:"run_id"`
	GeneratedAt core.Timestamp           `json:"generated_at"`
	Domains     map[string]*DomainReport `json:"domains"`
	Insights    []insight.Insight        `json:"insights"`
}

// Service runs multi-domain impact analysis
type Service struct {
	cfg    *config.Config
	logger *internal.Logger
	scorer *risk.Scorer

	// expirable.LRU is safe for concurrent use
	cache *expirable.LRU[string, *DomainReport]
}

// NewService builds a Service from validated configuration. The result
// cache is enabled only when both size and TTL are positive.
func NewService(cfg *config.Config, logger *internal.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	scorer, err := risk.NewScorer(cfg.Risk)
	if err != nil {
		return nil, errors.Wrap(err, "invalid risk scorer configuration")
	}

	svc := &Service{cfg: cfg, logger: logger, scorer: scorer}
	if cfg.Cache.Size > 0 && cfg.Cache.TTL > 0 {
		svc.cache = expirable.NewLRU[string, *DomainReport](cfg.Cache.Size, nil, cfg.Cache.TTL)
	}
	return svc, nil
}

// Run analyzes every domain concurrently (fan-out bounded by
// MaxConcurrency) and aggregates the results into one prioritized insight
// list (fan-in). Configuration errors abort; data-quality problems are
// downgraded to per-domain warnings.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{
		RunID:       core.NewRunID(),
		GeneratedAt: core.Now(),
		Domains:     make(map[string]*DomainReport, len(req.Domains)),
		Insights:    []insight.Insight{},
	}
	if len(req.Domains) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Analysis.MaxConcurrency)

	for name, input := range req.Domains {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			domainReport, err := s.analyzeDomain(name, input)
			if err != nil {
				return errors.Wrapf(err, "domain %s", name)
			}
			mu.Lock()
			report.Domains[name] = domainReport
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic fan-in: walk domains in sorted order
	names := make([]string, 0, len(report.Domains))
	for name := range report.Domains {
		names = append(names, name)
	}
	sort.Strings(names)

	paretos := make(map[string]*pareto.Result, len(names))
	var anomalies []anomaly.Anomaly
	var risks []risk.Score
	for _, name := range names {
		d := report.Domains[name]
		paretos[name] = d.Pareto
		anomalies = append(anomalies, d.Anomalies...)
		risks = append(risks, d.Risks...)
	}

	report.Insights = insight.Aggregate(paretos, anomalies, risks,
		insight.WithMagnitudeFloor(s.cfg.Analysis.MagnitudeFloor))

	s.logger.Info("analysis run %s: %d domains, %d insights", report.RunID, len(report.Domains), len(report.Insights))
	return report, nil
}

// analyzeDomain runs normalizer, pareto, anomaly, and risk passes for one
// domain, serving from the TTL cache when the identical input was already
// computed. Cache writes are idempotent: recomputing the same key always
// stores an identical value.
func (s *Service) analyzeDomain(name string, input DomainInput) (*DomainReport, error) {
	key, ok := s.cacheKey(name, input)
	if ok {
		if cached, hit := s.cache.Get(key); hit {
			s.logger.Debug("domain %s served from cache", name)
			return cached, nil
		}
	}

	d := &DomainReport{Domain: name}

	opts := []record.Option{}
	if input.Strict {
		opts = append(opts, record.Strict())
	}
	records, warnings, err := record.Normalize(input.Records, input.ImpactField, opts...)
	if err != nil {
		return nil, err
	}
	d.Warnings = warnings

	d.Pareto, err = pareto.Analyze(records, s.cfg.Analysis.ParetoThresholdPct)
	if err != nil {
		return nil, err
	}

	metrics := make([]string, 0, len(input.Series))
	for metric := range input.Series {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)
	for _, metric := range metrics {
		found, err := anomaly.DetectSeries(metric, input.Series[metric], s.cfg.Analysis.Sensitivity)
		if err != nil {
			if core.IsInsufficientDataError(err) {
				d.Warnings = append(d.Warnings, record.Warning{Index: -1, Field: metric, Reason: "empty series, anomaly detection skipped"})
				continue
			}
			return nil, err
		}
		d.Anomalies = append(d.Anomalies, found...)
	}

	subjects := make([]string, 0, len(input.Subjects))
	for subject := range input.Subjects {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	for _, subject := range subjects {
		score, err := s.scorer.Score(core.SubjectID(subject), input.Subjects[subject])
		if err != nil {
			if core.IsInsufficientDataError(err) {
				d.Warnings = append(d.Warnings, record.Warning{Index: -1, Field: subject, Reason: "no features, risk scoring skipped"})
				continue
			}
			if core.IsInvalidInputError(err) {
				d.Warnings = append(d.Warnings, record.Warning{Index: -1, Field: subject, Reason: "non-finite feature value, risk scoring skipped"})
				continue
			}
			return nil, err
		}
		d.Risks = append(d.Risks, *score)
	}

	if ok {
		s.cache.Add(key, d)
	}
	return d, nil
}

// cacheKey hashes the domain input plus the parameters that shape the
// result. JSON marshaling sorts map keys, so the key is deterministic.
func (s *Service) cacheKey(name string, input DomainInput) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	payload, err := json.Marshal(input)
	if err != nil {
		// Unserializable attribute values are legal input; just skip caching
		return "", false
	}
	key := core.ComputeCacheKey(map[string]string{
		"domain":      name,
		"input":       string(payload),
		"threshold":   formatFloat(s.cfg.Analysis.ParetoThresholdPct),
		"sensitivity": formatFloat(s.cfg.Analysis.Sensitivity),
	})
	return key.String(), true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
