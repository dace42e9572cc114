// Dev harness: generates seeded synthetic operational data, runs a full
// multi-domain analysis, and prints the JSON report. Not an API surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"opsimpact/app"
	"opsimpact/domain/anomaly"
	"opsimpact/internal"
	"opsimpact/internal/config"
	"opsimpact/internal/testkit"
)

func main() {
	seed := flag.Int64("seed", 42, "seed for the synthetic data generator")
	debug := flag.Bool("debug", false, "force debug logging regardless of LOG_LEVEL")
	flag.Parse()

	// .env is optional for local runs
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()
	if *debug {
		logger = internal.NewLogger(internal.LogLevelDebug)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	report, err := svc.Run(context.Background(), buildRequest(*seed))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func buildRequest(seed int64) app.Request {
	gen := testkit.NewSeededGenerator(seed)

	spiked, _ := gen.SeriesWithSpike(120, 250, 12, 480)

	return app.Request{
		Domains: map[string]app.DomainInput{
			"churn": {
				Records:     gen.CohortRecords(40, "financial_impact_30d"),
				ImpactField: "financial_impact_30d",
				Subjects:    gen.SubjectFeatures(25),
			},
			"production": {
				Records:     gen.CohortRecords(30, "delay_days"),
				ImpactField: "delay_days",
				Series: map[string][]anomaly.Point{
					"error_rate":   gen.MetricPoints(spiked),
					"p95_latency":  gen.MetricPoints(gen.GaussianSeries(120, 320, 25)),
					"deploy_count": gen.MetricPoints(gen.GaussianSeries(120, 6, 2)),
				},
			},
			"complaints": {
				Records:     gen.CohortRecords(20, "complaint_volume"),
				ImpactField: "complaint_volume",
			},
			"content": {
				Records:     gen.CohortRecords(35, "roi_score"),
				ImpactField: "roi_score",
			},
		},
	}
}
