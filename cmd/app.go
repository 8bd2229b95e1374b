package main

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/chemstack/formulant/internal/anomaly"
	"github.com/chemstack/formulant/internal/enrich"
	"github.com/chemstack/formulant/internal/registry"
	"github.com/chemstack/formulant/internal/resilience"
	"github.com/chemstack/formulant/internal/usage"
	"github.com/chemstack/formulant/pkg/pubchem"
)

// appEnv bundles the process-wide services: caches, coordinator, breaker,
// tracker, and sink all live here with explicit lifecycle, injected into the
// orchestrator instead of hiding behind package globals.
type appEnv struct {
	Enricher *enrich.Enricher
	Tracker  *usage.Tracker
	Sink     anomaly.Sink
}

// Close tears down the env's resources.
func (e *appEnv) Close() {
	_ = e.Sink.Close()
}

// initApp builds the enrichment pipeline from config. sinkDriver overrides
// the configured anomaly sink ("" keeps the config value).
func initApp(sinkDriver string) (*appEnv, error) {
	reg := registry.Default()
	if cfg.Registry.Path != "" {
		r, err := registry.Load(cfg.Registry.Path)
		if err != nil {
			return nil, err
		}
		reg = r
	}

	client := pubchem.NewClient(
		pubchem.WithBaseURL(cfg.PubChem.BaseURL),
		pubchem.WithHTTPClient(&http.Client{Timeout: cfg.PubChem.Timeout()}),
		pubchem.WithLimiter(rate.NewLimiter(rate.Limit(cfg.PubChem.RatePerSec), cfg.PubChem.Burst)),
	)

	retry := resilience.Policy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
	}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     time.Duration(cfg.Breaker.ResetTimeoutSecs) * time.Second,
	})

	tracker := usage.NewTracker()
	resolver := enrich.NewResolver(client, breaker, retry, tracker)
	fetcher := enrich.NewFetcher(client, reg, breaker, retry)
	enricher := enrich.NewEnricher(resolver, fetcher,
		cfg.Enrich.MaxConcurrent,
		time.Duration(cfg.Enrich.TimeoutSecs)*time.Second,
	)

	sinkCfg := anomaly.Config{Driver: cfg.Anomaly.Driver, Path: cfg.Anomaly.Path}
	if sinkDriver != "" {
		sinkCfg.Driver = sinkDriver
	}
	sink, err := anomaly.New(sinkCfg)
	if err != nil {
		return nil, err
	}

	return &appEnv{Enricher: enricher, Tracker: tracker, Sink: sink}, nil
}
