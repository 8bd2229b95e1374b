package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chemstack/formulant/internal/metrics"
	"github.com/chemstack/formulant/internal/model"
)

// Enricher orchestrates the enrichment of one formula: normalization first,
// then a concurrent resolve→fetch→select per surviving component, then an
// order-independent merge keyed by CAS.
type Enricher struct {
	resolver      *Resolver
	fetcher       *Fetcher
	maxConcurrent int
	timeout       time.Duration
}

// NewEnricher wires the orchestrator. maxConcurrent bounds the per-formula
// fan-out; timeout caps the whole Enrich call (0 disables it).
func NewEnricher(resolver *Resolver, fetcher *Fetcher, maxConcurrent int, timeout time.Duration) *Enricher {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Enricher{
		resolver:      resolver,
		fetcher:       fetcher,
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
	}
}

// Result is the outcome of enriching one formula. Anomalies are returned for
// sink mirroring; they are not part of the response payload.
type Result struct {
	Components []model.EnrichedComponent
	Anomalies  []model.AnomalyRecord
}

// Enrich produces the augmented, concentration-normalized formula. Failures
// are isolated per component: a CAS that cannot be resolved, or a compound
// with no data, still appears in the output with its normalized
// concentration and absent descriptors. Only an unusable concentration drops
// a component. When the deadline expires, components still pending come back
// unresolved rather than blocking the response.
func (e *Enricher) Enrich(ctx context.Context, formula []model.RawComponent) Result {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	norm := Normalize(formula)

	result := Result{Anomalies: norm.Anomalies}
	if len(norm.Components) == 0 {
		e.finish(start, len(formula), &result)
		return result
	}

	components := make([]model.EnrichedComponent, len(norm.Components))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(e.maxConcurrent)
	for i, pc := range norm.Components {
		i, pc := i, pc
		g.Go(func() error {
			id, anomalies := e.resolver.Resolve(ctx, pc.CAS)

			var descriptors model.DescriptorRecord
			if id.Found {
				rec, fetchAnomalies := e.fetcher.Fetch(ctx, pc.CAS, id.CID)
				descriptors = rec
				anomalies = append(anomalies, fetchAnomalies...)
			}

			components[i] = model.NewEnrichedComponent(pc.CAS, pc.ConcValue, descriptors)

			mu.Lock()
			result.Anomalies = append(result.Anomalies, anomalies...)
			mu.Unlock()
			return nil
		})
	}
	// Tasks never return errors; per-component failures are anomalies.
	_ = g.Wait()

	result.Components = components
	e.finish(start, len(formula), &result)
	return result
}

func (e *Enricher) finish(start time.Time, inputLen int, result *Result) {
	for _, a := range result.Anomalies {
		metrics.ObserveAnomaly(string(a.Stage), a.Kind)
	}
	zap.L().Info("formula enriched",
		zap.Int("components_in", inputLen),
		zap.Int("components_out", len(result.Components)),
		zap.Int("anomalies", len(result.Anomalies)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
