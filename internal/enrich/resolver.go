// Package enrich implements the formula enrichment pipeline: CAS→CID
// resolution, descriptor retrieval and selection, concentration
// normalization, and the orchestrator that fans them out per component.
package enrich

import (
	"context"
	"errors"

	"github.com/chemstack/formulant/internal/cache"
	"github.com/chemstack/formulant/internal/metrics"
	"github.com/chemstack/formulant/internal/model"
	"github.com/chemstack/formulant/internal/resilience"
	"github.com/chemstack/formulant/internal/usage"
	"github.com/chemstack/formulant/pkg/pubchem"
)

// ResolvedID is the memoized outcome of CAS→CID resolution. Found=false is
// a confirmed negative answer, cached so a CAS the database does not know
// is never looked up twice in one process run.
type ResolvedID struct {
	CID   int64
	Found bool
}

// Resolver converts CAS numbers to PubChem CIDs through the property cache
// and single-flight coordinator, with bounded retries on transient failures.
type Resolver struct {
	client  pubchem.Client
	cache   *cache.Lookup[ResolvedID]
	breaker *resilience.Breaker
	retry   resilience.Policy
	tracker *usage.Tracker
}

// NewResolver creates a resolver with its own CAS→CID cache.
func NewResolver(client pubchem.Client, breaker *resilience.Breaker, retry resilience.Policy, tracker *usage.Tracker) *Resolver {
	return &Resolver{
		client:  client,
		cache:   cache.New[ResolvedID](),
		breaker: breaker,
		retry:   retry,
		tracker: tracker,
	}
}

// Resolve maps cas to a database ID. Lookup failure never blames the CAS
// itself: a miss is attributed to database coverage, a transport error to
// connectivity, and both come back as anomalies rather than errors — the
// component proceeds descriptor-absent either way.
func (r *Resolver) Resolve(ctx context.Context, cas string) (ResolvedID, []model.AnomalyRecord) {
	id, src, err := r.cache.Do(cas, func() (ResolvedID, error) {
		cid, err := resilience.Retry(ctx, r.retry, "resolve", func(ctx context.Context) (int64, error) {
			metrics.ObserveOutbound("resolve")
			return resilience.Do(r.breaker, func() (int64, error) {
				return r.client.ResolveCID(ctx, cas)
			})
		})
		if errors.Is(err, pubchem.ErrNotFound) {
			return ResolvedID{}, nil
		}
		if err != nil {
			return ResolvedID{}, err
		}
		return ResolvedID{CID: cid, Found: true}, nil
	})
	observeCache(src)

	if err != nil {
		// Retries exhausted: treat as unresolved for this request only, do
		// not cache. The anomaly is flagged transient for operators.
		r.tracker.Record(cas, model.OutcomeMiss)
		return ResolvedID{}, []model.AnomalyRecord{
			model.NewTransientAnomaly(cas, model.StageResolution, err.Error()),
		}
	}

	switch {
	case src == cache.SourceCached:
		r.tracker.Record(cas, model.OutcomeCached)
	case id.Found:
		r.tracker.Record(cas, model.OutcomeHit)
	default:
		r.tracker.Record(cas, model.OutcomeMiss)
	}

	if !id.Found {
		return id, []model.AnomalyRecord{
			model.NewAnomaly(cas, model.StageResolution, model.KindNotFound,
				"no database entry for CAS"),
		}
	}
	return id, nil
}

func observeCache(src cache.Source) {
	switch src {
	case cache.SourceCached:
		metrics.ObserveCache("cached")
	case cache.SourceShared:
		metrics.ObserveCache("shared")
	default:
		metrics.ObserveCache("computed")
	}
}
