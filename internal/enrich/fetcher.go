package enrich

import (
	"context"
	"errors"
	"strconv"

	"github.com/chemstack/formulant/internal/cache"
	"github.com/chemstack/formulant/internal/metrics"
	"github.com/chemstack/formulant/internal/model"
	"github.com/chemstack/formulant/internal/registry"
	"github.com/chemstack/formulant/internal/resilience"
	"github.com/chemstack/formulant/pkg/pubchem"
)

// CompoundRecord is the memoized outcome of a descriptor fetch for one CID.
// Found=false means the database had no property row for the CID.
type CompoundRecord struct {
	Descriptors model.DescriptorRecord
	Found       bool
}

// Fetcher retrieves descriptor records by CID through the property cache and
// single-flight coordinator, with the same retry policy as the resolver.
type Fetcher struct {
	client  pubchem.Client
	reg     *registry.Registry
	tags    []string
	cache   *cache.Lookup[CompoundRecord]
	breaker *resilience.Breaker
	retry   resilience.Policy
}

// NewFetcher creates a fetcher with its own CID-keyed descriptor cache.
func NewFetcher(client pubchem.Client, reg *registry.Registry, breaker *resilience.Breaker, retry resilience.Policy) *Fetcher {
	return &Fetcher{
		client:  client,
		reg:     reg,
		tags:    reg.RequestTags(),
		cache:   cache.New[CompoundRecord](),
		breaker: breaker,
		retry:   retry,
	}
}

// Fetch returns the descriptor record for cid. A reachable record with some
// fields absent is not an error: the partial record is returned alongside a
// descriptor-stage anomaly per missing field, so consumers can tell
// "property not reported" from "compound not found". Anomalies are derived
// from the record on every call, cached or not — each request gets its own.
func (f *Fetcher) Fetch(ctx context.Context, cas string, cid int64) (model.DescriptorRecord, []model.AnomalyRecord) {
	rec, src, err := f.cache.Do(strconv.FormatInt(cid, 10), func() (CompoundRecord, error) {
		payload, err := resilience.Retry(ctx, f.retry, "fetch", func(ctx context.Context) (pubchem.Payload, error) {
			metrics.ObserveOutbound("fetch")
			return resilience.Do(f.breaker, func() (pubchem.Payload, error) {
				return f.client.FetchProperties(ctx, cid, f.tags)
			})
		})
		if errors.Is(err, pubchem.ErrNotFound) {
			return CompoundRecord{}, nil
		}
		if err != nil {
			return CompoundRecord{}, err
		}
		return CompoundRecord{
			Descriptors: SelectDescriptors(f.reg, payload),
			Found:       true,
		}, nil
	})
	observeCache(src)

	if err != nil {
		return model.DescriptorRecord{}, []model.AnomalyRecord{
			model.NewTransientAnomaly(cas, model.StageFetch, err.Error()),
		}
	}

	if !rec.Found {
		return model.DescriptorRecord{}, []model.AnomalyRecord{
			model.NewAnomaly(cas, model.StageFetch, model.KindNotFound,
				"no property record for compound"),
		}
	}

	var anomalies []model.AnomalyRecord
	for _, field := range rec.Descriptors.MissingFields() {
		anomalies = append(anomalies,
			model.NewAnomaly(cas, model.StageDescriptor, model.KindMissingField, field))
	}
	return rec.Descriptors, anomalies
}
