package model

import "time"

// Stage identifies which part of the enrichment pipeline produced an anomaly.
type Stage string

const (
	StageResolution    Stage = "resolution"
	StageFetch         Stage = "fetch"
	StageDescriptor    Stage = "descriptor"
	StageConcentration Stage = "concentration"
)

// Anomaly kinds. Kinds are stable identifiers consumed by post-hoc analysis,
// not display strings.
const (
	KindNotFound     = "not-found"
	KindTransient    = "transient-failure"
	KindMissingField = "missing-field"
	KindUnparsable   = "unparsable-or-nonpositive"
	KindEmptyFormula = "empty-formula"
)

// AnomalyRecord documents one data-quality problem encountered during
// enrichment. Records are returned to the orchestrator for merge decisions
// and mirrored to the durable anomaly sink; they are not part of the
// response payload.
type AnomalyRecord struct {
	CAS       string    `json:"cas,omitempty"`
	Stage     Stage     `json:"stage"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	Transient bool      `json:"transient,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// NewAnomaly builds a record stamped with the current time.
func NewAnomaly(cas string, stage Stage, kind, detail string) AnomalyRecord {
	return AnomalyRecord{
		CAS:    cas,
		Stage:  stage,
		Kind:   kind,
		Detail: detail,
		At:     time.Now().UTC(),
	}
}

// NewTransientAnomaly builds a record for a lookup that failed after retries
// exhausted. Flagged for operator attention: the data may exist, the service
// just could not be reached.
func NewTransientAnomaly(cas string, stage Stage, detail string) AnomalyRecord {
	rec := NewAnomaly(cas, stage, KindTransient, detail)
	rec.Transient = true
	return rec
}
