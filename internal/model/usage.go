package model

// Outcome classifies a single lookup attempt for the usage tracker.
type Outcome string

const (
	// OutcomeHit means an outbound lookup ran and found the compound.
	OutcomeHit Outcome = "hit"
	// OutcomeMiss means an outbound lookup ran and the compound was not
	// found, or the lookup failed after retries.
	OutcomeMiss Outcome = "miss"
	// OutcomeCached means the result was served from the property cache
	// without touching the external database.
	OutcomeCached Outcome = "cached"
)

// UsageCounter tracks how often a CAS number has been looked up within this
// process run. Counters are keyed by CAS rather than database ID so that
// unresolvable CAS values are counted too. No persistence across restarts.
type UsageCounter struct {
	CAS         string  `json:"cas"`
	LookupCount int64   `json:"lookup_count"`
	LastOutcome Outcome `json:"last_outcome"`
}
