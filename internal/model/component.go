package model

// RawComponent is one entry of an incoming formula, exactly as received.
// Conc is untrusted: it may be a number, a numeric string, garbage, or null.
type RawComponent struct {
	CAS  string `json:"cas"`
	Conc any    `json:"conc"`
}

// ParsedComponent is a RawComponent after concentration validation. When the
// raw value could not be interpreted as a positive finite number, ConcValid
// is false and ConcValue is zero.
type ParsedComponent struct {
	CAS       string
	ConcValue float64
	ConcValid bool
}

// DescriptorRecord holds the six chemical descriptors retrieved for a
// compound. Each field is independently optional: PubChem reports them
// per-compound and any subset may be absent.
type DescriptorRecord struct {
	SMILES               *string
	PolarSurfaceArea     *float64
	MolecularWeight      *float64
	LogP                 *float64
	HydrogenBondAcceptor *int
	CompoundComplexity   *float64
}

// Empty reports whether no descriptor field is populated.
func (d DescriptorRecord) Empty() bool {
	return d.SMILES == nil &&
		d.PolarSurfaceArea == nil &&
		d.MolecularWeight == nil &&
		d.LogP == nil &&
		d.HydrogenBondAcceptor == nil &&
		d.CompoundComplexity == nil
}

// MissingFields lists the descriptor fields that are absent, using the wire
// names of the response payload. Order is fixed so anomaly output is stable.
func (d DescriptorRecord) MissingFields() []string {
	var missing []string
	if d.SMILES == nil {
		missing = append(missing, "smiles")
	}
	if d.PolarSurfaceArea == nil {
		missing = append(missing, "polarSurfaceArea")
	}
	if d.MolecularWeight == nil {
		missing = append(missing, "molecularWeight")
	}
	if d.LogP == nil {
		missing = append(missing, "logP")
	}
	if d.HydrogenBondAcceptor == nil {
		missing = append(missing, "hydrogenBondAcceptor")
	}
	if d.CompoundComplexity == nil {
		missing = append(missing, "compoundComplexity")
	}
	return missing
}

// EnrichedComponent is one entry of the outgoing formula: the normalized
// concentration plus whatever descriptors were available. Absent descriptors
// are omitted from the JSON encoding.
type EnrichedComponent struct {
	CAS                  string   `json:"cas"`
	Conc                 float64  `json:"conc"`
	SMILES               *string  `json:"smiles,omitempty"`
	PolarSurfaceArea     *float64 `json:"polarSurfaceArea,omitempty"`
	MolecularWeight      *float64 `json:"molecularWeight,omitempty"`
	LogP                 *float64 `json:"logP,omitempty"`
	HydrogenBondAcceptor *int     `json:"hydrogenBondAcceptor,omitempty"`
	CompoundComplexity   *float64 `json:"compoundComplexity,omitempty"`
}

// NewEnrichedComponent merges a normalized concentration with a descriptor
// record. A component that resolved to nothing still gets an output entry
// with only CAS and concentration set.
func NewEnrichedComponent(cas string, conc float64, d DescriptorRecord) EnrichedComponent {
	return EnrichedComponent{
		CAS:                  cas,
		Conc:                 conc,
		SMILES:               d.SMILES,
		PolarSurfaceArea:     d.PolarSurfaceArea,
		MolecularWeight:      d.MolecularWeight,
		LogP:                 d.LogP,
		HydrogenBondAcceptor: d.HydrogenBondAcceptor,
		CompoundComplexity:   d.CompoundComplexity,
	}
}
