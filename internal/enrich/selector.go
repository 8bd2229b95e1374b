package enrich

import (
	"github.com/chemstack/formulant/internal/model"
	"github.com/chemstack/formulant/internal/registry"
	"github.com/chemstack/formulant/pkg/pubchem"
)

// SMILESCandidate is one labeled SMILES string reported by the source.
// Sources report multiple variants in no reliable order.
type SMILESCandidate struct {
	Label string
	Value string
}

// SelectSMILES picks exactly one SMILES string from the reported candidates.
// Priority: the first candidate labeled "Canonical"; else the first labeled
// "Isomeric"; else the first candidate of any other label.
func SelectSMILES(candidates []SMILESCandidate) (string, bool) {
	for _, want := range []string{"Canonical", "Isomeric"} {
		for _, c := range candidates {
			if c.Label == want && c.Value != "" {
				return c.Value, true
			}
		}
	}
	for _, c := range candidates {
		if c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// SelectDescriptors extracts the six descriptors from a raw property payload
// using the registry's tag mapping. Absence of any single field never blocks
// the others.
func SelectDescriptors(reg *registry.Registry, p pubchem.Payload) model.DescriptorRecord {
	var rec model.DescriptorRecord

	candidates := make([]SMILESCandidate, 0, len(reg.SMILES))
	for _, s := range reg.SMILES {
		if v, ok := p.Str(s.Tag); ok {
			candidates = append(candidates, SMILESCandidate{Label: s.Label, Value: v})
		}
	}
	if smiles, ok := SelectSMILES(candidates); ok {
		rec.SMILES = &smiles
	}

	for _, n := range reg.Numeric {
		if n.Kind == "int" {
			v, ok := p.Int(n.Tag)
			if !ok {
				continue
			}
			if n.Field == "hydrogenBondAcceptor" {
				rec.HydrogenBondAcceptor = &v
			}
			continue
		}
		v, ok := p.Num(n.Tag)
		if !ok {
			continue
		}
		switch n.Field {
		case "polarSurfaceArea":
			rec.PolarSurfaceArea = &v
		case "molecularWeight":
			rec.MolecularWeight = &v
		case "logP":
			rec.LogP = &v
		case "compoundComplexity":
			rec.CompoundComplexity = &v
		}
	}

	return rec
}
