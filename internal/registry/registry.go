// Package registry defines which PubChem property tags feed which
// descriptor fields. The default mapping ships embedded; deployments can
// point registry.path at an override file when PubChem renames a tag.
package registry

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed properties.yaml
var embedded []byte

// SMILESSource is one payload tag that may carry a SMILES string, with the
// label the selector keys its preference order on.
type SMILESSource struct {
	Tag   string `yaml:"tag"`
	Label string `yaml:"label"`
}

// NumericSource maps one payload tag onto one numeric descriptor field.
// Kind is "float" (default) or "int".
type NumericSource struct {
	Tag   string `yaml:"tag"`
	Field string `yaml:"field"`
	Kind  string `yaml:"kind"`
}

// Registry is the full tag-to-descriptor mapping.
type Registry struct {
	SMILES  []SMILESSource  `yaml:"smiles"`
	Numeric []NumericSource `yaml:"numeric"`
}

// knownFields are the descriptor fields a numeric source may target.
var knownFields = map[string]bool{
	"polarSurfaceArea":     true,
	"molecularWeight":      true,
	"logP":                 true,
	"hydrogenBondAcceptor": true,
	"compoundComplexity":   true,
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}
	return parse(data)
}

// Default returns the embedded registry.
func Default() *Registry {
	r, err := parse(embedded)
	if err != nil {
		// The embedded document is compiled in; failing to parse it is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return r
}

func parse(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal")
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Registry) validate() error {
	if len(r.SMILES) == 0 {
		return eris.New("registry: no smiles sources defined")
	}
	for _, s := range r.SMILES {
		if s.Tag == "" || s.Label == "" {
			return eris.New("registry: smiles source missing tag or label")
		}
	}
	for _, n := range r.Numeric {
		if n.Tag == "" {
			return eris.New("registry: numeric source missing tag")
		}
		if !knownFields[n.Field] {
			return eris.Errorf("registry: unknown descriptor field %q", n.Field)
		}
		if n.Kind != "" && n.Kind != "float" && n.Kind != "int" {
			return eris.Errorf("registry: unknown kind %q for tag %s", n.Kind, n.Tag)
		}
	}
	return nil
}

// RequestTags returns every payload tag to ask PubChem for, in declaration
// order, deduplicated.
func (r *Registry) RequestTags() []string {
	seen := make(map[string]bool, len(r.SMILES)+len(r.Numeric))
	var tags []string
	for _, s := range r.SMILES {
		if !seen[s.Tag] {
			seen[s.Tag] = true
			tags = append(tags, s.Tag)
		}
	}
	for _, n := range r.Numeric {
		if !seen[n.Tag] {
			seen[n.Tag] = true
			tags = append(tags, n.Tag)
		}
	}
	return tags
}
