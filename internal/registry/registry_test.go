package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	r := Default()
	require.NotNil(t, r)

	labels := make(map[string]bool)
	for _, s := range r.SMILES {
		labels[s.Label] = true
	}
	assert.True(t, labels["Canonical"])
	assert.True(t, labels["Isomeric"])

	fields := make(map[string]bool)
	for _, n := range r.Numeric {
		fields[n.Field] = true
	}
	for _, want := range []string{
		"polarSurfaceArea", "molecularWeight", "logP",
		"hydrogenBondAcceptor", "compoundComplexity",
	} {
		assert.True(t, fields[want], "default registry must cover %s", want)
	}
}

func TestRequestTags_OrderedAndDeduplicated(t *testing.T) {
	t.Parallel()

	r := &Registry{
		SMILES: []SMILESSource{
			{Tag: "CanonicalSMILES", Label: "Canonical"},
			{Tag: "IsomericSMILES", Label: "Isomeric"},
		},
		Numeric: []NumericSource{
			{Tag: "TPSA", Field: "polarSurfaceArea"},
			{Tag: "TPSA", Field: "polarSurfaceArea"}, // duplicate tag
		},
	}
	assert.Equal(t, []string{"CanonicalSMILES", "IsomericSMILES", "TPSA"}, r.RequestTags())
}

func TestLoad_OverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "props.yaml")
	doc := `
smiles:
  - tag: SMILES
    label: Canonical
numeric:
  - tag: MW
    field: molecularWeight
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, r.SMILES, 1)
	assert.Equal(t, "MW", r.Numeric[0].Tag)
}

func TestLoad_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  string
	}{
		{"no smiles sources", `numeric: [{tag: TPSA, field: polarSurfaceArea}]`},
		{"unknown field", "smiles: [{tag: S, label: Canonical}]\nnumeric: [{tag: X, field: boilingPoint}]"},
		{"unknown kind", "smiles: [{tag: S, label: Canonical}]\nnumeric: [{tag: X, field: logP, kind: complex}]"},
		{"missing label", `smiles: [{tag: S}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "props.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.doc), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
