package enrich

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemstack/formulant/internal/model"
)

func TestParseConcentration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		raw    any
		want   float64
		reject bool
	}{
		{"float", 24.12, 24.12, false},
		{"int", 50, 50, false},
		{"numeric string", "75.88", 75.88, false},
		{"scientific notation", "2.5e1", 25, false},
		{"json number", json.Number("12.5"), 12.5, false},
		{"padded string", "  30.0 ", 30, false},
		{"garbage string", "abc", 0, true},
		{"empty string", "", 0, true},
		{"nil", nil, 0, true},
		{"zero", 0.0, 0, true},
		{"zero string", "0", 0, true},
		{"negative", -5.0, 0, true},
		{"nan", math.NaN(), 0, true},
		{"infinity", math.Inf(1), 0, true},
		{"bool", true, 0, true},
		{"object", map[string]any{"v": 1}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := ParseConcentration(tc.raw)
			if tc.reject {
				assert.NotEmpty(t, reason)
				assert.Zero(t, got)
			} else {
				assert.Empty(t, reason)
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestNormalize_RescalesToExactly100(t *testing.T) {
	t.Parallel()

	formula := []model.RawComponent{
		{CAS: "58-08-2", Conc: 24.12},
		{CAS: "50-00-0", Conc: 75.88},
	}
	out := Normalize(formula)

	require.Len(t, out.Components, 2)
	assert.Empty(t, out.Dropped)
	assert.Empty(t, out.Anomalies)

	var sum float64
	for _, pc := range out.Components {
		sum += pc.ConcValue
	}
	assert.Equal(t, 100.0, sum, "compensation must make the sum literally 100")
}

func TestNormalize_ManyComponentsSumWithinTolerance(t *testing.T) {
	t.Parallel()

	var formula []model.RawComponent
	for i := 0; i < 37; i++ {
		formula = append(formula, model.RawComponent{CAS: "x", Conc: 0.1 * float64(i+1)})
	}
	out := Normalize(formula)
	require.Len(t, out.Components, 37)

	var sum float64
	for _, pc := range out.Components {
		sum += pc.ConcValue
	}
	assert.InEpsilon(t, 100.0, sum, 1e-6)
}

func TestNormalize_DropsUnparsableAndRescalesRest(t *testing.T) {
	t.Parallel()

	formula := []model.RawComponent{
		{CAS: "X", Conc: "abc"},
		{CAS: "Y", Conc: 50},
	}
	out := Normalize(formula)

	require.Len(t, out.Components, 1)
	assert.Equal(t, "Y", out.Components[0].CAS)
	assert.Equal(t, 100.0, out.Components[0].ConcValue)

	require.Len(t, out.Dropped, 1)
	assert.Equal(t, "X", out.Dropped[0].CAS)

	require.Len(t, out.Anomalies, 1)
	assert.Equal(t, "X", out.Anomalies[0].CAS)
	assert.Equal(t, model.StageConcentration, out.Anomalies[0].Stage)
	assert.Equal(t, model.KindUnparsable, out.Anomalies[0].Kind)
}

func TestNormalize_AllDroppedYieldsEmptyFormula(t *testing.T) {
	t.Parallel()

	formula := []model.RawComponent{
		{CAS: "A", Conc: nil},
		{CAS: "B", Conc: "not a number"},
		{CAS: "C", Conc: -1},
	}
	out := Normalize(formula)

	assert.Empty(t, out.Components)
	assert.Len(t, out.Dropped, 3)

	require.Len(t, out.Anomalies, 4, "three drops plus one empty-formula record")
	last := out.Anomalies[len(out.Anomalies)-1]
	assert.Equal(t, model.KindEmptyFormula, last.Kind)
}

func TestNormalize_EmptyInput(t *testing.T) {
	t.Parallel()

	out := Normalize(nil)
	assert.Empty(t, out.Components)
	require.Len(t, out.Anomalies, 1)
	assert.Equal(t, model.KindEmptyFormula, out.Anomalies[0].Kind)
}

func TestNormalize_ExplicitZeroIsDropped(t *testing.T) {
	t.Parallel()

	formula := []model.RawComponent{
		{CAS: "A", Conc: 0},
		{CAS: "B", Conc: 10},
	}
	out := Normalize(formula)

	require.Len(t, out.Components, 1)
	assert.Equal(t, "B", out.Components[0].CAS)
	require.Len(t, out.Anomalies, 1)
	assert.Contains(t, out.Anomalies[0].Detail, "non-positive")
}
