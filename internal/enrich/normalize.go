package enrich

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chemstack/formulant/internal/model"
)

// ParseConcentration interprets an untrusted raw concentration. It returns
// the parsed value and an empty reason on success, or zero and the reason
// the value was rejected. Only positive finite numbers are accepted;
// dropping a component is the last resort, applied when the numeric intent
// cannot be determined (or the value contributes nothing to the mixture).
func ParseConcentration(raw any) (float64, string) {
	switch v := raw.(type) {
	case nil:
		return 0, "missing value"
	case float64:
		return acceptNumber(v)
	case float32:
		return acceptNumber(float64(v))
	case int:
		return acceptNumber(float64(v))
	case int64:
		return acceptNumber(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, "unparsable number: " + v.String()
		}
		return acceptNumber(f)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, "empty string"
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, "unparsable string: " + s
		}
		return acceptNumber(f)
	default:
		return 0, fmt.Sprintf("unsupported type %T", raw)
	}
}

func acceptNumber(f float64) (float64, string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "non-finite value"
	}
	if f <= 0 {
		return 0, "non-positive value"
	}
	return f, ""
}

// NormalizedFormula is the result of concentration normalization: the
// surviving components carry final concentrations that sum to exactly 100.
type NormalizedFormula struct {
	Components []model.ParsedComponent
	Dropped    []model.RawComponent
	Anomalies  []model.AnomalyRecord
}

// Normalize validates every raw concentration and rescales the accepted ones
// to sum to 100. Components whose value cannot be interpreted as a positive
// finite number are dropped with an anomaly; if nothing survives, the output
// formula is empty and a single empty-formula anomaly is recorded.
func Normalize(formula []model.RawComponent) NormalizedFormula {
	var out NormalizedFormula

	var sum float64
	for _, rc := range formula {
		val, reason := ParseConcentration(rc.Conc)
		if reason != "" {
			out.Dropped = append(out.Dropped, rc)
			out.Anomalies = append(out.Anomalies,
				model.NewAnomaly(rc.CAS, model.StageConcentration, model.KindUnparsable, reason))
			continue
		}
		out.Components = append(out.Components, model.ParsedComponent{
			CAS:       rc.CAS,
			ConcValue: val,
			ConcValid: true,
		})
		sum += val
	}

	if sum <= 0 || len(out.Components) == 0 {
		out.Components = nil
		out.Anomalies = append(out.Anomalies,
			model.NewAnomaly("", model.StageConcentration, model.KindEmptyFormula,
				"no component with a usable concentration"))
		return out
	}

	for i := range out.Components {
		out.Components[i].ConcValue = out.Components[i].ConcValue / sum * 100
	}

	// Compensate the last component so the literal sum-to-100 property holds
	// despite floating summation drift.
	var scaled float64
	for _, pc := range out.Components[:len(out.Components)-1] {
		scaled += pc.ConcValue
	}
	out.Components[len(out.Components)-1].ConcValue = 100 - scaled

	return out
}
