package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"opsimpact/domain/core"
)

const (
	defaultIDField    = "id"
	defaultLabelField = "label"
)

// Option configures a Normalize call
type Option func(*options)

type options struct {
	strict     bool
	idField    string
	labelField string
}

// Strict makes the first invalid record abort the whole call with a
// validation error instead of collecting a warning.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// WithIDField overrides the field holding the record identifier
func WithIDField(field string) Option {
	return func(o *options) { o.idField = field }
}

// WithLabelField overrides the field holding the human-readable label
func WithLabelField(field string) Option {
	return func(o *options) { o.labelField = field }
}

// Normalize validates raw dict-like records and extracts a typed
// ImpactRecord per valid input. The impact field must hold a finite
// non-negative number; records failing this are skipped with a collected
// Warning (lenient mode) or abort the call (strict mode). Relative order
// of valid records is preserved.
func Normalize(raw []map[string]any, impactField string, opts ...Option) ([]ImpactRecord, []Warning, error) {
	if impactField == "" {
		return nil, nil, core.NewInvalidInputError("impact_field", impactField, "must be non-empty")
	}

	o := options{idField: defaultIDField, labelField: defaultLabelField}
	for _, opt := range opts {
		opt(&o)
	}

	records := make([]ImpactRecord, 0, len(raw))
	var warnings []Warning

	reject := func(index int, field, reason string) error {
		if o.strict {
			return core.NewValidationError(field, fmt.Sprintf("record %d: %s", index, reason))
		}
		warnings = append(warnings, Warning{Index: index, Field: field, Reason: reason})
		return nil
	}

	for i, r := range raw {
		if r == nil {
			if err := reject(i, impactField, "record is nil"); err != nil {
				return nil, nil, err
			}
			continue
		}

		rawImpact, ok := r[impactField]
		if !ok {
			if err := reject(i, impactField, "field missing"); err != nil {
				return nil, nil, err
			}
			continue
		}

		impact, ok := toFloat(rawImpact)
		if !ok {
			if err := reject(i, impactField, fmt.Sprintf("value %v is not numeric", rawImpact)); err != nil {
				return nil, nil, err
			}
			continue
		}
		if math.IsNaN(impact) || math.IsInf(impact, 0) {
			if err := reject(i, impactField, "value is not finite"); err != nil {
				return nil, nil, err
			}
			continue
		}
		if impact < 0 {
			if err := reject(i, impactField, fmt.Sprintf("value %v is negative", impact)); err != nil {
				return nil, nil, err
			}
			continue
		}

		id := stringField(r, o.idField)
		if id == "" {
			// Keep the record: a synthetic id keeps downstream dedup keys
			// non-empty, but the gap is still surfaced to the caller.
			id = fmt.Sprintf("record-%d", i)
			warnings = append(warnings, Warning{Index: i, Field: o.idField, Reason: "id missing, synthesized from index"})
		}

		attrs := make(map[string]any, len(r))
		for k, v := range r {
			if k == impactField || k == o.idField || k == o.labelField {
				continue
			}
			attrs[k] = v
		}
		if len(attrs) == 0 {
			attrs = nil
		}

		records = append(records, ImpactRecord{
			ID:         id,
			Label:      stringField(r, o.labelField),
			Impact:     impact,
			Attributes: attrs,
		})
	}

	return records, warnings, nil
}

// toFloat coerces the scalar types collaborators actually send. Booleans
// are deliberately not numbers here.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringField(r map[string]any, field string) string {
	v, ok := r[field]
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", x)
	default:
		return ""
	}
}
