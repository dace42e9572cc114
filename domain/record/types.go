// Package record defines the typed boundary between raw collaborator data
// and the analysis calculators. Raw dict-like records are converted into
// ImpactRecord values here; downstream packages never see untyped maps.
package record

import "fmt"

// ImpactRecord is a validated operational record with a numeric impact value.
// Records are immutable value objects created fresh per analysis call.
type ImpactRecord struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Impact     float64        `json:"impact"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Warning captures a record rejected (or patched) during normalization.
// Warnings are collected, never raised, in lenient mode.
type Warning struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// String returns a human-readable form suitable for logs
func (w Warning) String() string {
	return fmt.Sprintf("record %d: field %s: %s", w.Index, w.Field, w.Reason)
}
