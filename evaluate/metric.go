// Package evaluate scores trained classifiers on the held-out test
// partition and assembles one immutable metric record per model family.
package evaluate

import "fmt"

// Metric is a tagged optional metric value. Undefined metrics render as
// N/A instead of carrying a sentinel; definedness is explicit so callers
// cannot mistake a missing metric for a zero score.
type Metric struct {
	value   float64
	defined bool
}

// Defined wraps a computed metric value.
func Defined(v float64) Metric {
	return Metric{value: v, defined: true}
}

// NotApplicable is the undefined metric value.
var NotApplicable = Metric{}

// IsDefined reports whether the metric was computed.
func (m Metric) IsDefined() bool {
	return m.defined
}

// Value returns the metric value and whether it is defined.
func (m Metric) Value() (float64, bool) {
	return m.value, m.defined
}

// String renders the metric with four decimal places, or N/A.
func (m Metric) String() string {
	if !m.defined {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", m.value)
}
