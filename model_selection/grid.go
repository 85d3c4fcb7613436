package model_selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orbitalml/landcast/pkg/errors"
)

// ParamGrid is a finite, ordered hyperparameter grid. Parameters enumerate
// in the order they were added, with the last-added parameter varying
// fastest; the enumeration order is part of the contract because score
// ties during search are broken by the first-encountered configuration.
type ParamGrid struct {
	names  []string
	values map[string][]interface{}
}

// NewParamGrid creates an empty grid.
func NewParamGrid() *ParamGrid {
	return &ParamGrid{
		values: make(map[string][]interface{}),
	}
}

// Add appends a parameter and its candidate values. Returns the grid for
// chaining.
func (g *ParamGrid) Add(name string, values ...interface{}) *ParamGrid {
	if _, ok := g.values[name]; !ok {
		g.names = append(g.names, name)
	}
	g.values[name] = values
	return g
}

// Validate checks that the grid is well-formed: at least one parameter,
// each with at least one value.
func (g *ParamGrid) Validate() error {
	if len(g.names) == 0 {
		return errors.NewValidationError("grid", "must declare at least one parameter", nil)
	}
	for _, name := range g.names {
		if len(g.values[name]) == 0 {
			return errors.NewValidationError(name, "must declare at least one value", nil)
		}
	}
	return nil
}

// Size returns the number of configurations in the grid.
func (g *ParamGrid) Size() int {
	size := 1
	for _, name := range g.names {
		size *= len(g.values[name])
	}
	return size
}

// Enumerate returns every configuration in deterministic order.
func (g *ParamGrid) Enumerate() []map[string]interface{} {
	configs := []map[string]interface{}{{}}
	for _, name := range g.names {
		var next []map[string]interface{}
		for _, config := range configs {
			for _, value := range g.values[name] {
				combined := make(map[string]interface{}, len(config)+1)
				for k, v := range config {
					combined[k] = v
				}
				combined[name] = value
				next = append(next, combined)
			}
		}
		configs = next
	}
	return configs
}

// Contains reports whether params names a configuration of this grid:
// every grid parameter present with one of its declared values.
func (g *ParamGrid) Contains(params map[string]interface{}) bool {
	if len(params) != len(g.names) {
		return false
	}
	for _, name := range g.names {
		v, ok := params[name]
		if !ok {
			return false
		}
		found := false
		for _, candidate := range g.values[name] {
			if candidate == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FormatParams renders a configuration as a stable, human-readable string
// with keys in alphabetical order.
func FormatParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, ", ")
}
