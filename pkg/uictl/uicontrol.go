// Package uictl defines small read-only views of live hardware state that UI
// components can poll without knowing the device behind them.
package uictl

import "golang.org/x/exp/constraints"

// Number is any integer or float type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Levels reads a set of values, such as per-bar input levels.
type Levels[N Number] interface {
	Read() []N
}

// LevelsFunc adapts a function to Levels.
type LevelsFunc[N Number] func() []N

// Read calls f.
func (f LevelsFunc[N]) Read() []N {
	return f()
}
