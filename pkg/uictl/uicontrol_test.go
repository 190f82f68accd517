package uictl_test

import (
	"testing"

	"github.com/alkime/snacks/pkg/uictl"
	"github.com/stretchr/testify/assert"
)

func TestLevelsFunc(t *testing.T) {
	calls := 0
	var levels uictl.Levels[float64] = uictl.LevelsFunc[float64](func() []float64 {
		calls++
		return []float64{0.25, 1}
	})

	assert.Equal(t, []float64{0.25, 1}, levels.Read())
	assert.Equal(t, 1, calls)
}
