package interview_test

import (
	"encoding/json"
	"testing"

	"github.com/alkime/snacks/internal/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswers_SetWritesMatchingField(t *testing.T) {
	t.Parallel()

	var a interview.Answers
	a.Set(interview.StepTime, "30 minutes")

	assert.Equal(t, "30 minutes", a.Time)
	assert.Empty(t, a.EnergyLevel)
	assert.Empty(t, a.DesiredOutcome)
	assert.False(t, a.Complete())

	a.Set(interview.StepEnergyLevel, "high")
	a.Set(interview.StepDesiredOutcome, "strength")
	assert.True(t, a.Complete())
	assert.Equal(t, "strength", a.Get(interview.StepDesiredOutcome))
}

func TestAnswers_SetIgnoresUnknownStep(t *testing.T) {
	t.Parallel()

	var a interview.Answers
	a.Set(interview.Step(9), "ignored")

	assert.True(t, a.Empty())
	assert.Empty(t, a.Get(interview.Step(9)))
}

func TestAnswers_JSONFieldNames(t *testing.T) {
	t.Parallel()

	a := interview.Answers{Time: "20 minutes", EnergyLevel: "high", DesiredOutcome: "strength"}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"20 minutes","energyLevel":"high","desiredOutcome":"strength"}`, string(data))
}
