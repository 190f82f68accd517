// Package interview models the three-question voice interview: the fixed
// questions, the answers collected for them, and the session state machine
// that drives recording, transcription and workout generation.
package interview

import (
	"strconv"
	"strings"
)

// Step identifies one of the fixed interview questions.
type Step int

const (
	// StepTime asks how much time the user has.
	StepTime Step = iota
	// StepEnergyLevel asks for the user's current energy level.
	StepEnergyLevel
	// StepDesiredOutcome asks what the user wants out of the workout.
	StepDesiredOutcome
)

// StepCount is the number of interview steps.
const StepCount = 3

// stepInfo ties a step to its question, its display label and the Answers
// field it fills. Reordering this table reorders the interview.
type stepInfo struct {
	question string
	label    string
	field    func(*Answers) *string
}

var steps = [StepCount]stepInfo{
	StepTime: {
		question: "How much time do you have?",
		label:    "Time",
		field:    func(a *Answers) *string { return &a.Time },
	},
	StepEnergyLevel: {
		question: "What's your energy level?",
		label:    "Energy Level",
		field:    func(a *Answers) *string { return &a.EnergyLevel },
	},
	StepDesiredOutcome: {
		question: "What's your desired outcome?",
		label:    "Goal",
		field:    func(a *Answers) *string { return &a.DesiredOutcome },
	},
}

// Steps returns all steps in interview order.
func Steps() []Step {
	return []Step{StepTime, StepEnergyLevel, StepDesiredOutcome}
}

// Valid reports whether s is one of the interview steps.
func (s Step) Valid() bool {
	return s >= 0 && s < StepCount
}

// Question returns the question asked at this step, or "" for an unknown step.
func (s Step) Question() string {
	if !s.Valid() {
		return ""
	}

	return steps[s].question
}

// Label returns the short display name of the answer collected at this step.
func (s Step) Label() string {
	if !s.Valid() {
		return ""
	}

	return steps[s].label
}

// Last reports whether s is the final interview step.
func (s Step) Last() bool {
	return s == StepCount-1
}

// String returns the step index as sent on the wire.
func (s Step) String() string {
	return strconv.Itoa(int(s))
}

// ParseStep decodes a wire step index. The second result is false when raw
// is not a number or names no known step.
func ParseStep(raw string) (Step, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}

	s := Step(n)

	return s, s.Valid()
}

// QuestionFor returns the question for a wire step index. Unknown or
// malformed indexes yield an empty question rather than an error.
func QuestionFor(raw string) string {
	s, ok := ParseStep(raw)
	if !ok {
		return ""
	}

	return s.Question()
}
