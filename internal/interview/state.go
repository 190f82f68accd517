package interview

// State is the phase of an interview session.
type State int

const (
	// StateIdle is a fresh session waiting for the user to start.
	StateIdle State = iota
	// StateRecording is capturing the answer for the current step.
	StateRecording
	// StateProcessing is waiting on the transcription of the current step.
	StateProcessing
	// StateGenerating is streaming the workout plan.
	StateGenerating
	// StateDone holds a complete workout plan.
	StateDone
	// StateFailed holds the error that halted the interview.
	StateFailed
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRecording:
		return "Recording"
	case StateProcessing:
		return "Processing"
	case StateGenerating:
		return "Generating"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Busy reports whether a network call is in flight. The voice control is
// disabled while busy.
func (s State) Busy() bool {
	return s == StateProcessing || s == StateGenerating
}
