package interview

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is returned when an operation is not allowed in the
// session's current state.
var ErrInvalidTransition = errors.New("invalid interview transition")

// Session owns the state of one voice interview: the current step, the
// collected answers and the streamed workout plan. It is not safe for
// concurrent use; the UI event loop is its only caller.
type Session struct {
	state      State
	step       Step
	answers    Answers
	transcript string
	plan       strings.Builder
	err        error
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{}
}

// Reset clears answers, transcript, plan, error and step, returning the
// session to Idle.
func (s *Session) Reset() {
	s.state = StateIdle
	s.step = StepTime
	s.answers = Answers{}
	s.transcript = ""
	s.plan.Reset()
	s.err = nil
}

// Start begins a new interview at the first step. A finished or failed
// session is reset first.
func (s *Session) Start() error {
	switch s.state {
	case StateIdle, StateDone, StateFailed:
		s.Reset()
		s.state = StateRecording

		return nil
	default:
		return s.invalid("start")
	}
}

// Stop ends the recording of the current step and waits for its transcript.
func (s *Session) Stop() error {
	if s.state != StateRecording {
		return s.invalid("stop")
	}

	s.state = StateProcessing

	return nil
}

// Transcribed stores the transcript of the current step in its answer field.
// The session moves on to recording the next step, or to Generating after
// the last one.
func (s *Session) Transcribed(text string) error {
	if s.state != StateProcessing {
		return s.invalid("store transcript")
	}

	text = strings.TrimSpace(text)
	s.transcript = text
	s.answers.Set(s.step, text)

	if s.step.Last() {
		s.state = StateGenerating

		return nil
	}

	s.step++
	s.state = StateRecording

	return nil
}

// Fail halts the interview with err. The step and any answers collected so
// far are kept until the next Start.
func (s *Session) Fail(err error) {
	s.state = StateFailed
	s.err = err
}

// Append adds a streamed chunk to the workout plan.
func (s *Session) Append(chunk string) error {
	if s.state != StateGenerating {
		return s.invalid("append workout text")
	}

	s.plan.WriteString(chunk)

	return nil
}

// Finish marks the workout plan as complete.
func (s *Session) Finish() error {
	if s.state != StateGenerating {
		return s.invalid("finish")
	}

	s.state = StateDone

	return nil
}

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Step returns the step being recorded or processed.
func (s *Session) Step() Step { return s.step }

// Answers returns a copy of the collected answers.
func (s *Session) Answers() Answers { return s.answers }

// Transcript returns the most recent transcript.
func (s *Session) Transcript() string { return s.transcript }

// Plan returns the workout text streamed so far.
func (s *Session) Plan() string { return s.plan.String() }

// Err returns the error that halted the interview, if any.
func (s *Session) Err() error { return s.err }

// Progress returns the fraction of steps answered, in [0, 1].
func (s *Session) Progress() float64 {
	switch s.state {
	case StateGenerating, StateDone:
		return 1
	case StateIdle:
		return 0
	default:
		return float64(s.step) / StepCount
	}
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("cannot %s while %s: %w", op, s.state, ErrInvalidTransition)
}
