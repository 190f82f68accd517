package workflow

import "github.com/alkime/snacks/internal/audio"

// micStartedMsg reports whether the microphone came on.
type micStartedMsg struct {
	err error
}

// clipRecordedMsg carries the encoded answer once the microphone stops.
type clipRecordedMsg struct {
	clip audio.Clip
	err  error
}

// transcribedMsg carries the server's transcript for the current step.
type transcribedMsg struct {
	text string
	err  error
}

// workoutChunkMsg is one piece of the streamed plan.
type workoutChunkMsg struct {
	text string
}

// workoutDoneMsg ends the stream.
type workoutDoneMsg struct{}

// workoutFailedMsg ends the stream with an error.
type workoutFailedMsg struct {
	err error
}
