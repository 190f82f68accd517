package workflow

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/alkime/snacks/internal/audio"
	"github.com/alkime/snacks/internal/interview"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// outputChecker provides helpers for testing teatest output.
type outputChecker struct {
	intervl, timeout time.Duration
}

func defaultChecker() outputChecker {
	return outputChecker{
		intervl: 50 * time.Millisecond,
		timeout: 3 * time.Second,
	}
}

func (o outputChecker) check(t *testing.T, tm *teatest.TestModel, checkFunc func(buf []byte) bool) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), checkFunc,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

func (o outputChecker) checkString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	o.check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	})
}

// mockMic implements Microphone for testing.
type mockMic struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	starts   int
	stops    int
}

func (m *mockMic) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.starts++

	return m.startErr
}

func (m *mockMic) Stop(context.Context) (audio.Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stops++
	if m.stopErr != nil {
		return audio.Clip{}, m.stopErr
	}

	return audio.Clip{Data: []byte("mp3"), Filename: audio.DefaultClipFilename, ContentType: audio.MP3ContentType}, nil
}

// mockAPI implements API for testing. Transcripts are returned per step.
type mockAPI struct {
	mu             sync.Mutex
	transcripts    map[interview.Step]string
	transcribeErr  map[interview.Step]error
	chunks         []string
	workoutErr     error
	transcribed    []interview.Step
	workoutAnswers []interview.Answers
	streamsEnded   int
}

func (m *mockAPI) Transcribe(_ context.Context, _ audio.Clip, step interview.Step) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transcribed = append(m.transcribed, step)
	if err := m.transcribeErr[step]; err != nil {
		return "", err
	}

	return m.transcripts[step], nil
}

func (m *mockAPI) GenerateWorkout(_ context.Context, answers interview.Answers) iter.Seq2[string, error] {
	m.mu.Lock()
	m.workoutAnswers = append(m.workoutAnswers, answers)
	m.mu.Unlock()

	return func(yield func(string, error) bool) {
		defer func() {
			m.mu.Lock()
			m.streamsEnded++
			m.mu.Unlock()
		}()

		for _, chunk := range m.chunks {
			if !yield(chunk, nil) {
				return
			}
		}

		if m.workoutErr != nil {
			yield("", m.workoutErr)
		}
	}
}

func (m *mockAPI) workoutCalls() []interview.Answers {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]interview.Answers(nil), m.workoutAnswers...)
}

func (m *mockAPI) endedStreams() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.streamsEnded
}

func happyAPI() *mockAPI {
	return &mockAPI{
		transcripts: map[interview.Step]string{
			interview.StepTime:           "20 minutes",
			interview.StepEnergyLevel:    "high",
			interview.StepDesiredOutcome: "strength",
		},
		chunks: []string{"Warm-up: jumping jacks\n", "Main: squats x15\n", "Cool-down: hamstring stretch"},
	}
}

var errDenied = errors.New("permission denied")
