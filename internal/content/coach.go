package content

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/alkime/snacks/internal/interview"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	// ErrEmptyWorkout is yielded when the provider finishes without text.
	ErrEmptyWorkout = errors.New("no workout generated")

	// ErrStreamConsumed is yielded when a workout stream is ranged over twice.
	ErrStreamConsumed = errors.New("workout stream already consumed")
)

// Coach writes workout plans from interview answers.
type Coach interface {
	// StreamWorkout returns the plan as a single-use sequence of text chunks.
	// A non-nil error ends the sequence.
	StreamWorkout(ctx context.Context, answers interview.Answers) iter.Seq2[string, error]
}

// NewCoach returns the Coach for the named provider.
func NewCoach(provider, apiKey string, opts ...Option) (Coach, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAICoach(apiKey, opts...), nil
	case ProviderAnthropic:
		return NewAnthropicCoach(apiKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", provider)
	}
}

// singleUse wraps seq so that only the first range over it reaches the
// provider. Later ranges yield ErrStreamConsumed.
func singleUse(seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	var used atomic.Bool

	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", ErrStreamConsumed)
			return
		}

		seq(yield)
	}
}

// textChunks adapts a provider stream into workout chunks. next advances the
// stream and reports the text of the current event, empty when the event
// carries none.
func textChunks(next func() (string, bool), streamErr func() error, provider string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sent := false

		for {
			text, ok := next()
			if !ok {
				break
			}

			if text == "" {
				continue
			}

			sent = true

			if !yield(text, nil) {
				return
			}
		}

		if err := streamErr(); err != nil {
			yield("", fmt.Errorf("failed to stream workout via %s API: %w", provider, err))
			return
		}

		if !sent {
			yield("", ErrEmptyWorkout)
		}
	}
}
