package content

import (
	"context"
	"errors"
	"iter"

	"github.com/alkime/snacks/internal/interview"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultAnthropicModel is the Claude model used when none is configured.
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

	anthropicMaxTokens = 1024
)

// ErrMissingAnthropicKey is returned when Claude is called without a key.
var ErrMissingAnthropicKey = errors.New(
	"API key required: set ANTHROPIC_API_KEY or run 'snack config set-key anthropic'")

// AnthropicCoach streams workouts from the Claude messages API.
type AnthropicCoach struct {
	apiKey string
	model  string
	client anthropic.Client
}

// NewAnthropicCoach creates a coach backed by Claude.
func NewAnthropicCoach(apiKey string, opts ...Option) *AnthropicCoach {
	s := newSettings(DefaultAnthropicModel, opts)

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}

	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}

	if s.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.httpClient))
	}

	return &AnthropicCoach{
		apiKey: apiKey,
		model:  s.model,
		client: anthropic.NewClient(reqOpts...),
	}
}

func (c *AnthropicCoach) StreamWorkout(ctx context.Context, answers interview.Answers) iter.Seq2[string, error] {
	return singleUse(func(yield func(string, error) bool) {
		if c.apiKey == "" {
			yield("", ErrMissingAnthropicKey)
			return
		}

		stream := c.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: anthropicMaxTokens,
			System: []anthropic.TextBlockParam{
				{Text: WorkoutSystemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(WorkoutPrompt(answers))),
			},
		})
		defer stream.Close()

		next := func() (string, bool) {
			if !stream.Next() {
				return "", false
			}

			event := stream.Current()
			if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok {
					return text.Text, true
				}
			}

			return "", true
		}

		textChunks(next, stream.Err, "Anthropic")(yield)
	})
}
