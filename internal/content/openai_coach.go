package content

import (
	"context"
	"iter"

	"github.com/alkime/snacks/internal/interview"
	"github.com/openai/openai-go"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = "gpt-3.5-turbo"

// OpenAICoach streams workouts from the OpenAI chat completions API.
type OpenAICoach struct {
	apiKey string
	model  string
	client openai.Client
}

// NewOpenAICoach creates a coach backed by OpenAI.
func NewOpenAICoach(apiKey string, opts ...Option) *OpenAICoach {
	s := newSettings(DefaultOpenAIModel, opts)

	return &OpenAICoach{
		apiKey: apiKey,
		model:  s.model,
		client: openai.NewClient(openaiRequestOptions(apiKey, s)...),
	}
}

func (c *OpenAICoach) StreamWorkout(ctx context.Context, answers interview.Answers) iter.Seq2[string, error] {
	return singleUse(func(yield func(string, error) bool) {
		if c.apiKey == "" {
			yield("", ErrMissingOpenAIKey)
			return
		}

		stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(WorkoutSystemPrompt),
				openai.UserMessage(WorkoutPrompt(answers)),
			},
		})
		defer stream.Close()

		next := func() (string, bool) {
			if !stream.Next() {
				return "", false
			}

			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				return "", true
			}

			return chunk.Choices[0].Delta.Content, true
		}

		textChunks(next, stream.Err, "OpenAI")(yield)
	})
}
