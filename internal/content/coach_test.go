package content_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alkime/snacks/internal/content"
	"github.com/alkime/snacks/internal/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAnswers = interview.Answers{
	Time:           "20 minutes",
	EnergyLevel:    "low",
	DesiredOutcome: "mobility",
}

func collect(t *testing.T, coach content.Coach) (string, error) {
	t.Helper()

	var sb strings.Builder
	for chunk, err := range coach.StreamWorkout(context.Background(), testAnswers) {
		if err != nil {
			return sb.String(), err
		}

		sb.WriteString(chunk)
	}

	return sb.String(), nil
}

func openAIChunk(text string) string {
	payload := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{"content": text}, "finish_reason": nil},
		},
	}
	data, _ := json.Marshal(payload)

	return fmt.Sprintf("data: %s\n\n", data)
}

func newOpenAIServer(t *testing.T, chunks ...string) (*httptest.Server, *map[string]any) {
	t.Helper()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			_, _ = io.WriteString(w, openAIChunk(chunk))
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)

	return srv, &body
}

func TestOpenAICoach_StreamWorkout(t *testing.T) {
	srv, body := newOpenAIServer(t, "Warm-up: ", "jumping jacks", "\nCool-down")
	coach := content.NewOpenAICoach("test-key", content.WithBaseURL(srv.URL+"/"))

	plan, err := collect(t, coach)

	require.NoError(t, err)
	assert.Equal(t, "Warm-up: jumping jacks\nCool-down", plan)

	assert.Equal(t, "gpt-3.5-turbo", (*body)["model"])
	assert.Equal(t, true, (*body)["stream"])

	messages, ok := (*body)["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)

	system, _ := messages[0].(map[string]any)
	user, _ := messages[1].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, content.WorkoutSystemPrompt, system["content"])
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, content.WorkoutPrompt(testAnswers), user["content"])
}

func TestOpenAICoach_EmptyResponse(t *testing.T) {
	srv, _ := newOpenAIServer(t)
	coach := content.NewOpenAICoach("test-key", content.WithBaseURL(srv.URL+"/"))

	plan, err := collect(t, coach)

	require.ErrorIs(t, err, content.ErrEmptyWorkout)
	assert.Empty(t, plan)
}

func TestOpenAICoach_MissingAPIKey(t *testing.T) {
	coach := content.NewOpenAICoach("")

	_, err := collect(t, coach)

	require.ErrorIs(t, err, content.ErrMissingOpenAIKey)
}

func TestOpenAICoach_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	coach := content.NewOpenAICoach("test-key", content.WithBaseURL(srv.URL+"/"))

	_, err := collect(t, coach)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API")
}

func TestStreamWorkout_SingleUse(t *testing.T) {
	srv, _ := newOpenAIServer(t, "plan")
	coach := content.NewOpenAICoach("test-key", content.WithBaseURL(srv.URL+"/"))

	seq := coach.StreamWorkout(context.Background(), testAnswers)

	var first strings.Builder
	for chunk, err := range seq {
		require.NoError(t, err)
		first.WriteString(chunk)
	}
	assert.Equal(t, "plan", first.String())

	for _, err := range seq {
		assert.ErrorIs(t, err, content.ErrStreamConsumed)
	}
}

func TestStreamWorkout_StopEarly(t *testing.T) {
	srv, _ := newOpenAIServer(t, "one", "two", "three")
	coach := content.NewOpenAICoach("test-key", content.WithBaseURL(srv.URL+"/"))

	var got []string
	for chunk, err := range coach.StreamWorkout(context.Background(), testAnswers) {
		require.NoError(t, err)
		got = append(got, chunk)
		break
	}

	assert.Equal(t, []string{"one"}, got)
}

const anthropicStream = `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-5-20250929","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Warm-up: "}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"cat-cow"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":4}}

event: message_stop
data: {"type":"message_stop"}

`

func TestAnthropicCoach_StreamWorkout(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, anthropicStream)
	}))
	defer srv.Close()

	coach := content.NewAnthropicCoach("test-key", content.WithBaseURL(srv.URL+"/"))

	plan, err := collect(t, coach)

	require.NoError(t, err)
	assert.Equal(t, "Warm-up: cat-cow", plan)
	assert.Equal(t, content.DefaultAnthropicModel, body["model"])
	assert.Equal(t, true, body["stream"])
}

func TestAnthropicCoach_MissingAPIKey(t *testing.T) {
	coach := content.NewAnthropicCoach("")

	_, err := collect(t, coach)

	require.ErrorIs(t, err, content.ErrMissingAnthropicKey)
}

func TestNewCoach(t *testing.T) {
	coach, err := content.NewCoach("", "key")
	require.NoError(t, err)
	assert.IsType(t, &content.OpenAICoach{}, coach)

	coach, err = content.NewCoach(content.ProviderAnthropic, "key")
	require.NoError(t, err)
	assert.IsType(t, &content.AnthropicCoach{}, coach)

	_, err = content.NewCoach("mistral", "key")
	assert.Error(t, err)
}
