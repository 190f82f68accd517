package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrMissingOpenAIKey is returned when an OpenAI call is made without a key.
var ErrMissingOpenAIKey = errors.New("API key required: set OPENAI_API_KEY or run 'snack config set-key openai'")

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	apiKey string
	model  string
	client openai.Client
}

// NewTranscriber creates a new transcription client.
func NewTranscriber(apiKey string, opts ...Option) *Transcriber {
	s := newSettings(string(openai.AudioModelWhisper1), opts)

	return &Transcriber{
		apiKey: apiKey,
		model:  s.model,
		client: openai.NewClient(openaiRequestOptions(apiKey, s)...),
	}
}

// Transcribe sends one audio clip to the Whisper API. hint tells the model
// which question the speaker is answering.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename, hint string) (string, error) {
	if t.apiKey == "" {
		return "", ErrMissingOpenAIKey
	}

	if filename == "" {
		filename = "recording.mp3"
	}

	params := openai.AudioTranscriptionNewParams{
		File:   openai.File(audio, filename, contentTypeFor(filename)),
		Model:  openai.AudioModel(t.model),
		Prompt: openai.String(hint),
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}

func openaiRequestOptions(apiKey string, s settings) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}

	if s.baseURL != "" {
		opts = append(opts, option.WithBaseURL(s.baseURL))
	}

	if s.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(s.httpClient))
	}

	return opts
}

func contentTypeFor(filename string) string {
	if ctype := mime.TypeByExtension(path.Ext(filename)); ctype != "" {
		return ctype
	}

	return "application/octet-stream"
}
