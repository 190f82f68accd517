// Package client talks to the snacks server on behalf of the terminal UI and
// the one-shot CLI commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alkime/snacks/internal/audio"
	"github.com/alkime/snacks/internal/interview"
)

const (
	transcribePath = "/api/transcribe"
	workoutPath    = "/api/workout"

	readChunkSize = 4096
)

// ErrNoTranscript means the server answered 200 without any text.
var ErrNoTranscript = errors.New("No transcript received from server") //nolint:staticcheck // shown verbatim in the UI

// StatusError reports a non-2xx response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// Client calls the transcription and workout endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient gets one
// with no overall timeout so long workout streams are not cut off.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 0}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Transcribe uploads one recorded answer and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, clip audio.Clip, step interview.Step) (string, error) {
	body, contentType, err := transcribeForm(clip, step)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, body)
	if err != nil {
		return "", fmt.Errorf("failed to build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send transcribe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcript: %w", err)
	}

	if strings.TrimSpace(out.Transcript) == "" {
		return "", ErrNoTranscript
	}

	return out.Transcript, nil
}

// GenerateWorkout posts the answers and yields the plan text as it arrives.
// Chunks never split a UTF-8 rune. The sequence is single use.
func (c *Client) GenerateWorkout(ctx context.Context, answers interview.Answers) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		payload, err := json.Marshal(answers)
		if err != nil {
			yield("", fmt.Errorf("failed to encode answers: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+workoutPath, bytes.NewReader(payload))
		if err != nil {
			yield("", fmt.Errorf("failed to build workout request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			yield("", fmt.Errorf("failed to send workout request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield("", statusError(resp))
			return
		}

		readText(resp.Body, yield)
	}
}

// readText yields r's contents in read-sized pieces, holding back a trailing
// partial rune until the rest of it arrives.
func readText(r io.Reader, yield func(string, error) bool) {
	buf := make([]byte, readChunkSize)
	var carry []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			cut := completePrefix(data)
			carry = append([]byte(nil), data[cut:]...)

			if cut > 0 && !yield(string(data[:cut]), nil) {
				return
			}
		}

		if errors.Is(err, io.EOF) {
			if len(carry) > 0 {
				yield(string(carry), nil)
			}

			return
		}

		if err != nil {
			yield("", fmt.Errorf("failed to read workout stream: %w", err))
			return
		}
	}
}

// completePrefix returns the length of the longest prefix of b that does not
// end inside a multi-byte rune.
func completePrefix(b []byte) int {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}

		if utf8.FullRune(b[start:]) {
			return len(b)
		}

		return start
	}

	return len(b)
}

func transcribeForm(clip audio.Clip, step interview.Step) (io.Reader, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="audio"; filename=%q`, clip.FilenameOrDefault()))
	header.Set("Content-Type", clip.ContentTypeOrDefault())

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create audio part: %w", err)
	}

	if _, err := part.Write(clip.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write audio part: %w", err)
	}

	if err := mw.WriteField("step", step.String()); err != nil {
		return nil, "", fmt.Errorf("failed to write step field: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}

	return &body, mw.FormDataContentType(), nil
}

// statusError prefers the server's {"error": ...} message over the bare
// status code.
func statusError(resp *http.Response) error {
	serr := &StatusError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return serr
	}

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		serr.Message = body.Error
	}

	return serr
}

// WaitForServer polls /health until it answers or ctx ends.
func (c *Client) WaitForServer(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return fmt.Errorf("failed to build health request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("server at %s not reachable: %w", c.baseURL, ctx.Err())
		case <-ticker.C:
		}
	}
}
