package server_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alkime/snacks/internal/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formField struct {
	name, value string
	file        bool
}

func multipartRequest(t *testing.T, fields ...formField) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, f := range fields {
		if f.file {
			part, err := mw.CreateFormFile(f.name, "recording.mp3")
			require.NoError(t, err)
			_, err = part.Write([]byte(f.value))
			require.NoError(t, err)

			continue
		}

		require.NoError(t, mw.WriteField(f.name, f.value))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func audioField() formField {
	return formField{name: "audio", value: "mp3 bytes", file: true}
}

func TestTranscribe_MapsStepToQuestion(t *testing.T) {
	for _, step := range interview.Steps() {
		t.Run(step.Label(), func(t *testing.T) {
			tr := &fakeTranscriber{text: "30 minutes"}
			srv := newTestServer(testConfig(), tr, nil)

			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, multipartRequest(t, audioField(), formField{name: "step", value: step.String()}))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.JSONEq(t, `{"transcript":"30 minutes"}`, w.Body.String())

			require.Len(t, tr.calls, 1)
			assert.Equal(t, "mp3 bytes", tr.calls[0].audio)
			assert.Equal(t, "recording.mp3", tr.calls[0].filename)
			assert.Contains(t, tr.calls[0].hint, `"`+step.Question()+`"`)
		})
	}
}

func TestTranscribe_UnknownStepUsesEmptyQuestion(t *testing.T) {
	for _, raw := range []string{"3", "-1", "banana", ""} {
		t.Run(raw, func(t *testing.T) {
			tr := &fakeTranscriber{text: "hello"}
			srv := newTestServer(testConfig(), tr, nil)

			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, multipartRequest(t, audioField(), formField{name: "step", value: raw}))

			require.Equal(t, http.StatusOK, w.Code)
			require.Len(t, tr.calls, 1)
			assert.True(t, strings.HasSuffix(tr.calls[0].hint, `: ""`), tr.calls[0].hint)
		})
	}
}

func TestTranscribe_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  []formField
		wantErr string
	}{
		{"no audio", []formField{{name: "step", value: "0"}}, "No audio file provided"},
		{"no step", []formField{audioField()}, "No step provided"},
		{"nothing", nil, "No audio file provided"},
		{"audio sent as text", []formField{{name: "audio", value: "abc"}, {name: "step", value: "0"}}, "No audio file provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTranscriber{text: "unused"}
			srv := newTestServer(testConfig(), tr, nil)

			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, multipartRequest(t, tt.fields...))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantErr+`"}`, w.Body.String())
			assert.Empty(t, tr.calls)
		})
	}
}

func TestTranscribe_NotMultipart(t *testing.T) {
	srv := newTestServer(testConfig(), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(`{"step":0}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No audio file provided")
}

func TestTranscribe_Failures(t *testing.T) {
	tests := []struct {
		name    string
		tr      *fakeTranscriber
		wantErr string
	}{
		{"provider error", &fakeTranscriber{err: errors.New("whisper is down")}, "whisper is down"},
		{"empty transcript", &fakeTranscriber{text: "  "}, "No transcript generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(testConfig(), tt.tr, nil)

			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, multipartRequest(t, audioField(), formField{name: "step", value: "1"}))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantErr+`"}`, w.Body.String())
		})
	}
}

func workoutRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/workout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestWorkout_StreamsChunks(t *testing.T) {
	coach := &fakeCoach{chunks: []string{"Warm-up: ", "march ", "in place\n", "Cool-down"}, failAt: -1}
	srv := newTestServer(testConfig(), nil, coach)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, workoutRequest(`{"time":"20 minutes","energyLevel":"high","desiredOutcome":"strength"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Warm-up: march in place\nCool-down", w.Body.String())
	assert.True(t, w.Flushed)

	require.Len(t, coach.calls, 1)
	assert.Equal(t, interview.Answers{Time: "20 minutes", EnergyLevel: "high", DesiredOutcome: "strength"}, coach.calls[0])
}

func TestWorkout_MalformedJSON(t *testing.T) {
	coach := &fakeCoach{failAt: -1}
	srv := newTestServer(testConfig(), nil, coach)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, workoutRequest(`{"time":`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
	assert.Empty(t, coach.calls)
}

func TestWorkout_FailsBeforeFirstChunk(t *testing.T) {
	coach := &fakeCoach{chunks: []string{"never sent"}, failAt: 0, err: errors.New("rate limited")}
	srv := newTestServer(testConfig(), nil, coach)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, workoutRequest(`{"time":"5 minutes","energyLevel":"low","desiredOutcome":"calm"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"rate limited"}`, w.Body.String())
}

func TestWorkout_EmptyStream(t *testing.T) {
	coach := &fakeCoach{failAt: -1}
	srv := newTestServer(testConfig(), nil, coach)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, workoutRequest(`{}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "no workout generated")
}

func TestWorkout_FailsMidStream(t *testing.T) {
	coach := &fakeCoach{chunks: []string{"Warm-up", " and ", "lost"}, failAt: 2, err: errors.New("connection reset")}
	srv := newTestServer(testConfig(), nil, coach)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, workoutRequest(`{"time":"5 minutes","energyLevel":"low","desiredOutcome":"calm"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Warm-up and ", w.Body.String())
}

func TestTranscribe_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 1024
	tr := &fakeTranscriber{text: "never"}
	srv := newTestServer(cfg, tr, nil)

	big := formField{name: "audio", value: strings.Repeat("x", 3<<20), file: true}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, multipartRequest(t, big, formField{name: "step", value: "0"}))

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.JSONEq(t, `{"error":"Audio file too large"}`, w.Body.String())
	assert.Empty(t, tr.calls)
}
