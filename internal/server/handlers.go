package server

import (
	"errors"
	"iter"
	"net/http"
	"strings"

	"github.com/alkime/snacks/internal/content"
	"github.com/alkime/snacks/internal/interview"
	"github.com/gin-gonic/gin"
)

const (
	errNoAudio      = "No audio file provided"
	errNoStep       = "No step provided"
	errNoTranscript = "No transcript generated"
	errAudioTooBig  = "Audio file too large"
	errBadWorkout   = "Invalid workout request"

	// multipart framing and the step field on top of the audio itself
	uploadOverhead = 1 << 20
)

// handleTranscribe accepts one recorded answer and returns its text.
func (s *Server) handleTranscribe(c *gin.Context) {
	log := loggerFrom(c, s.logger)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes+uploadOverhead)

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errAudioTooBig})
			return
		}

		log.Debug("transcribe request without audio", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoAudio})

		return
	}
	defer file.Close()

	rawStep, ok := c.GetPostForm("step")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoStep})
		return
	}

	question := interview.QuestionFor(rawStep)
	log = log.With("step", rawStep, "bytes", header.Size)

	transcript, err := s.transcriber.Transcribe(c.Request.Context(), file, header.Filename,
		content.TranscriptionHint(question))
	if err != nil {
		log.Error("transcription failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if strings.TrimSpace(transcript) == "" {
		log.Warn("transcription returned no text")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNoTranscript})

		return
	}

	log.Info("transcribed answer", "chars", len(transcript))
	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}

// handleWorkout streams a generated workout back as plain text.
func (s *Server) handleWorkout(c *gin.Context) {
	log := loggerFrom(c, s.logger)

	var answers interview.Answers
	if err := c.ShouldBindJSON(&answers); err != nil {
		log.Debug("invalid workout request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadWorkout + ": " + err.Error()})

		return
	}

	next, stop := iter.Pull2(s.coach.StreamWorkout(c.Request.Context(), answers))
	defer stop()

	// The first chunk decides the status: errors before any text are still
	// reportable as JSON.
	chunk, err, ok := next()
	if !ok {
		err = content.ErrEmptyWorkout
	}

	if err != nil {
		log.Error("workout generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	chunks, written := 0, 0
	for ok {
		if err != nil {
			log.Error("workout stream ended early", "error", err, "chunks", chunks)
			return
		}

		n, werr := c.Writer.WriteString(chunk)
		if werr != nil {
			log.Warn("client went away during workout stream", "error", werr)
			return
		}
		c.Writer.Flush()

		chunks++
		written += n

		chunk, err, ok = next()
	}

	log.Info("streamed workout", "chunks", chunks, "bytes", written)
}
