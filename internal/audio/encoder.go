package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

const (
	// samplesPerFrame is one MPEG layer III frame per channel.
	samplesPerFrame    = 1152
	monoFrameBytes     = samplesPerFrame * 2
	stereoFrameSamples = samplesPerFrame * 2
)

// StreamingEncoder turns PCM packets from a channel into MP3 frames while a
// clip is still being recorded, so stopping only has to flush the tail.
type StreamingEncoder struct {
	config EncoderConfig
	input  <-chan []byte
	output io.Writer

	encoder *mp3encoder.Encoder
	buffer  []byte
	pcm     int64

	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewStreamingEncoder creates an encoder reading S16LE mono PCM from input
// and writing MP3 to output.
func NewStreamingEncoder(
	config EncoderConfig,
	input <-chan []byte,
	output io.Writer,
) (*StreamingEncoder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	if output == nil {
		return nil, errors.New("output writer cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}

	return &StreamingEncoder{ //nolint:exhaustruct // wg, errOnce, err initialized on Start()
		config: config,
		input:  input,
		output: output,
		buffer: make([]byte, 0, config.BufferThreshold),
	}, nil
}

// Start begins encoding in a goroutine. Encoding ends when input is closed
// or ctx is cancelled; Wait reports the outcome.
func (e *StreamingEncoder) Start(ctx context.Context) error {
	if e.encoder != nil {
		return errors.New("encoder already started")
	}

	// shine-mp3 mono output is broken, so frames are always encoded as stereo
	e.encoder = mp3encoder.NewEncoder(e.config.SampleRate, 2)

	e.wg.Go(func() {
		defer func() {
			if err := e.Flush(); err != nil {
				e.setError(fmt.Errorf("failed to flush encoder on shutdown: %w", err))
			}
		}()

		for {
			select {
			case data, ok := <-e.input:
				if !ok {
					return
				}

				e.buffer = append(e.buffer, data...)
				e.pcm += int64(len(data))

				if len(e.buffer) >= e.config.BufferThreshold {
					if err := e.encodeBatch(); err != nil {
						e.setError(err)
						return
					}
				}

			case <-ctx.Done():
				e.setError(fmt.Errorf("encoder context cancelled: %w", ctx.Err()))
				return
			}
		}
	})

	return nil
}

func (e *StreamingEncoder) encodeBatch() error {
	return e.encode(false)
}

// encode hands whole frames to shine. On the final call the partial tail is
// zero-padded to a full frame.
func (e *StreamingEncoder) encode(final bool) error {
	usable := len(e.buffer) / monoFrameBytes * monoFrameBytes
	if final {
		// an odd trailing byte is half a sample and is dropped
		usable = len(e.buffer) &^ 1
	}

	if usable == 0 {
		return nil
	}

	stereo := monoToStereo(e.buffer[:usable])

	if err := e.encoder.Write(e.output, stereo); err != nil {
		return fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	e.buffer = append(e.buffer[:0], e.buffer[usable:]...)

	return nil
}

// Flush encodes everything still buffered, padding the last frame with
// silence. Safe to call multiple times.
func (e *StreamingEncoder) Flush() error {
	if err := e.encode(true); err != nil {
		return fmt.Errorf("failed to flush MP3 encoder: %w", err)
	}

	return nil
}

// Wait blocks until encoding completes and returns any error that occurred.
func (e *StreamingEncoder) Wait() error {
	e.wg.Wait()

	return e.err
}

// PCMBytes returns how many raw bytes have been consumed. Only meaningful
// after Wait returns.
func (e *StreamingEncoder) PCMBytes() int64 {
	return e.pcm
}

func (e *StreamingEncoder) setError(err error) {
	e.errOnce.Do(func() {
		e.err = err
	})
}

// EncodePCM encodes a complete S16LE mono recording to MP3 in one pass.
func EncodePCM(pcm []byte, config EncoderConfig) ([]byte, error) {
	config = config.WithDefaults()

	input := make(chan []byte, 1)
	var out bytes.Buffer

	enc, err := NewStreamingEncoder(config, input, &out)
	if err != nil {
		return nil, err
	}

	if err := enc.Start(context.Background()); err != nil {
		return nil, err
	}

	input <- pcm
	close(input)

	if err := enc.Wait(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// monoToStereo decodes S16LE mono bytes and duplicates each sample into both
// channels. The result is a whole number of frames, zero-padded at the end,
// with a frame of zeroed spare capacity behind it: shine reads a full frame
// from every chunk and keeps a pointer just past the samples it consumed, so
// both must stay inside the allocation.
func monoToStereo(pcm []byte) []int16 {
	mono := BytesToInt16(pcm)

	frames := (len(mono) + samplesPerFrame - 1) / samplesPerFrame
	n := frames * stereoFrameSamples
	stereo := make([]int16, n, n+stereoFrameSamples+2)

	for i, sample := range mono {
		stereo[i*2] = sample
		stereo[i*2+1] = sample
	}

	return stereo
}
