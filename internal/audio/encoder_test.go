package audio_test

import (
	"bytes"
	"context"
	"runtime"
	"sync"
	"testing"

	"github.com/alkime/snacks/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePCM_Silence(t *testing.T) {
	t.Parallel()

	// one second of 16 kHz mono silence
	pcm := make([]byte, audio.DefaultSampleRate*2)

	mp3, err := audio.EncodePCM(pcm, audio.EncoderConfig{})

	require.NoError(t, err)
	assert.NotEmpty(t, mp3)
}

func TestEncodePCM_RejectsStereo(t *testing.T) {
	t.Parallel()

	_, err := audio.EncodePCM(make([]byte, 64), audio.EncoderConfig{Channels: 2})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mono")
}

func TestStreamingEncoder_Packets(t *testing.T) {
	t.Parallel()

	input := make(chan []byte, 8)
	var out bytes.Buffer

	enc, err := audio.NewStreamingEncoder(audio.EncoderConfig{}.WithDefaults(), input, &out)
	require.NoError(t, err)
	require.NoError(t, enc.Start(context.Background()))
	require.Error(t, enc.Start(context.Background()), "second start is rejected")

	for range 10 {
		input <- make([]byte, 3201) // odd sizes split samples across packets
	}
	close(input)

	require.NoError(t, enc.Wait())
	assert.Equal(t, int64(32010), enc.PCMBytes())
	assert.NotZero(t, out.Len())
}

func TestStreamingEncoder_Cancelled(t *testing.T) {
	t.Parallel()

	input := make(chan []byte)
	enc, err := audio.NewStreamingEncoder(audio.EncoderConfig{}.WithDefaults(), input, &bytes.Buffer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, enc.Start(ctx))
	cancel()

	require.ErrorIs(t, enc.Wait(), context.Canceled)
}

func TestNewStreamingEncoder_NilArgs(t *testing.T) {
	t.Parallel()

	_, err := audio.NewStreamingEncoder(audio.EncoderConfig{}.WithDefaults(), nil, &bytes.Buffer{})
	require.Error(t, err)

	_, err = audio.NewStreamingEncoder(audio.EncoderConfig{}.WithDefaults(), make(chan []byte), nil)
	require.Error(t, err)
}

func TestEncodePCM_SurvivesGC(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		for {
			select {
			case <-done:
				return
			default:
				runtime.GC()
			}
		}
	})

	// odd-sized clips leave a partial frame for the final flush
	for i := range 100 {
		pcm := make([]byte, audio.DefaultSampleRate*2+i*2)
		mp3, err := audio.EncodePCM(pcm, audio.EncoderConfig{BufferThreshold: 3456})
		require.NoError(t, err)
		require.NotEmpty(t, mp3)
	}

	close(done)
	wg.Wait()
}
