package audio

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/gen2brain/malgo"
)

const (
	// DefaultSampleRate is 16 kHz, Whisper's native rate.
	DefaultSampleRate = 16000
	// DefaultChannels is mono.
	DefaultChannels = 1
	// DefaultBufferThreshold is 4 KiB of PCM, about 128ms at the default rate.
	DefaultBufferThreshold = 4096
)

// mp3SampleRates are the rates an MPEG-1/2/2.5 layer III frame can carry.
var mp3SampleRates = []int{8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000}

// DeviceConfig describes the capture format requested from the microphone.
type DeviceConfig struct {
	Format          malgo.FormatType
	CaptureChannels int
	SampleRate      int
}

// DefaultDeviceConfig captures 16-bit mono PCM at the encoder's default rate.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Format:          malgo.FormatS16,
		CaptureChannels: DefaultChannels,
		SampleRate:      DefaultSampleRate,
	}
}

// EncoderConfig returns the encoder settings matching this capture format.
func (c DeviceConfig) EncoderConfig() EncoderConfig {
	return EncoderConfig{
		SampleRate: c.SampleRate,
		Channels:   c.CaptureChannels,
	}.WithDefaults()
}

// EncoderConfig configures MP3 encoding of recorded answers.
type EncoderConfig struct {
	SampleRate int
	// Channels must be 1; output frames are stereo regardless.
	Channels int
	// BufferThreshold is how many PCM bytes accumulate before a batch is encoded.
	BufferThreshold int
}

// WithDefaults fills zero fields with the Default* values.
func (c EncoderConfig) WithDefaults() EncoderConfig {
	c.SampleRate = cmp.Or(c.SampleRate, DefaultSampleRate)
	c.Channels = cmp.Or(c.Channels, DefaultChannels)
	c.BufferThreshold = cmp.Or(c.BufferThreshold, DefaultBufferThreshold)

	return c
}

// Validate reports every problem with the config at once.
func (c EncoderConfig) Validate() error {
	var errs []error

	if !slices.Contains(mp3SampleRates, c.SampleRate) {
		errs = append(errs, fmt.Errorf("sample rate %d Hz cannot be encoded as MP3", c.SampleRate))
	}

	if c.Channels != 1 {
		errs = append(errs, fmt.Errorf("only mono capture is supported, got %d channels", c.Channels))
	}

	if c.BufferThreshold <= 0 {
		errs = append(errs, errors.New("buffer threshold must be positive"))
	}

	return errors.Join(errs...)
}
