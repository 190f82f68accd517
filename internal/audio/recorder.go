package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/snacks/pkg/channels"
	"github.com/alkime/snacks/pkg/uictl"
)

const (
	packetQueue = 64
	syncTimeout = time.Second

	// meter history: half a second at 16 kHz
	meterHistory = DefaultSampleRate / 2
)

var (
	// ErrRecording is returned by Start while a clip is already open.
	ErrRecording = errors.New("already recording")
	// ErrNotRecording is returned by Stop when no clip is open.
	ErrNotRecording = errors.New("not recording")
	// ErrEmptyClip means the microphone delivered no audio.
	ErrEmptyClip = errors.New("no audio captured")
)

// Recorder records one answer at a time from a Device, encoding to MP3 while
// capture runs. The device is opened on the first Start and kept until Close.
type Recorder struct {
	device Device
	config EncoderConfig
	levels *SampleRingBuffer

	mu      sync.Mutex
	packets chan DataPacket
	pumped  chan struct{}
	synced  chan struct{}
	clip    *clipWriter
}

// NewRecorder wraps device. config describes its PCM format.
func NewRecorder(device Device, config EncoderConfig) *Recorder {
	return &Recorder{
		device: device,
		config: config.WithDefaults(),
		levels: NewSampleRingBuffer(meterHistory),
	}
}

// Start opens a new clip and starts the microphone.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clip != nil {
		return ErrRecording
	}

	if r.packets == nil {
		packets := make(chan DataPacket, packetQueue)
		if err := r.device.Open(ctx, packets); err != nil {
			return fmt.Errorf("failed to open microphone: %w", err)
		}

		r.packets = packets
		r.pumped = make(chan struct{})
		r.synced = make(chan struct{})
		go r.pump(packets, r.synced, r.pumped)
	}

	cw, err := newClipWriter(r.config)
	if err != nil {
		return err
	}

	r.levels.Reset()
	r.clip = cw

	if err := r.device.Start(ctx); err != nil {
		r.clip = nil
		_, _ = cw.finish()

		return fmt.Errorf("failed to start microphone: %w", err)
	}

	return nil
}

// Stop stops the microphone and returns the encoded clip.
func (r *Recorder) Stop(ctx context.Context) (Clip, error) {
	stopErr := r.device.Stop(ctx)

	r.mu.Lock()
	packets, synced, pumped := r.packets, r.synced, r.pumped
	r.mu.Unlock()

	if packets != nil {
		r.sync(packets, synced, pumped)
	}

	r.mu.Lock()
	cw := r.clip
	r.clip = nil
	r.mu.Unlock()

	if cw == nil {
		return Clip{}, ErrNotRecording
	}

	data, err := cw.finish()
	if err != nil {
		return Clip{}, fmt.Errorf("failed to encode recording: %w", err)
	}

	if stopErr != nil {
		slog.Warn("microphone did not stop cleanly", "error", stopErr)
	}

	if len(data) == 0 {
		return Clip{}, ErrEmptyClip
	}

	slog.Debug("recorded clip", "pcm_bytes", cw.enc.PCMBytes(), "mp3_bytes", len(data))

	return Clip{
		Data:        data,
		Filename:    DefaultClipFilename,
		ContentType: MP3ContentType,
		PCMBytes:    cw.enc.PCMBytes(),
	}, nil
}

// Recording reports whether a clip is open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.clip != nil
}

// Levels returns per-bar peak levels of the live signal for a meter.
func (r *Recorder) Levels(bars int) []float64 {
	return r.levels.Peaks(bars, meterHistory)
}

// Close releases the microphone. An open clip is discarded.
func (r *Recorder) Close(ctx context.Context) {
	_ = r.device.Stop(ctx)
	r.device.Close(ctx)

	r.mu.Lock()
	cw := r.clip
	r.clip = nil
	packets, pumped := r.packets, r.pumped
	r.packets = nil
	r.mu.Unlock()

	if cw != nil {
		_, _ = cw.finish()
	}

	if packets != nil {
		close(packets)
		<-pumped
	}
}

// pump feeds device packets to the meter and to the open clip, if any. A nil
// packet is a sync marker: everything queued before it has been forwarded.
func (r *Recorder) pump(packets <-chan DataPacket, synced chan<- struct{}, done chan<- struct{}) {
	defer close(done)

	for packet := range packets {
		if packet == nil {
			synced <- struct{}{}
			continue
		}

		r.mu.Lock()
		r.forwardLocked(packet)
		r.mu.Unlock()
	}
}

// sync waits until pump has forwarded every packet the stopped device
// queued, including one it may already hold.
func (r *Recorder) sync(packets chan<- DataPacket, synced <-chan struct{}, pumped <-chan struct{}) {
	if err := channels.SendWithTimeout(packets, nil, syncTimeout); err != nil {
		slog.Warn("could not sync audio queue", "error", err)
		return
	}

	select {
	case <-synced:
	case <-pumped:
	}
}

func (r *Recorder) forwardLocked(packet DataPacket) {
	r.levels.Write(BytesToInt16(packet))

	if r.clip == nil {
		return
	}

	if err := channels.SendWithTimeout(r.clip.input, packet, time.Second); err != nil {
		slog.Warn("dropped audio packet", "bytes", len(packet), "error", err)
	}
}

type clipWriter struct {
	input  chan []byte
	out    bytes.Buffer
	enc    *StreamingEncoder
	cancel context.CancelFunc
}

func newClipWriter(config EncoderConfig) (*clipWriter, error) {
	cw := &clipWriter{input: make(chan []byte, packetQueue)}

	enc, err := NewStreamingEncoder(config, cw.input, &cw.out)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := enc.Start(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}

	cw.enc = enc
	cw.cancel = cancel

	return cw, nil
}

func (cw *clipWriter) finish() ([]byte, error) {
	close(cw.input)
	err := cw.enc.Wait()
	cw.cancel()

	return cw.out.Bytes(), err
}

// Meter exposes the live input level as a fixed number of bars.
func (r *Recorder) Meter(bars int) uictl.Levels[float64] {
	return uictl.LevelsFunc[float64](func() []float64 {
		return r.Levels(bars)
	})
}
