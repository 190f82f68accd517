package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/snacks/pkg/channels"
	"github.com/gen2brain/malgo"
)

// packetSendTimeout bounds how long the capture callback waits on a slow
// consumer before dropping a packet.
const packetSendTimeout = 10 * time.Millisecond

var (
	// ErrMicUnavailable wraps every failure to open or start the microphone,
	// including denied permissions and missing hardware.
	ErrMicUnavailable = errors.New("microphone unavailable")

	errNotOpen = errors.New("device not open")
)

// DataPacket is one callback's worth of raw PCM bytes.
type DataPacket = []byte

// Device is a microphone that writes raw PCM packets into a channel while
// started. Open once, then Start and Stop any number of times, then Close.
type Device interface {
	// Open allocates the capture device. Packets go to dataC while started.
	Open(ctx context.Context, dataC chan<- DataPacket) error
	Start(ctx context.Context) error
	// Stop is a no-op when the device is closed or already stopped.
	Stop(ctx context.Context) error
	IsStarted() bool
	// Close releases the device. It is safe to call more than once.
	Close(ctx context.Context)
}

type malgoDevice struct {
	conf DeviceConfig

	mu     sync.Mutex
	mgCtx  *malgo.AllocatedContext
	mgDev  *malgo.Device
	closed bool
}

// NewDevice returns a malgo-backed microphone for conf.
func NewDevice(conf DeviceConfig) Device {
	return &malgoDevice{conf: conf}
}

func (d *malgoDevice) Open(_ context.Context, dataC chan<- DataPacket) error {
	if dataC == nil {
		return errors.New("data channel is nil. unable to open device")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mgDev != nil {
		return errors.New("device already open")
	}

	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize malgo context: %w", ErrMicUnavailable, err)
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = d.conf.Format
	devCnf.Capture.Channels = uint32(d.conf.CaptureChannels) //nolint:gosec // small positive channel count
	devCnf.SampleRate = uint32(d.conf.SampleRate)            //nolint:gosec // validated sample rate

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			// malgo reuses the sample buffer once the callback returns
			packet := make(DataPacket, len(samples))
			copy(packet, samples)

			if err := channels.SendWithTimeout(dataC, packet, packetSendTimeout); err != nil {
				slog.Debug("dropped audio packet", "bytes", len(packet), "error", err)
			}
		},
	}

	mgDev, err := malgo.InitDevice(mgCtx.Context, devCnf, callbacks)
	if err != nil {
		freeContext(mgCtx)
		return fmt.Errorf("%w: failed to initialize capture device: %w", ErrMicUnavailable, err)
	}

	d.mgCtx, d.mgDev, d.closed = mgCtx, mgDev, false

	return nil
}

func (d *malgoDevice) Start(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mgDev == nil {
		return errNotOpen
	}

	if d.mgDev.IsStarted() {
		return nil
	}

	if err := d.mgDev.Start(); err != nil {
		return fmt.Errorf("%w: failed to start capture: %w", ErrMicUnavailable, err)
	}

	return nil
}

func (d *malgoDevice) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mgDev == nil || !d.mgDev.IsStarted() {
		return nil
	}

	if err := d.mgDev.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture: %w", err)
	}

	return nil
}

func (d *malgoDevice) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.mgDev != nil && d.mgDev.IsStarted()
}

func (d *malgoDevice) Close(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.mgDev == nil {
		return
	}

	d.mgDev.Uninit()
	freeContext(d.mgCtx)
	d.mgDev, d.mgCtx, d.closed = nil, nil, true
}

// Info describes a capture device for `snack devices`.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

// CaptureDevices lists the microphones the audio backend can see.
func CaptureDevices(_ context.Context) ([]Info, error) {
	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer freeContext(mgCtx)

	found, err := mgCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}

	infos := make([]Info, 0, len(found))
	for _, mdi := range found {
		infos = append(infos, infoFrom(mdi))
	}

	return infos, nil
}

func infoFrom(mdi malgo.DeviceInfo) Info {
	formats := make([]string, len(mdi.Formats))
	for i, mf := range mdi.Formats {
		formats[i] = fmt.Sprintf("%d-bit %dch @ %dHz",
			malgo.SampleSizeInBytes(mf.Format)*8, mf.Channels, mf.SampleRate)
	}

	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func freeContext(mgCtx *malgo.AllocatedContext) {
	if mgCtx == nil {
		return
	}

	if err := mgCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}
	mgCtx.Free()
}
