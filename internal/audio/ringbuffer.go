package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

// SampleRingBuffer keeps the most recent samples of the live microphone
// signal for the level meter. One writer, many readers.
type SampleRingBuffer struct {
	samples []int16
	head    int // next write position
	count   int
	mu      sync.RWMutex
}

// NewSampleRingBuffer creates a ring buffer with the given capacity.
func NewSampleRingBuffer(capacity int) *SampleRingBuffer {
	return &SampleRingBuffer{
		samples: make([]int16, capacity),
		head:    0,
		count:   0,
		mu:      sync.RWMutex{},
	}
}

// Write appends samples, overwriting the oldest once full.
func (b *SampleRingBuffer) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.samples)

	for _, sample := range samples {
		b.samples[b.head] = sample
		b.head = (b.head + 1) % capacity

		if b.count < capacity {
			b.count++
		}
	}
}

// ReadSamples returns up to n most recent samples, oldest first.
func (b *SampleRingBuffer) ReadSamples(n int) []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 || n <= 0 {
		return nil
	}

	n = min(n, b.count)
	result := make([]int16, n)
	capacity := len(b.samples)
	start := (b.head - n + capacity) % capacity

	for i := range n {
		result[i] = b.samples[(start+i)%capacity]
	}

	return result
}

// Count returns the number of valid samples in the buffer.
func (b *SampleRingBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.count
}

// Reset forgets all samples so a new answer starts from a silent meter.
func (b *SampleRingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head = 0
	b.count = 0
}

// Peaks splits the most recent window samples into bars buckets and returns
// each bucket's peak amplitude scaled to [0, 1]. Missing history reads as
// silence at the front.
func (b *SampleRingBuffer) Peaks(bars, window int) []float64 {
	if bars <= 0 || window <= 0 {
		return nil
	}

	peaks := make([]float64, bars)
	samples := b.ReadSamples(window)
	offset := window - len(samples)
	bucket := max(window/bars, 1)

	for i, s := range samples {
		bar := min((offset+i)/bucket, bars-1)
		peaks[bar] = math.Max(peaks[bar], amplitude(s))
	}

	return peaks
}

func amplitude(s int16) float64 {
	if s == math.MinInt16 {
		return 1
	}

	if s < 0 {
		s = -s
	}

	return float64(s) / math.MaxInt16
}

// BytesToInt16 converts S16LE bytes to samples. A trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	numSamples := len(data) / 2
	if numSamples == 0 {
		return nil
	}

	samples := make([]int16, numSamples)
	for i := range numSamples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:])) //nolint:gosec // reinterpreting bits
	}

	return samples
}
