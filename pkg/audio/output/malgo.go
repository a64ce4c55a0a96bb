// ABOUTME: Malgo-based audio output implementation with 24-bit support
// ABOUTME: Uses miniaudio library via malgo for hi-res audio playback
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/gen2brain/malgo"
)

// ringBufferMillis is the device-side buffering
const ringBufferMillis = 500

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	volumeState

	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	channels   int
	bitDepth   int
	ready      bool

	// Ring buffer for callback-based playback
	ringBuffer *RingBuffer
	scratch    []int32
	mu         sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	m := &Malgo{}
	m.resetVolume()
	return m
}

// Open initializes the output device with specified format
func (m *Malgo) Open(sampleRate, channels, bitDepth int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If already initialized with same format, reuse
	if m.device != nil && m.sampleRate == sampleRate && m.channels == channels && m.bitDepth == bitDepth {
		log.Printf("Audio output already initialized with same format, reusing device")
		return nil
	}

	var format malgo.FormatType
	switch bitDepth {
	case 16:
		format = malgo.FormatS16
	case 24:
		format = malgo.FormatS24
	case 32:
		format = malgo.FormatS32
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", bitDepth)
	}

	if m.device != nil {
		log.Printf("Format change detected (%dHz/%dch/%dbit -> %dHz/%dch/%dbit), reinitializing device",
			m.sampleRate, m.channels, m.bitDepth, sampleRate, channels, bitDepth)
		m.closeDevice()
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	m.ringBuffer = NewRingBuffer(sampleRate * channels * ringBufferMillis / 1000)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			m.dataCallback(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.sampleRate = sampleRate
	m.channels = channels
	m.bitDepth = bitDepth

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels, %d-bit (malgo/%s)",
		sampleRate, channels, bitDepth, formatName(format))
	return nil
}

// Write queues audio samples for playback, blocking while the device buffer is full
func (m *Malgo) Write(samples []int32) error {
	m.mu.Lock()
	rb := m.ringBuffer
	ready := m.ready
	m.mu.Unlock()

	if !ready {
		return ErrNotOpen
	}
	if !rb.WriteAll(m.apply(samples)) {
		return ErrNotOpen
	}
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	total := int(frameCount) * m.channels
	if cap(m.scratch) < total {
		m.scratch = make([]int32, total)
	}
	samples := m.scratch[:total]

	m.ringBuffer.Read(samples)
	encodeSamples(pOutput, samples, m.bitDepth)
}

// Underruns returns the number of partial device reads
func (m *Malgo) Underruns() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ringBuffer == nil {
		return 0
	}
	return m.ringBuffer.Underruns()
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.ringBuffer != nil {
		m.ringBuffer.Close()
	}
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	m.ready = false
}

// encodeSamples packs 24-bit range int32 samples into little-endian device bytes
func encodeSamples(out []byte, samples []int32, bitDepth int) {
	switch bitDepth {
	case 16:
		for i, sample := range samples {
			s := audio.SampleToInt16(sample)
			out[i*2] = byte(s)
			out[i*2+1] = byte(s >> 8)
		}
	case 24:
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			copy(out[i*3:], b[:])
		}
	case 32:
		for i, sample := range samples {
			// 24-bit value in the upper bits of the 32-bit container
			s := sample << 8
			out[i*4] = byte(s)
			out[i*4+1] = byte(s >> 8)
			out[i*4+2] = byte(s >> 16)
			out[i*4+3] = byte(s >> 24)
		}
	}
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
