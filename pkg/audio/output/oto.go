// ABOUTME: Oto-based audio output implementation
// ABOUTME: 16-bit playback through a persistent oto player fed by a pipe
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoRate    int
	otoChans   int
	otoErr     error
)

// Oto output implementation using oto library
type Oto struct {
	volumeState

	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	o := &Oto{}
	o.resetVolume()
	return o
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels, bitDepth int) error {
	if bitDepth != 16 {
		log.Printf("Warning: oto only supports 16-bit output, ignoring requested bitDepth=%d", bitDepth)
	}

	if o.ready && o.sampleRate == sampleRate && o.channels == channels {
		log.Printf("Audio output already initialized with same format, reusing player")
		return nil
	}

	otoOnce.Do(func() {
		ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan
		otoContext, otoRate, otoChans = ctx, sampleRate, channels
	})
	if otoErr != nil {
		return otoErr
	}

	if otoRate != sampleRate || otoChans != channels {
		return fmt.Errorf("oto context is fixed at %dHz %dch, cannot open %dHz %dch",
			otoRate, otoChans, sampleRate, channels)
	}

	o.closePlayer()
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = otoContext.NewPlayer(o.pipeReader)
	o.player.Play()

	o.sampleRate = sampleRate
	o.channels = channels
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels (oto)", sampleRate, channels)
	return nil
}

// Write outputs audio samples (blocks until the player reads them)
func (o *Oto) Write(samples []int32) error {
	if !o.ready {
		return ErrNotOpen
	}

	volumed := o.apply(samples)
	output := make([]byte, len(volumed)*2)
	for i, s := range volumed {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(s)))
	}

	if _, err := o.pipeWriter.Write(output); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

func (o *Oto) closePlayer() {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
}

// Close releases output resources. The shared oto context stays alive.
func (o *Oto) Close() error {
	o.closePlayer()
	o.ready = false
	return nil
}
