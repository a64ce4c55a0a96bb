// ABOUTME: Software volume and mute shared by all outputs
// ABOUTME: Scales 24-bit samples with clipping protection
package output

import (
	"log"
	"sync/atomic"

	"github.com/Sendspin/audiobob/pkg/audio"
)

// volumeState is embedded by outputs; safe for concurrent use
type volumeState struct {
	volume atomic.Int32
	muted  atomic.Bool
}

// resetVolume sets full volume, unmuted
func (v *volumeState) resetVolume() {
	v.volume.Store(100)
	v.muted.Store(false)
}

// SetVolume sets the volume (0-100)
func (v *volumeState) SetVolume(volume int) {
	volume = max(0, min(100, volume))
	v.volume.Store(int32(volume))
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (v *volumeState) SetMuted(muted bool) {
	v.muted.Store(muted)
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (v *volumeState) Volume() int {
	return int(v.volume.Load())
}

// Muted returns mute state
func (v *volumeState) Muted() bool {
	return v.muted.Load()
}

func (v *volumeState) apply(samples []int32) []int32 {
	return applyVolume(samples, v.Volume(), v.Muted())
}

// applyVolume applies volume and mute to samples with clipping protection
func applyVolume(samples []int32, volume int, muted bool) []int32 {
	multiplier := getVolumeMultiplier(volume, muted)

	result := make([]int32, len(samples))
	if multiplier == 1.0 {
		copy(result, samples)
		return result
	}

	for i, sample := range samples {
		scaled := int64(float64(sample) * multiplier)

		// Clamp to 24-bit range to prevent overflow
		if scaled > audio.Max24Bit {
			scaled = audio.Max24Bit
		} else if scaled < audio.Min24Bit {
			scaled = audio.Min24Bit
		}

		result[i] = int32(scaled)
	}

	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
