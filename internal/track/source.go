// ABOUTME: Track source abstraction for files, HTTP streams and test tones
// ABOUTME: Open picks a decoder from the location's scheme or extension
package track

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Source provides PCM audio samples for one track
type Source interface {
	// Read reads interleaved samples in 24-bit range. Returns io.EOF at the end of the track.
	Read(samples []int32) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)
	// Close closes the audio source
	Close() error
}

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// Open creates a source for location: "tone:<hz>[:<seconds>]", an
// http(s) MP3 URL, or a local .mp3 or .flac file
func Open(location string) (Source, error) {
	switch {
	case strings.HasPrefix(location, "tone:"):
		return ParseTone(location)

	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		log.Printf("Streaming from HTTP URL: %s", location)
		return NewHTTPMP3Source(location)
	}

	if _, err := os.Stat(location); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", location)
	}

	switch ext := strings.ToLower(filepath.Ext(location)); ext {
	case ".mp3":
		return NewMP3Source(location)
	case ".flac":
		return NewFLACSource(location)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}

// titleFromPath uses the file name without extension as the title
func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
