// ABOUTME: FLAC track source
// ABOUTME: Decodes with mewkiz/flac and reads Vorbis comment tags
package track

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	title      string
	artist     string
	album      string

	// decoded samples of the current FLAC frame not yet returned
	pending []int32
}

// NewFLACSource creates a new FLAC audio source
func NewFLACSource(filePath string) (*FLACSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.Parse(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	s := &FLACSource{
		file:       f,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      titleFromPath(filePath),
		artist:     unknownArtist,
		album:      unknownAlbum,
	}
	s.readTags(stream.Blocks)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		s.title, s.sampleRate, s.channels, s.bitDepth)

	return s, nil
}

func (s *FLACSource) readTags(blocks []*meta.Block) {
	for _, block := range blocks {
		comment, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, tag := range comment.Tags {
			switch strings.ToUpper(tag[0]) {
			case "TITLE":
				s.title = tag[1]
			case "ARTIST":
				s.artist = tag[1]
			case "ALBUM":
				s.album = tag[1]
			}
		}
	}
}

func (s *FLACSource) Read(samples []int32) (int, error) {
	samplesRead := 0

	for samplesRead < len(samples) {
		if len(s.pending) == 0 {
			if err := s.decodeFrame(); err != nil {
				if errors.Is(err, io.EOF) && samplesRead > 0 {
					return samplesRead, nil
				}
				return samplesRead, err
			}
		}

		n := copy(samples[samplesRead:], s.pending)
		s.pending = s.pending[n:]
		samplesRead += n
	}

	return samplesRead, nil
}

// decodeFrame parses the next FLAC frame into pending, scaled to 24-bit range
func (s *FLACSource) decodeFrame() error {
	frame, err := s.stream.ParseNext()
	if err != nil {
		return err
	}

	blockSize := int(frame.BlockSize)
	out := make([]int32, 0, blockSize*s.channels)
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < s.channels; ch++ {
			out = append(out, scaleTo24(frame.Subframes[ch].Samples[i], s.bitDepth))
		}
	}
	s.pending = out
	return nil
}

// scaleTo24 shifts a sample of the given bit depth into 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	shift := bitDepth - 24
	switch {
	case shift > 0:
		return sample >> shift
	case shift < 0:
		return sample << -shift
	default:
		return sample
	}
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Metadata() (string, string, string) {
	return s.title, s.artist, s.album
}
func (s *FLACSource) Close() error {
	return s.file.Close()
}
