// ABOUTME: MP3 track sources for local files and HTTP streams
// ABOUTME: Decodes with go-mp3 to stereo 16-bit and widens to 24-bit range
package track

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// mp3FrameBytes is one stereo 16-bit frame
const mp3FrameBytes = 4

// mp3Reader converts go-mp3 output to int32 samples
type mp3Reader struct {
	decoder *mp3.Decoder
	buf     []byte
}

func (r *mp3Reader) read(samples []int32) (int, error) {
	numBytes := (len(samples) * 2) &^ (mp3FrameBytes - 1)
	if cap(r.buf) < numBytes {
		r.buf = make([]byte, numBytes)
	}
	buf := r.buf[:numBytes]

	n, err := io.ReadFull(r.decoder, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if n == 0 && err == nil {
		err = io.EOF
	}

	numSamples := (n &^ (mp3FrameBytes - 1)) / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}
	if numSamples > 0 && errors.Is(err, io.EOF) {
		// report the tail now, EOF on the next call
		err = nil
	}
	return numSamples, err
}

// MP3Source reads from an MP3 file
type MP3Source struct {
	mp3Reader
	file       *os.File
	sampleRate int
	title      string
}

// NewMP3Source creates a new MP3 audio source
func NewMP3Source(filePath string) (*MP3Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := titleFromPath(filePath)
	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title, decoder.SampleRate())

	return &MP3Source{
		mp3Reader:  mp3Reader{decoder: decoder},
		file:       f,
		sampleRate: decoder.SampleRate(),
		title:      title,
	}, nil
}

func (s *MP3Source) Read(samples []int32) (int, error) { return s.read(samples) }
func (s *MP3Source) SampleRate() int                    { return s.sampleRate }
func (s *MP3Source) Channels() int                      { return 2 }
func (s *MP3Source) Metadata() (string, string, string) {
	return s.title, unknownArtist, unknownAlbum
}
func (s *MP3Source) Close() error {
	return s.file.Close()
}

// HTTPMP3Source streams MP3 from an HTTP URL
type HTTPMP3Source struct {
	mp3Reader
	url        string
	body       io.ReadCloser
	sampleRate int
}

// NewHTTPMP3Source creates a new HTTP MP3 streaming source
func NewHTTPMP3Source(url string) (*HTTPMP3Source, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to decode MP3 stream: %w", err)
	}

	log.Printf("Streaming MP3 from HTTP: %s (sample rate: %d Hz)", url, decoder.SampleRate())

	return &HTTPMP3Source{
		mp3Reader:  mp3Reader{decoder: decoder},
		url:        url,
		body:       resp.Body,
		sampleRate: decoder.SampleRate(),
	}, nil
}

func (s *HTTPMP3Source) Read(samples []int32) (int, error) { return s.read(samples) }
func (s *HTTPMP3Source) SampleRate() int                    { return s.sampleRate }
func (s *HTTPMP3Source) Channels() int                      { return 2 }
func (s *HTTPMP3Source) Metadata() (string, string, string) {
	return s.url, "HTTP Stream", ""
}
func (s *HTTPMP3Source) Close() error {
	return s.body.Close()
}
