// ABOUTME: Tests for the packetizer
// ABOUTME: Streams tones through the queue and decodes them back
package track

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/Sendspin/audiobob/pkg/audio/decode"
	"github.com/Sendspin/audiobob/pkg/audio/packet"
)

// stuckSource never produces samples
type stuckSource struct{}

func (stuckSource) Read([]int32) (int, error)          { return 0, nil }
func (stuckSource) SampleRate() int                    { return 48000 }
func (stuckSource) Channels() int                      { return 2 }
func (stuckSource) Metadata() (string, string, string) { return "", "", "" }
func (stuckSource) Close() error                       { return nil }

// monoSource yields a fixed mono ramp
type monoSource struct {
	data []int32
	pos  int
}

func (s *monoSource) Read(buf []int32) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(buf, s.data[s.pos:])
	s.pos += n
	return n, nil
}
func (s *monoSource) SampleRate() int                    { return 48000 }
func (s *monoSource) Channels() int                      { return 1 }
func (s *monoSource) Metadata() (string, string, string) { return "mono", "", "" }
func (s *monoSource) Close() error                       { return nil }

func drain(t *testing.T, q *packet.Queue) []packet.Packet {
	t.Helper()
	var out []packet.Packet
	for {
		p, ok, err := q.TryPop()
		if err != nil || !ok {
			return out
		}
		out = append(out, p)
	}
}

func TestNewPacketizer_Invalid(t *testing.T) {
	q := packet.NewQueue(4)
	if _, err := NewPacketizer(q, audio.Format{Codec: "pcm", SampleRate: 48000, BitDepth: 16}); err == nil {
		t.Error("expected error for zero channels")
	}
	if _, err := NewPacketizer(q, audio.Format{Codec: "aac", SampleRate: 48000, Channels: 2, BitDepth: 16}); err == nil {
		t.Error("expected error for unsupported codec")
	}
}

func TestPacketizerRoundTripPCM(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24}
	q := packet.NewQueue(16)

	p, err := NewPacketizer(q, format)
	if err != nil {
		t.Fatalf("NewPacketizer failed: %v", err)
	}
	defer p.Close()

	queued, err := p.Stream(context.Background(), NewToneSource(1000, 0.1), 7)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if queued != 4800 {
		t.Errorf("expected 4800 samples queued, got %d", queued)
	}
	if p.PacketsQueued() != 5 {
		t.Errorf("expected 5 packets, got %d", p.PacketsQueued())
	}
	if err := q.Finish(context.Background()); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	engine, err := decode.NewPCM(format, p.FrameSize())
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}
	dec, err := decode.NewPacketDecoder(engine, q, decode.DecoderConfig{InitialTimestamp: 0, InitialTimeBase: audio.TimeBase48kHz})
	if err != nil {
		t.Fatalf("NewPacketDecoder failed: %v", err)
	}

	var got []int32
	var frame audio.Frame
	for i := 0; ; i++ {
		_, err := dec.FillFrame(context.Background(), &frame)
		if errors.Is(err, decode.ErrEndOfStream) {
			break
		}
		if err != nil {
			t.Fatalf("FillFrame failed: %v", err)
		}
		if frame.Timestamp != int64(i*960) {
			t.Errorf("frame %d: timestamp %d, want %d", i, frame.Timestamp, i*960)
		}
		got = append(got, frame.Samples...)
	}

	want := make([]int32, 9600)
	NewToneSource(1000, 0.1).Read(want)
	if !slices.Equal(got, want) {
		t.Error("decoded samples differ from the tone")
	}
	if dec.LastQueueID() != 7 {
		t.Errorf("expected queue id 7, got %d", dec.LastQueueID())
	}
}

func TestPacketizerResamples(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}
	q := packet.NewQueue(32)

	p, err := NewPacketizer(q, format)
	if err != nil {
		t.Fatalf("NewPacketizer failed: %v", err)
	}

	queued, err := p.Stream(context.Background(), NewToneSource(440, 0.1), 1)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if queued < 4400 || queued > 4412 {
		t.Errorf("expected ~4410 samples queued, got %d", queued)
	}

	packets := drain(t, q)
	for i, pkt := range packets[:len(packets)-1] {
		if pkt.PTS != int64(i*882) {
			t.Errorf("packet %d: pts %d, want %d", i, pkt.PTS, i*882)
		}
		if pkt.TimeBase != audio.TimeBase44kHz {
			t.Errorf("packet %d: time base %s", i, pkt.TimeBase)
		}
		if pkt.Len() != 882*2*2 {
			t.Errorf("packet %d: %d bytes", i, pkt.Len())
		}
	}
}

func TestPacketizerOpusPadsTail(t *testing.T) {
	format := audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}
	q := packet.NewQueue(8)

	p, err := NewPacketizer(q, format)
	if err != nil {
		t.Fatalf("NewPacketizer failed: %v", err)
	}

	queued, err := p.Stream(context.Background(), NewToneSource(440, 0.05), 3)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if queued != 2400 {
		t.Errorf("expected 2400 samples queued, got %d", queued)
	}

	packets := drain(t, q)
	if len(packets) != 3 {
		t.Fatalf("expected 3 packets, got %d", len(packets))
	}
	for i, pkt := range packets {
		if pkt.PTS != int64(i*960) {
			t.Errorf("packet %d: pts %d", i, pkt.PTS)
		}
		if pkt.QueueID != 3 {
			t.Errorf("packet %d: queue id %d", i, pkt.QueueID)
		}
	}
	if p.PTS() != 2880 {
		t.Errorf("expected next pts 2880 after padding, got %d", p.PTS())
	}
}

func TestPacketizerTimelineSpansTracks(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}
	q := packet.NewQueue(16)
	p, _ := NewPacketizer(q, format)

	p.Stream(context.Background(), NewToneSource(440, 0.02), 1)
	p.Stream(context.Background(), NewToneSource(880, 0.02), 2)

	packets := drain(t, q)
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}
	if packets[1].PTS != 960 || packets[1].QueueID != 2 {
		t.Errorf("second track packet: pts %d queue %d", packets[1].PTS, packets[1].QueueID)
	}
}

func TestPacketizerUpmixesMono(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24}
	q := packet.NewQueue(4)
	p, _ := NewPacketizer(q, format)

	data := make([]int32, 960)
	for i := range data {
		data[i] = int32(i * 100)
	}
	if _, err := p.Stream(context.Background(), &monoSource{data: data}, 1); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	packets := drain(t, q)
	if len(packets) != 1 || packets[0].Len() != 960*2*3 {
		t.Fatalf("expected one stereo packet, got %d packets", len(packets))
	}
}

func TestPacketizerStopsOnCancel(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}
	q := packet.NewQueue(1)
	p, _ := NewPacketizer(q, format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.Stream(ctx, NewToneSource(440, 0), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestPacketizerStuckSource(t *testing.T) {
	q := packet.NewQueue(1)
	p, _ := NewPacketizer(q, audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})

	if _, err := p.Stream(context.Background(), stuckSource{}, 1); !errors.Is(err, io.ErrNoProgress) {
		t.Fatalf("expected io.ErrNoProgress, got %v", err)
	}
}

func TestRemix(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		input   []int32
		want    []int32
	}{
		{"same", 2, 2, []int32{1, 2}, []int32{1, 2}},
		{"mono to stereo", 1, 2, []int32{5, 6}, []int32{5, 5, 6, 6}},
		{"stereo to mono", 2, 1, []int32{10, 20, -4, 4}, []int32{15, 0}},
		{"surround to stereo", 6, 2, []int32{1, 2, 3, 4, 5, 6}, []int32{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := remix(tt.input, tt.in, tt.out); !slices.Equal(got, tt.want) {
				t.Errorf("remix = %v, want %v", got, tt.want)
			}
		})
	}
}
