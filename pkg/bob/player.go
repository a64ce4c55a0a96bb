// ABOUTME: High-level Player API for audiobob
// ABOUTME: Runs the producer (tracks to packets) and consumer (frames to output) pair
package bob

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sendspin/audiobob/internal/track"
	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/Sendspin/audiobob/pkg/audio/decode"
	"github.com/Sendspin/audiobob/pkg/audio/output"
	"github.com/Sendspin/audiobob/pkg/audio/packet"
	"github.com/Sendspin/audiobob/pkg/audio/resample"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPlayerClosed is returned by Run after Close
	ErrPlayerClosed = errors.New("player closed")
	// ErrAlreadyRunning is returned when Run is called twice
	ErrAlreadyRunning = errors.New("player already running")
)

// Player states
const (
	StateIdle    = "idle"
	StatePlaying = "playing"
	StateStopped = "stopped"
)

// PlayerConfig holds player configuration
type PlayerConfig struct {
	// StreamFormat is the codec and format of the internal packet stream
	// (default: Opus 48kHz stereo)
	StreamFormat audio.Format

	// OutputRate is the device sample rate (default: stream rate)
	OutputRate int

	// OutputBitDepth is the device bit depth (default: 16)
	OutputBitDepth int

	// Output is the playback device (default: malgo)
	Output output.Output

	// Volume is the initial volume (0-100, default: 100 when nil)
	Volume *int

	// QueueSize is the packet queue capacity (default: packet.DefaultCapacity)
	QueueSize int

	// OnNowPlaying is called when a new entry becomes audible
	OnNowPlaying func(Entry)

	// OnStateChange is called when playback state changes
	OnStateChange func(PlayerState)

	// OnError is called for errors that do not stop playback
	OnError func(error)
}

// PlayerState describes the current state
type PlayerState struct {
	State      string
	Volume     int
	Muted      bool
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	NowPlaying Entry
	Position   time.Duration
}

// PlayerStats contains playback statistics
type PlayerStats struct {
	Decoder       decode.DecoderStats
	PacketsQueued int64
	BytesQueued   int64
	QueueDepth    int
	FramesPlayed  int64
	SamplesPlayed int64
	TracksStarted int64
	TracksFailed  int64
	Skips         int64
}

// Player plays a playlist through the packet pipeline
type Player struct {
	config PlayerConfig

	// Components
	playlist   *playlist
	queue      *packet.Queue
	packetizer *track.Packetizer
	engine     decode.Engine
	decoder    *decode.PacketDecoder
	output     output.Output
	resampler  *resample.Resampler

	// State
	mu        sync.Mutex
	state     PlayerState
	closed    bool
	runCancel context.CancelFunc
	runDone   chan struct{}

	// Producer bookkeeping, guarded by mu
	streaming       Entry
	streamingCancel context.CancelFunc
	skipRequested   bool

	// Queue id whose remaining frames the consumer drops
	dropQueueID atomic.Int64

	// Consumer bookkeeping, consumer goroutine only
	nowQueueID  int
	trackStart  int64
	lastFlushes int64

	framesPlayed  atomic.Int64
	samplesPlayed atomic.Int64
	tracksStarted atomic.Int64
	tracksFailed  atomic.Int64
	skips         atomic.Int64
}

// NewPlayer creates a new player with the given configuration
func NewPlayer(config PlayerConfig) (*Player, error) {
	// Set defaults
	if config.StreamFormat.Codec == "" {
		config.StreamFormat = audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}
	}
	if config.OutputRate == 0 {
		config.OutputRate = config.StreamFormat.SampleRate
	}
	if config.OutputBitDepth == 0 {
		config.OutputBitDepth = 16
	}
	volume := 100
	if config.Volume != nil {
		volume = max(0, min(100, *config.Volume))
	}
	if config.Output == nil {
		config.Output = output.NewMalgo()
	}

	queue := packet.NewQueue(config.QueueSize)

	packetizer, err := track.NewPacketizer(queue, config.StreamFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create packetizer: %w", err)
	}

	engine, err := decode.NewEngine(config.StreamFormat, packetizer.FrameSize())
	if err != nil {
		packetizer.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	decoder, err := decode.NewPacketDecoder(engine, queue, decode.DecoderConfig{
		InitialTimestamp: 0,
		InitialTimeBase:  audio.SampleTimeBase(config.StreamFormat.SampleRate),
	})
	if err != nil {
		engine.Close()
		packetizer.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	p := &Player{
		config:     config,
		playlist:   newPlaylist(),
		queue:      queue,
		packetizer: packetizer,
		engine:     engine,
		decoder:    decoder,
		output:     config.Output,
		state: PlayerState{
			State:      StateIdle,
			Volume:     volume,
			Codec:      config.StreamFormat.Codec,
			SampleRate: config.OutputRate,
			Channels:   config.StreamFormat.Channels,
			BitDepth:   config.OutputBitDepth,
		},
	}

	if config.OutputRate != config.StreamFormat.SampleRate {
		p.resampler = resample.New(config.StreamFormat.SampleRate, config.OutputRate, config.StreamFormat.Channels)
	}

	p.applyVolume()
	return p, nil
}

// Enqueue appends a track location to the playlist
func (p *Player) Enqueue(location string) (Entry, error) {
	if location == "" {
		return Entry{}, errors.New("empty track location")
	}
	e, err := p.playlist.add(location)
	if err != nil {
		return Entry{}, err
	}
	log.Printf("Queued %s (queue id %d)", location, e.QueueID)
	return e, nil
}

// Queue returns the entries not yet started
func (p *Player) Queue() []Entry {
	return p.playlist.entries()
}

// Run plays the playlist until it is exhausted, ctx is cancelled or Close
// is called. It returns nil in those cases and the error for fatal
// decoder or output failures.
func (p *Player) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	if p.runDone != nil {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	p.runCancel = cancel
	p.runDone = make(chan struct{})
	done := p.runDone
	p.mu.Unlock()

	defer close(done)
	defer cancel()

	format := p.config.StreamFormat
	if err := p.output.Open(p.config.OutputRate, format.Channels, p.config.OutputBitDepth); err != nil {
		return fmt.Errorf("failed to initialize output: %w", err)
	}

	log.Printf("Playback starting: %s %dHz %dch -> %dHz %d-bit",
		format.Codec, format.SampleRate, format.Channels, p.config.OutputRate, p.config.OutputBitDepth)
	p.setState(StatePlaying)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.produce(gctx) })
	g.Go(func() error { return p.consume(gctx) })
	err := g.Wait()

	p.setState(StateStopped)
	return err
}

// produce streams playlist entries into the packet queue
func (p *Player) produce(ctx context.Context) error {
	for {
		entry, ok := p.playlist.next()
		if !ok {
			log.Printf("Playlist finished")
			if err := p.queue.Finish(ctx); err != nil && !errors.Is(err, packet.ErrClosed) && ctx.Err() == nil {
				return fmt.Errorf("failed to finish stream: %w", err)
			}
			return nil
		}

		if err := p.streamEntry(ctx, entry); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// streamEntry opens and packetizes one entry. Track errors are reported
// and skipped; only queue failures stop the producer.
func (p *Player) streamEntry(ctx context.Context, entry Entry) error {
	src, err := track.Open(entry.Location)
	if err != nil {
		p.tracksFailed.Add(1)
		p.notifyError(fmt.Errorf("failed to open %s: %w", entry.Location, err))
		return nil
	}
	defer src.Close()

	entry.Title, entry.Artist, entry.Album = src.Metadata()
	p.playlist.update(entry)
	p.tracksStarted.Add(1)

	tctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	p.streaming = entry
	p.streamingCancel = cancel
	p.skipRequested = false
	p.mu.Unlock()

	queued, err := p.packetizer.Stream(tctx, src, entry.QueueID)

	p.mu.Lock()
	skipped := p.skipRequested
	p.streaming = Entry{}
	p.streamingCancel = nil
	p.skipRequested = false
	p.mu.Unlock()

	switch {
	case ctx.Err() != nil:
		return nil

	case skipped:
		dropped, ferr := p.queue.Flush(ctx)
		if ferr != nil {
			if errors.Is(ferr, packet.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to flush queue: %w", ferr)
		}
		log.Printf("Skipped %s after %d samples, dropped %d queued packets", entry.Title, queued, dropped)
		return nil

	case errors.Is(err, packet.ErrClosed):
		return nil

	case err != nil:
		p.tracksFailed.Add(1)
		p.notifyError(fmt.Errorf("failed to stream %s: %w", entry.Location, err))
		return nil
	}

	log.Printf("Finished queueing %s (%d samples)", entry.Title, queued)
	return nil
}

// consume pulls frames from the decoder and writes them to the output
func (p *Player) consume(ctx context.Context) error {
	var frame audio.Frame
	for {
		n, err := p.decoder.FillFrame(ctx, &frame)
		switch {
		case errors.Is(err, decode.ErrEndOfStream):
			log.Printf("End of stream")
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return fmt.Errorf("decode failed: %w", err)
		}

		if qid := p.decoder.LastQueueID(); qid != 0 && int64(qid) == p.dropQueueID.Load() {
			continue
		}
		p.trackNowPlaying(&frame)

		samples := frame.Samples
		if p.resampler != nil {
			if flushes := p.decoder.Stats().Flushes; flushes != p.lastFlushes {
				p.lastFlushes = flushes
				p.resampler.Reset()
			}
			samples = p.resampler.Process(samples)
		}

		if err := p.output.Write(samples); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("playback error: %w", err)
		}

		p.framesPlayed.Add(1)
		p.samplesPlayed.Add(int64(n))
		p.updatePosition(&frame)
	}
}

// trackNowPlaying reports a change of the decoder's queue id
func (p *Player) trackNowPlaying(frame *audio.Frame) {
	qid := p.decoder.LastQueueID()
	if qid == p.nowQueueID {
		return
	}
	p.nowQueueID = qid
	p.trackStart = frame.Timestamp

	entry, ok := p.playlist.lookup(qid)
	if !ok {
		return
	}

	log.Printf("Now playing: %s (queue id %d)", entry.Title, qid)
	p.mu.Lock()
	p.state.NowPlaying = entry
	p.state.Position = 0
	p.mu.Unlock()

	if p.config.OnNowPlaying != nil {
		p.config.OnNowPlaying(entry)
	}
	p.notifyStateChange()
}

func (p *Player) updatePosition(frame *audio.Frame) {
	pos := audio.ToDuration(frame.Timestamp+int64(frame.SampleCount)-p.trackStart, frame.TimeBase)
	p.mu.Lock()
	p.state.Position = pos
	p.mu.Unlock()
}

// Skip stops the audible entry and moves on to the next one. It does
// nothing before the first entry is audible.
//
// While the audible entry is still being streamed, the producer stops it
// and flushes the queue. Once it is fully queued, entries after it may
// already be queued too, so the consumer drops its remaining frames instead.
func (p *Player) Skip() error {
	playing := p.decoder.LastQueueID()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	if playing == 0 {
		p.mu.Unlock()
		return nil
	}
	if p.streamingCancel != nil && p.streaming.QueueID == playing {
		p.skipRequested = true
		p.streamingCancel()
		p.mu.Unlock()
		p.skips.Add(1)
		return nil
	}
	p.mu.Unlock()

	p.dropQueueID.Store(int64(playing))
	p.skips.Add(1)
	log.Printf("Skipping rest of queue id %d", playing)
	return nil
}

// SetVolume sets the volume (0-100)
func (p *Player) SetVolume(volume int) error {
	volume = max(0, min(100, volume))

	p.mu.Lock()
	p.state.Volume = volume
	p.mu.Unlock()

	p.applyVolume()
	p.notifyStateChange()
	return nil
}

// Mute sets the mute state
func (p *Player) Mute(muted bool) error {
	p.mu.Lock()
	p.state.Muted = muted
	p.mu.Unlock()

	p.applyVolume()
	p.notifyStateChange()
	return nil
}

func (p *Player) applyVolume() {
	vc, ok := p.output.(output.VolumeControl)
	if !ok {
		return
	}
	p.mu.Lock()
	volume, muted := p.state.Volume, p.state.Muted
	p.mu.Unlock()

	vc.SetVolume(volume)
	vc.SetMuted(muted)
}

// Status returns the current player state
func (p *Player) Status() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stats returns playback statistics
func (p *Player) Stats() PlayerStats {
	return PlayerStats{
		Decoder:       p.decoder.Stats(),
		PacketsQueued: p.packetizer.PacketsQueued(),
		BytesQueued:   p.packetizer.BytesQueued(),
		QueueDepth:    p.queue.Len(),
		FramesPlayed:  p.framesPlayed.Load(),
		SamplesPlayed: p.samplesPlayed.Load(),
		TracksStarted: p.tracksStarted.Load(),
		TracksFailed:  p.tracksFailed.Load(),
		Skips:         p.skips.Load(),
	}
}

// DecoderState returns the packet decoder state
func (p *Player) DecoderState() decode.State {
	return p.decoder.State()
}

// Close stops playback and releases all resources
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	cancel, done := p.runCancel, p.runDone
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.queue.Close()
	if done != nil {
		<-done
	}

	// The decoder borrows the engine, so it goes first
	p.decoder.Close()
	p.engine.Close()
	p.packetizer.Close()

	var err error
	if p.output != nil {
		err = p.output.Close()
	}

	p.setState(StateStopped)
	return err
}

func (p *Player) setState(state string) {
	p.mu.Lock()
	changed := p.state.State != state
	p.state.State = state
	p.mu.Unlock()

	if changed {
		p.notifyStateChange()
	}
}

// notifyStateChange calls the OnStateChange callback if set
func (p *Player) notifyStateChange() {
	if p.config.OnStateChange != nil {
		p.config.OnStateChange(p.Status())
	}
}

// notifyError calls the OnError callback if set
func (p *Player) notifyError(err error) {
	if p.config.OnError != nil {
		p.config.OnError(err)
	} else {
		log.Printf("Player error: %v", err)
	}
}
