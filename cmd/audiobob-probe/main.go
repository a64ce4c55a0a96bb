// ABOUTME: Headless pipeline probe
// ABOUTME: Packetizes tracks, decodes them back and reports timing and stats
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Sendspin/audiobob/internal/track"
	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/Sendspin/audiobob/pkg/audio/decode"
	"github.com/Sendspin/audiobob/pkg/audio/packet"
	"golang.org/x/sync/errgroup"
)

var (
	codec    = flag.String("codec", "opus", "Stream codec: opus or pcm")
	rate     = flag.Int("rate", 48000, "Stream sample rate")
	channels = flag.Int("channels", 2, "Stream channels")
	verbose  = flag.Bool("v", false, "Print every frame")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <track>...\n", os.Args[0])
		os.Exit(2)
	}

	format := audio.Format{Codec: *codec, SampleRate: *rate, Channels: *channels, BitDepth: 16}
	if err := probe(context.Background(), format, flag.Args()); err != nil {
		log.Fatalf("Probe failed: %v", err)
	}
}

func probe(ctx context.Context, format audio.Format, locations []string) error {
	q := packet.NewQueue(0)
	pz, err := track.NewPacketizer(q, format)
	if err != nil {
		return err
	}
	defer pz.Close()

	engine, err := decode.NewEngine(format, pz.FrameSize())
	if err != nil {
		return err
	}
	defer engine.Close()

	dec, err := decode.NewPacketDecoder(engine, q, decode.DecoderConfig{
		InitialTimeBase: audio.SampleTimeBase(format.SampleRate),
	})
	if err != nil {
		return err
	}
	defer dec.Close()

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer q.Finish(gctx)
		for i, loc := range locations {
			src, err := track.Open(loc)
			if err != nil {
				log.Printf("Skipping %s: %v", loc, err)
				continue
			}
			title, artist, _ := src.Metadata()
			log.Printf("Track %d: %s - %s (%dHz %dch)", i+1, artist, title, src.SampleRate(), src.Channels())

			n, err := pz.Stream(gctx, src, i+1)
			src.Close()
			if err != nil {
				return fmt.Errorf("failed to stream %s: %w", loc, err)
			}
			log.Printf("Track %d: queued %v", i+1, audio.ToDuration(n, audio.SampleTimeBase(format.SampleRate)))
		}
		return nil
	})

	g.Go(func() error {
		var (
			frame   audio.Frame
			lastQID int
			nextTS  int64
			gaps    int
		)
		for {
			n, err := dec.FillFrame(gctx, &frame)
			if errors.Is(err, decode.ErrEndOfStream) {
				break
			}
			if err != nil {
				return err
			}

			if qid := dec.LastQueueID(); qid != lastQID {
				log.Printf("Queue id %d starts at %v", qid, frame.Position())
				lastQID = qid
			} else if frame.Timestamp != nextTS {
				gaps++
			}
			nextTS = frame.Timestamp + int64(n)

			if *verbose {
				log.Printf("  frame ts=%d n=%d (%v)", frame.Timestamp, n, frame.Position())
			}
		}

		stats := dec.Stats()
		played := audio.ToDuration(stats.SamplesDecoded, audio.SampleTimeBase(format.SampleRate))
		log.Printf("Decoded %d frames (%v of audio) in %v", stats.FramesDecoded, played, time.Since(start).Round(time.Millisecond))
		log.Printf("Packets: %d pulled, %d skipped, %d bytes queued; timestamp gaps: %d",
			stats.PacketsPulled, stats.PacketsSkipped, pz.BytesQueued(), gaps)
		return nil
	})

	return g.Wait()
}
