// ABOUTME: Entry point for the audiobob player
// ABOUTME: Parses config and CLI flags, then plays the given tracks
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Sendspin/audiobob/internal/config"
	"github.com/Sendspin/audiobob/internal/metrics"
	"github.com/Sendspin/audiobob/internal/ui"
	"github.com/Sendspin/audiobob/internal/version"
	"github.com/Sendspin/audiobob/pkg/audio/output"
	"github.com/Sendspin/audiobob/pkg/bob"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/natefinch/lumberjack"
)

var (
	configFile  = flag.String("config", "", "YAML config file")
	codec       = flag.String("codec", "", "Stream codec: opus or pcm")
	backend     = flag.String("output", "", "Output backend: malgo, oto or null")
	outputRate  = flag.Int("output-rate", 0, "Output sample rate (default: stream rate)")
	volume      = flag.Int("volume", -1, "Initial volume 0-100")
	logFile     = flag.String("log-file", "", "Log file path")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <track>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Tracks are .mp3/.flac files, http(s) MP3 URLs or tone:<hz>[:<seconds>]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	tracks := append(flag.Args(), cfg.Tracks...)
	if len(tracks) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	useTUI := !cfg.Player.NoTUI

	// Set up logging
	logWriter := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	defer logWriter.Close()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(logWriter)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, logWriter))
		log.Printf("Starting %s %s", version.Product, version.Version)
	}

	out, err := output.New(cfg.Output.Backend)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		tuiProg = ui.Run(controls, cfg.Player.Volume)
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	var player *bob.Player
	player, err = bob.NewPlayer(bob.PlayerConfig{
		StreamFormat:   cfg.StreamFormat(),
		OutputRate:     cfg.Output.SampleRate,
		OutputBitDepth: cfg.Output.BitDepth,
		Output:         out,
		Volume:         &cfg.Player.Volume,
		QueueSize:      cfg.Stream.QueueSize,
		OnNowPlaying: func(e bob.Entry) {
			queued := len(player.Queue())
			updateTUI(ui.StatusMsg{
				QueueID: e.QueueID,
				Title:   e.Title,
				Artist:  e.Artist,
				Album:   e.Album,
				Queued:  &queued,
			})
		},
		OnStateChange: func(state bob.PlayerState) {
			updateTUI(ui.StatusMsg{
				State:      state.State,
				Codec:      state.Codec,
				SampleRate: state.SampleRate,
				Channels:   state.Channels,
				BitDepth:   state.BitDepth,
				Volume:     &state.Volume,
				Muted:      &state.Muted,
			})
		},
		OnError: func(err error) {
			log.Printf("Player error: %v", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	for _, t := range tracks {
		if _, err := player.Enqueue(t); err != nil {
			log.Fatalf("Failed to queue %s: %v", t, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry(player.Stats)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	if controls != nil {
		go handleControls(ctx, player, controls)
		go statsUpdateLoop(ctx, player, updateTUI)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- player.Run(ctx) }()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit chan struct{}
	if controls != nil {
		quit = controls.Quit
	}

	exitCode := 0
	select {
	case err := <-runDone:
		if err != nil {
			log.Printf("Playback failed: %v", err)
			exitCode = 1
		} else {
			log.Printf("Playback finished")
		}
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	}

	cancel()
	if err := player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}
	if tuiProg != nil {
		tuiProg.Quit()
		tuiProg.Wait()
	}

	log.Printf("Player stopped")
	if exitCode != 0 {
		logWriter.Close()
		os.Exit(exitCode)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return nil, err
		}
	}

	if *codec != "" {
		cfg.Stream.Codec = *codec
	}
	if *backend != "" {
		cfg.Output.Backend = *backend
	}
	if *outputRate != 0 {
		cfg.Output.SampleRate = *outputRate
	}
	if *volume >= 0 {
		cfg.Player.Volume = *volume
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *noTUI {
		cfg.Player.NoTUI = true
	}

	return cfg, config.Validate(cfg)
}

// handleControls applies volume changes and skips from the TUI
func handleControls(ctx context.Context, player *bob.Player, controls *ui.Controls) {
	for {
		select {
		case vol := <-controls.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			player.SetVolume(vol.Volume)
			player.Mute(vol.Muted)
		case <-controls.Skip:
			if err := player.Skip(); err != nil {
				log.Printf("Skip failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with playback statistics
func statsUpdateLoop(ctx context.Context, player *bob.Player, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	// Runtime stats are collected less often
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	var lastGoroutines int
	var lastMemAlloc uint64

	for {
		select {
		case <-ctx.Done():
			return

		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			lastGoroutines = runtime.NumGoroutine()
			lastMemAlloc = m.Alloc

		case <-ticker.C:
			stats := player.Stats()
			status := player.Status()
			queued := len(player.Queue())

			updateTUI(ui.StatusMsg{
				QueueID:        status.NowPlaying.QueueID,
				Title:          status.NowPlaying.Title,
				Artist:         status.NowPlaying.Artist,
				Album:          status.NowPlaying.Album,
				Position:       status.Position,
				Queued:         &queued,
				FramesPlayed:   stats.FramesPlayed,
				PacketsSkipped: stats.Decoder.PacketsSkipped,
				QueueDepth:     stats.QueueDepth,
				Flushes:        stats.Decoder.Flushes,
				Goroutines:     lastGoroutines,
				MemAlloc:       lastMemAlloc,
			})
		}
	}
}
