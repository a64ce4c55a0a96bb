// ABOUTME: YAML configuration for the audiobob player
// ABOUTME: Loads, defaults and validates settings that CLI flags may override
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/Sendspin/audiobob/pkg/audio/output"
	"gopkg.in/yaml.v3"
)

// Config is the player configuration file
type Config struct {
	Stream  StreamConfig  `yaml:"stream"`
	Output  OutputConfig  `yaml:"output"`
	Player  PlayerConfig  `yaml:"player"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracks are played in order after any given on the command line
	Tracks []string `yaml:"tracks"`
}

// StreamConfig is the internal packet stream format
type StreamConfig struct {
	Codec      string `yaml:"codec"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	BitDepth   int    `yaml:"bit_depth"`
	QueueSize  int    `yaml:"queue_size"`
}

// OutputConfig selects the playback device
type OutputConfig struct {
	Backend    string `yaml:"backend"`
	SampleRate int    `yaml:"sample_rate"` // 0 follows the stream
	BitDepth   int    `yaml:"bit_depth"`
}

// PlayerConfig holds UI and volume settings
type PlayerConfig struct {
	Volume int  `yaml:"volume"`
	NoTUI  bool `yaml:"no_tui"`
}

// LogConfig controls the rotating log file
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig enables the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables metrics
}

var (
	validCodecs    = []string{"opus", "pcm"}
	validBitDepths = []int{16, 24}
)

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			Codec:      "opus",
			SampleRate: 48000,
			Channels:   2,
			BitDepth:   16,
		},
		Output: OutputConfig{
			Backend:  "malgo",
			BitDepth: 16,
		},
		Player: PlayerConfig{
			Volume: 100,
		},
		Log: LogConfig{
			File:       "audiobob.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the YAML file at path on top of the defaults
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg and returns every problem found, joined
func Validate(cfg *Config) error {
	var errs []error

	if !slices.Contains(validCodecs, cfg.Stream.Codec) {
		errs = append(errs, fmt.Errorf("stream.codec %q is invalid; valid values: %v", cfg.Stream.Codec, validCodecs))
	}
	if cfg.Stream.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("stream.sample_rate must be positive, got %d", cfg.Stream.SampleRate))
	}
	if cfg.Stream.Channels < 1 || cfg.Stream.Channels > 2 {
		errs = append(errs, fmt.Errorf("stream.channels must be 1 or 2, got %d", cfg.Stream.Channels))
	}
	if !slices.Contains(validBitDepths, cfg.Stream.BitDepth) {
		errs = append(errs, fmt.Errorf("stream.bit_depth %d is invalid; valid values: %v", cfg.Stream.BitDepth, validBitDepths))
	}
	if cfg.Stream.Codec == "opus" {
		switch cfg.Stream.SampleRate {
		case 8000, 12000, 16000, 24000, 48000:
		default:
			errs = append(errs, fmt.Errorf("stream.sample_rate %d is not supported by opus", cfg.Stream.SampleRate))
		}
	}
	if cfg.Stream.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("stream.queue_size must not be negative, got %d", cfg.Stream.QueueSize))
	}

	if !slices.Contains(output.Backends, cfg.Output.Backend) {
		errs = append(errs, fmt.Errorf("output.backend %q is invalid; valid values: %v", cfg.Output.Backend, output.Backends))
	}
	if cfg.Output.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("output.sample_rate must not be negative, got %d", cfg.Output.SampleRate))
	}
	if !slices.Contains(validBitDepths, cfg.Output.BitDepth) {
		errs = append(errs, fmt.Errorf("output.bit_depth %d is invalid; valid values: %v", cfg.Output.BitDepth, validBitDepths))
	}

	if cfg.Player.Volume < 0 || cfg.Player.Volume > 100 {
		errs = append(errs, fmt.Errorf("player.volume must be between 0 and 100, got %d", cfg.Player.Volume))
	}

	if cfg.Log.File == "" {
		errs = append(errs, errors.New("log.file must be set"))
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits must not be negative"))
	}

	return errors.Join(errs...)
}

// StreamFormat returns the stream settings as an audio format
func (c *Config) StreamFormat() audio.Format {
	return audio.Format{
		Codec:      c.Stream.Codec,
		SampleRate: c.Stream.SampleRate,
		Channels:   c.Stream.Channels,
		BitDepth:   c.Stream.BitDepth,
	}
}
