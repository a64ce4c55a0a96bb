// ABOUTME: Prometheus metrics for the audiobob player
// ABOUTME: Exports player and decoder statistics and serves them over HTTP
package metrics

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Sendspin/audiobob/pkg/bob"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "audiobob"

// StatsFunc returns a snapshot of player statistics
type StatsFunc func() bob.PlayerStats

type metric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(bob.PlayerStats) float64
}

// Collector reads player stats on every scrape
type Collector struct {
	stats   StatsFunc
	metrics []metric
}

func newMetric(name, help string, kind prometheus.ValueType, value func(bob.PlayerStats) float64) metric {
	return metric{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		kind:  kind,
		value: value,
	}
}

// NewCollector creates a collector over stats
func NewCollector(stats StatsFunc) *Collector {
	counter, gauge := prometheus.CounterValue, prometheus.GaugeValue
	return &Collector{
		stats: stats,
		metrics: []metric{
			newMetric("decoder_packets_pulled_total", "Audio packets taken from the queue by the decoder", counter,
				func(s bob.PlayerStats) float64 { return float64(s.Decoder.PacketsPulled) }),
			newMetric("decoder_packets_skipped_total", "Packets dropped as undecodable", counter,
				func(s bob.PlayerStats) float64 { return float64(s.Decoder.PacketsSkipped) }),
			newMetric("decoder_frames_total", "Frames emitted by the decoder", counter,
				func(s bob.PlayerStats) float64 { return float64(s.Decoder.FramesDecoded) }),
			newMetric("decoder_samples_total", "Samples per channel emitted by the decoder", counter,
				func(s bob.PlayerStats) float64 { return float64(s.Decoder.SamplesDecoded) }),
			newMetric("decoder_flushes_total", "Flush markers handled by the decoder", counter,
				func(s bob.PlayerStats) float64 { return float64(s.Decoder.Flushes) }),
			newMetric("packets_queued_total", "Packets pushed by the packetizer", counter,
				func(s bob.PlayerStats) float64 { return float64(s.PacketsQueued) }),
			newMetric("bytes_queued_total", "Payload bytes pushed by the packetizer", counter,
				func(s bob.PlayerStats) float64 { return float64(s.BytesQueued) }),
			newMetric("queue_depth", "Packets waiting in the queue", gauge,
				func(s bob.PlayerStats) float64 { return float64(s.QueueDepth) }),
			newMetric("frames_played_total", "Frames written to the output", counter,
				func(s bob.PlayerStats) float64 { return float64(s.FramesPlayed) }),
			newMetric("samples_played_total", "Samples per channel written to the output", counter,
				func(s bob.PlayerStats) float64 { return float64(s.SamplesPlayed) }),
			newMetric("tracks_started_total", "Tracks opened and streamed", counter,
				func(s bob.PlayerStats) float64 { return float64(s.TracksStarted) }),
			newMetric("tracks_failed_total", "Tracks that could not be opened or read", counter,
				func(s bob.PlayerStats) float64 { return float64(s.TracksFailed) }),
			newMetric("skips_total", "Skip requests", counter,
				func(s bob.PlayerStats) float64 { return float64(s.Skips) }),
		},
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(s))
	}
}

// NewRegistry returns a registry with the player collector plus Go and
// process collectors
func NewRegistry(stats StatsFunc) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(NewCollector(stats))
	return reg
}

// Handler serves reg in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.InstrumentMetricHandler(reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))
	hs := http.Server{
		Addr:              addr,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("Exposing prometheus metrics on %s", addr)
	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		hs.Shutdown(ctx)
	}()

	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
