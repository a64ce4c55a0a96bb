// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Now-playing view with playback stats and volume/skip keys
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sendspin/audiobob/internal/version"
	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	controls *Controls

	// Stream
	codec      string
	sampleRate int
	channels   int
	bitDepth   int

	// Now playing
	queueID  int
	title    string
	artist   string
	album    string
	position time.Duration
	queued   int

	// Playback
	state  string
	volume int
	muted  bool

	// Stats
	framesPlayed   int64
	packetsSkipped int64
	queueDepth     int
	flushes        int64

	// Debug
	showDebug  bool
	goroutines int
	memAlloc   uint64

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state. Zero fields leave the model unchanged.
type StatusMsg struct {
	State      string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int

	QueueID  int
	Title    string
	Artist   string
	Album    string
	Position time.Duration
	Queued   *int

	Volume *int
	Muted  *bool

	FramesPlayed   int64
	PacketsSkipped int64
	QueueDepth     int
	Flushes        int64

	Goroutines int
	MemAlloc   uint64
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderNowPlaying())
	b.WriteString(m.renderControls())
	b.WriteString(m.renderStats())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("%s %s", version.Product, version.Version)
	return fmt.Sprintf(`┌─ %-51s┐
│ State: %-46s │
├──────────────────────────────────────────────────────┤
`, title+" ", m.state)
}

func (m Model) renderNowPlaying() string {
	if m.queueID == 0 {
		return "│ Nothing playing                                      │\n"
	}

	s := fmt.Sprintf("│ Now Playing (#%d):%-35s │\n", m.queueID, "")
	s += fmt.Sprintf("│   Track:  %-42s │\n", truncate(m.title, 42))
	s += fmt.Sprintf("│   Artist: %-42s │\n", truncate(m.artist, 42))
	s += fmt.Sprintf("│   Album:  %-42s │\n", truncate(m.album, 42))
	s += fmt.Sprintf("│   Time:   %-42s │\n", formatPosition(m.position))
	s += "│                                                      │\n"
	s += fmt.Sprintf("│ Format: %-44s │\n",
		fmt.Sprintf("%s %dHz %s %d-bit", m.codec, m.sampleRate, channelName(m.channels), m.bitDepth))
	s += fmt.Sprintf("│ Up next: %-43d │\n", m.queued)
	return s
}

func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: %-44s │\n",
		fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon))
}

func (m Model) renderStats() string {
	stats := fmt.Sprintf("Frames: %d  Skipped: %d  Queue: %d", m.framesPlayed, m.packetsSkipped, m.queueDepth)
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ %-52s │
│                                                      │
`, stats)
}

func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  n:Next  d:Debug  q:Quit          │
└──────────────────────────────────────────────────────┘
`
}

func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Goroutines: %-38d │
│   Heap:       %-38s │
│   Flushes:    %-38d │
`, m.goroutines, fmt.Sprintf("%.1f MiB", float64(m.memAlloc)/(1<<20)), m.flushes)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.signal(m.quitChan())
		return m, tea.Quit
	case "up":
		m.volume = min(100, m.volume+5)
		m.sendVolume()
	case "down":
		m.volume = max(0, m.volume-5)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "n":
		m.signal(m.skipChan())
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

func (m Model) quitChan() chan struct{} {
	if m.controls == nil {
		return nil
	}
	return m.controls.Quit
}

func (m Model) skipChan() chan struct{} {
	if m.controls == nil {
		return nil
	}
	return m.controls.Skip
}

// signal does a non-blocking send; a nil channel is ignored
func (m Model) signal(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.QueueID != 0 {
		m.queueID = msg.QueueID
		m.title = msg.Title
		m.artist = msg.Artist
		m.album = msg.Album
		m.position = msg.Position
	}
	if msg.Queued != nil {
		m.queued = *msg.Queued
	}
	if msg.Volume != nil {
		m.volume = *msg.Volume
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if msg.FramesPlayed != 0 {
		m.framesPlayed = msg.FramesPlayed
		m.packetsSkipped = msg.PacketsSkipped
		m.queueDepth = msg.QueueDepth
		m.flushes = msg.Flushes
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
	}
}

// Utility functions
func renderBar(value, total, width int) string {
	filled := (value * width) / total
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}

func formatPosition(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
