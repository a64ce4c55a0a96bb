// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil, 80) // Controls are optional for testing

	if model.volume != 80 {
		t.Errorf("expected volume 80, got %d", model.volume)
	}
	if model.muted {
		t.Error("expected muted to be false initially")
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
	if model.state != "idle" {
		t.Errorf("expected state idle, got %q", model.state)
	}
}

func TestStatusMsgNowPlaying(t *testing.T) {
	model := NewModel(nil, 100)

	queued := 3
	model.applyStatus(StatusMsg{
		State:      "playing",
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
		QueueID:    2,
		Title:      "Test Tone 440Hz",
		Artist:     "audiobob",
		Album:      "Test Signals",
		Position:   75 * time.Second,
		Queued:     &queued,
	})

	if model.state != "playing" {
		t.Errorf("expected state playing, got %q", model.state)
	}
	if model.queueID != 2 || model.title != "Test Tone 440Hz" {
		t.Errorf("unexpected now playing: %d %q", model.queueID, model.title)
	}
	if model.position != 75*time.Second {
		t.Errorf("expected position 75s, got %v", model.position)
	}
	if model.queued != 3 {
		t.Errorf("expected 3 queued, got %d", model.queued)
	}
	if model.codec != "opus" || model.sampleRate != 48000 {
		t.Errorf("unexpected format: %s %d", model.codec, model.sampleRate)
	}
}

func TestStatusMsgPartialUpdate(t *testing.T) {
	model := NewModel(nil, 100)
	model.applyStatus(StatusMsg{QueueID: 1, Title: "first"})

	// Stats-only update keeps the now-playing fields
	model.applyStatus(StatusMsg{FramesPlayed: 10, QueueDepth: 4})

	if model.title != "first" {
		t.Errorf("expected title to survive stats update, got %q", model.title)
	}
	if model.framesPlayed != 10 || model.queueDepth != 4 {
		t.Errorf("unexpected stats: %d frames, depth %d", model.framesPlayed, model.queueDepth)
	}
}

func TestStatusMsgVolume(t *testing.T) {
	model := NewModel(nil, 100)

	zero := 0
	muted := true
	model.applyStatus(StatusMsg{Volume: &zero, Muted: &muted})

	if model.volume != 0 {
		t.Errorf("expected volume 0, got %d", model.volume)
	}
	if !model.muted {
		t.Error("expected muted")
	}
}

func TestVolumeKeys(t *testing.T) {
	tests := []struct {
		name  string
		start int
		keys  []string
		want  int
	}{
		{"up", 50, []string{"up"}, 55},
		{"down", 50, []string{"down", "down"}, 40},
		{"clamp high", 98, []string{"up"}, 100},
		{"clamp low", 3, []string{"down"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewControls()
			model := press(NewModel(ctrl, tt.start), tt.keys...)

			if model.volume != tt.want {
				t.Errorf("expected volume %d, got %d", tt.want, model.volume)
			}

			var last VolumeChangeMsg
			for range tt.keys {
				select {
				case last = <-ctrl.Changes:
				default:
					t.Fatal("expected a volume change message per key")
				}
			}
			if last.Volume != tt.want {
				t.Errorf("expected last change %d, got %d", tt.want, last.Volume)
			}
		})
	}
}

func TestMuteKey(t *testing.T) {
	ctrl := NewControls()
	model := press(NewModel(ctrl, 100), "m")

	if !model.muted {
		t.Fatal("expected muted after m")
	}
	change := <-ctrl.Changes
	if !change.Muted || change.Volume != 100 {
		t.Errorf("unexpected change: %+v", change)
	}
}

func TestSkipKey(t *testing.T) {
	ctrl := NewControls()
	press(NewModel(ctrl, 100), "n")

	select {
	case <-ctrl.Skip:
	default:
		t.Error("expected skip signal")
	}
}

func TestQuitKey(t *testing.T) {
	ctrl := NewControls()
	_, cmd := NewModel(ctrl, 100).Update(key("q"))

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestKeysWithoutControls(t *testing.T) {
	// Must not panic or block
	model := press(NewModel(nil, 50), "up", "m", "n", "d", "q")
	if !model.showDebug {
		t.Error("expected debug view toggled on")
	}
}

func TestView(t *testing.T) {
	model := NewModel(nil, 100)
	if got := model.View(); got != "Loading..." {
		t.Errorf("expected loading view before size, got %q", got)
	}

	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = next.(Model)
	if !strings.Contains(model.View(), "Nothing playing") {
		t.Error("expected idle view")
	}

	model.applyStatus(StatusMsg{QueueID: 1, Title: "Song", Codec: "pcm", SampleRate: 44100, Channels: 1, BitDepth: 16})
	view := model.View()
	for _, want := range []string{"Song", "pcm 44100Hz Mono 16-bit", "Volume:"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := renderBar(50, 100, 10); got != "█████░░░░░" {
		t.Errorf("unexpected bar %q", got)
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := formatPosition(125*time.Second + 400*time.Millisecond); got != "2:05" {
		t.Errorf("expected 2:05, got %q", got)
	}
	if channelName(1) != "Mono" || channelName(2) != "Stereo" {
		t.Error("unexpected channel names")
	}
}
