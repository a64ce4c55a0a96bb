// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program and the channels back to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg is sent when the user changes volume or mute
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// Controls carries user actions from the TUI to the player
type Controls struct {
	Changes chan VolumeChangeMsg
	Skip    chan struct{}
	Quit    chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Changes: make(chan VolumeChangeMsg, 10),
		Skip:    make(chan struct{}, 1),
		Quit:    make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Controls, volume int) Model {
	return Model{
		volume:   volume,
		state:    "idle",
		controls: ctrl,
	}
}

// Run creates the TUI program; the caller starts it
func Run(ctrl *Controls, volume int) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, volume), tea.WithAltScreen())
}
