package models

import (
	"github.com/PizzaHomicide/vplug/internal/host"
	tea "github.com/charmbracelet/bubbletea"
)

// View represents a specific UI view in the application
type View string

// Available views in the application
const (
	ViewLoading View = "loading"
	ViewPlayer  View = "player"
)

// Modal represents a UI intended to be temporarily shown to the user before returning to the original view
type Modal string

// Available modals in the application
const (
	ModalNone Modal = "none"
	ModalHelp Modal = "help"
)

// Controller is the playback controller the TUI drives
type Controller interface {
	TogglePause()
	SeekBy(delta float64)
	VolumeBy(delta float64)
	ToggleMute()
	CycleSpeed()

	Status() host.Status
	Subscribe() <-chan host.Status
	Done() <-chan struct{}
}

// Model is implemented by every sub view of the app
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Model, tea.Cmd)
	View() string
	Resize(width, height int)
	ViewType() View
}
