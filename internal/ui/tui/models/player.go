package models

import (
	"fmt"
	"strings"

	"github.com/PizzaHomicide/vplug/internal/host"
	"github.com/PizzaHomicide/vplug/internal/log"
	"github.com/PizzaHomicide/vplug/internal/plugin"
	"github.com/PizzaHomicide/vplug/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/vplug/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/vplug/internal/ui/tui/styles"
	"github.com/PizzaHomicide/vplug/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	seekStep   = 10.0
	volumeStep = 5.0
)

// PlayerModel shows the playback status and turns key presses into controller commands
type PlayerModel struct {
	width, height int
	title         string
	ctrl          Controller
	status        host.Status
	spinner       spinner.Model
	progress      progress.Model
}

// NewPlayerModel creates the player view for the media titled title
func NewPlayerModel(ctrl Controller, title string) *PlayerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &PlayerModel{
		title:    title,
		ctrl:     ctrl,
		status:   ctrl.Status(),
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m *PlayerModel) ViewType() View {
	return ViewPlayer
}

func (m *PlayerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *PlayerModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		m.status = msg.Status
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *PlayerModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	action := kb.GetActionByKey(msg, kb.ContextPlayer)
	if action != "" {
		log.Debug("Player key pressed", "key", msg.String(), "action", action)
	}

	switch action {
	case kb.ActionTogglePause:
		m.ctrl.TogglePause()
	case kb.ActionSeekBackward:
		m.ctrl.SeekBy(-seekStep)
	case kb.ActionSeekForward:
		m.ctrl.SeekBy(seekStep)
	case kb.ActionVolumeUp:
		m.ctrl.VolumeBy(volumeStep)
	case kb.ActionVolumeDown:
		m.ctrl.VolumeBy(-volumeStep)
	case kb.ActionToggleMute:
		m.ctrl.ToggleMute()
	case kb.ActionCycleSpeed:
		m.ctrl.CycleSpeed()
	case kb.ActionQuit:
		log.Info("Quit command received.  Stopping playback...")
		return tea.Quit
	default:
		return nil
	}
	m.status = m.ctrl.Status()
	return nil
}

func (m *PlayerModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.progress.Width = max(10, min(width-12, 100))
}

// View renders the player screen
func (m *PlayerModel) View() string {
	contentWidth := max(20, min(m.width-4, 110))
	status := m.status

	var b strings.Builder
	b.WriteString(m.stateLine(status))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(util.Fraction(status.Position, status.Duration)))
	b.WriteString("\n")
	b.WriteString(styles.Faint.Render(fmt.Sprintf("%s / %s",
		util.FormatPosition(status.Position), formatDuration(status.Duration))))
	b.WriteString("\n\n")
	b.WriteString(m.settingsLine(status))

	if line := messageLine(status.Message, contentWidth-4); line != "" {
		b.WriteString("\n\n")
		b.WriteString(line)
	}

	footer := components.KeyBindingsBar(m.width, []components.KeyBinding{
		{Key: " ", Desc: "Play/pause"},
		{Key: "←/→", Desc: "Seek"},
		{Key: "↑/↓", Desc: "Volume"},
		{Key: "m", Desc: "Mute"},
		{Key: "s", Desc: "Speed"},
		{Key: "ctrl+h", Desc: "Help"},
		{Key: "q", Desc: "Quit"},
	})

	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.Header(m.width, util.TruncateString(m.title, max(10, m.width-4))),
		"",
		styles.ContentBox(contentWidth, b.String(), 1),
		"",
		footer,
	)
}

func (m *PlayerModel) stateLine(status host.Status) string {
	var label string
	switch status.State {
	case plugin.StatePlaying:
		label = "▶ Playing"
	case plugin.StatePaused:
		label = "⏸ Paused"
	case plugin.StatePreparing:
		label = "Starting"
	default:
		label = "■ Stopped"
	}

	line := styles.State.Render(label)
	if status.Loading {
		line += "  " + m.spinner.View() + " " + styles.Faint.Render("Buffering")
	}
	return line
}

func (m *PlayerModel) settingsLine(status host.Status) string {
	volume := fmt.Sprintf("Volume %.0f%%", status.Volume)
	if status.Muted {
		volume += " (muted)"
	}
	return styles.Info.Render(fmt.Sprintf("%s  •  Speed %gx", volume, status.Speed))
}

func formatDuration(duration float64) string {
	if duration <= 0 {
		return "--:--"
	}
	return util.FormatPosition(duration)
}

func messageLine(msg host.Message, width int) string {
	text := util.TruncateString(msg.Text, max(10, width))
	switch msg.Severity {
	case host.SeverityError:
		return styles.Error.Render(text)
	case host.SeverityWarn:
		return styles.Warning.Render(text)
	}
	return ""
}
