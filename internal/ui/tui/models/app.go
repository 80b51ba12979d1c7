package models

import (
	"github.com/PizzaHomicide/vplug/internal/host"
	"github.com/PizzaHomicide/vplug/internal/log"
	"github.com/PizzaHomicide/vplug/internal/plugin"
	kb "github.com/PizzaHomicide/vplug/internal/ui/tui/keybindings"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	ctrl          Controller
	updates       <-chan host.Status
	activeView    View  // Track the current active 'main view'
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	loadingModel *LoadingModel
	playerModel  *PlayerModel
	helpModel    *HelpModel
}

// NewAppModel creates the application model for playing the media titled title
func NewAppModel(ctrl Controller, title string) AppModel {
	return AppModel{
		ctrl:        ctrl,
		updates:     ctrl.Subscribe(),
		activeView:  ViewLoading,
		activeModal: ModalNone,
		loadingModel: NewLoadingModel("Loading video").
			WithTitle("vplug").
			WithContextInfo(title).
			WithActionText("Press q to cancel"),
		playerModel: NewPlayerModel(ctrl, title),
		helpModel:   NewHelpModel(ViewLoading),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising vplug TUI")
	return tea.Batch(
		m.loadingModel.Init(),
		m.playerModel.Init(),
		waitForStatus(m.ctrl, m.updates),
	)
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			return m, tea.Quit
		case kb.ActionToggleHelp:
			log.Debug("Help requested", "active_view", m.activeView)
			// Disable/toggle modal if one already active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.helpModel.SetContext(m.activeView)
				m.activeModal = ModalHelp
			}
			return m, nil
		case kb.ActionBack:
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
		}

		if m.activeModal == ModalHelp {
			_, cmd := m.helpModel.Update(msg)
			return m, cmd
		}
		_, cmd := m.playerModel.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.activeModal == ModalHelp {
			_, cmd := m.helpModel.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		m.loadingModel.Resize(msg.Width, msg.Height)
		m.playerModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		// Each spinner ignores ticks addressed to the other
		_, loadingCmd := m.loadingModel.Update(msg)
		_, playerCmd := m.playerModel.Update(msg)
		return m, tea.Batch(loadingCmd, playerCmd)

	case StatusMsg:
		m.playerModel.Update(msg)
		if view := viewFor(m.activeView, msg.Status); view != m.activeView {
			log.Debug("Switching view", "from", m.activeView, "to", view)
			m.activeView = view
		}
		if msg.Status.Stopped {
			log.Info("Playback finished.  Shutting down...")
			return m, tea.Quit
		}
		return m, waitForStatus(m.ctrl, m.updates)

	case PlaybackDoneMsg:
		m.playerModel.Update(StatusMsg{Status: msg.Status})
		log.Info("Playback finished.  Shutting down...")
		return m, tea.Quit
	}

	return m, nil
}

func (m AppModel) View() string {
	// If there is an active modal it takes precedence
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}

	switch m.activeView {
	case ViewLoading:
		return m.loadingModel.View()
	case ViewPlayer:
		return m.playerModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}

// viewFor leaves the loading view once the media is known or the plugin has something to report
func viewFor(current View, status host.Status) View {
	if current == ViewPlayer {
		return ViewPlayer
	}
	switch {
	case status.State == plugin.StatePlaying, status.State == plugin.StatePaused:
		return ViewPlayer
	case status.Duration > 0:
		return ViewPlayer
	case status.Message.Severity >= host.SeverityWarn:
		return ViewPlayer
	}
	return ViewLoading
}

// waitForStatus waits for the next status snapshot, or for playback to stop
func waitForStatus(ctrl Controller, updates <-chan host.Status) tea.Cmd {
	return func() tea.Msg {
		select {
		case status := <-updates:
			return StatusMsg{Status: status}
		case <-ctrl.Done():
			return PlaybackDoneMsg{Status: ctrl.Status()}
		}
	}
}
