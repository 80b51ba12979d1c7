package models

import (
	"fmt"
	"strings"

	kb "github.com/PizzaHomicide/vplug/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/vplug/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// HelpModel displays contextual help with scrolling
type HelpModel struct {
	width, height int
	context       View
	viewport      viewport.Model
}

// NewHelpModel creates a new help model for the given context
func NewHelpModel(context View) *HelpModel {
	return &HelpModel{
		context:  context,
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model
func (m *HelpModel) Init() tea.Cmd {
	// Set initial content if dimensions are available
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
	return nil
}

// Update handles messages
func (m *HelpModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
			return m, cmd
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
			return m, cmd
		}
	}
	return m, cmd
}

func (m *HelpModel) ViewType() View {
	return m.context
}

// SetContext switches the view the help describes
func (m *HelpModel) SetContext(context View) {
	m.context = context
	m.updateContent()
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width - 4    // Account for borders
	contentHeight := height - 10 // Account for header, footer, spacing

	// Ensure we don't set negative dimensions
	if contentWidth < 1 {
		contentWidth = 1
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight

	m.updateContent()
}

// updateContent generates help content and updates the viewport
func (m *HelpModel) updateContent() {
	m.viewport.SetContent(m.generateHelpContent())
	// Reset to top when content changes
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	header := styles.Header(m.width, "Help: "+m.getContextTitle())

	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"", // Spacing
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		"", // Spacing
		footer,
	)
}

// getContextTitle returns a user-friendly title for the context
func (m *HelpModel) getContextTitle() string {
	switch m.context {
	case ViewPlayer:
		return "Player"
	case ViewLoading:
		return "Loading"
	default:
		return "General"
	}
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func (m *HelpModel) formatKeybindingSection(title string, bindings []kb.Binding) string {
	if len(bindings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	keyTexts := make([]string, len(bindings))
	maxKeyWidth := 0
	for i, binding := range bindings {
		keyText := kb.KeyName(binding.KeyMap.Primary)
		if binding.KeyMap.Secondary != "" {
			keyText += " or " + kb.KeyName(binding.KeyMap.Secondary)
		}
		keyTexts[i] = keyText
		maxKeyWidth = max(maxKeyWidth, runewidth.StringWidth(keyText))
	}

	for i, binding := range bindings {
		padding := strings.Repeat(" ", maxKeyWidth-runewidth.StringWidth(keyTexts[i]))

		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(keyTexts[i]),
			padding,
			binding.KeyMap.Help))
	}

	return b.String()
}

// generateHelpContent builds the complete help content
func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	b.WriteString(titleStyle.Render(m.getContextTitle()))
	b.WriteString("\n\n")
	b.WriteString(m.getContextDescription())
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")
	b.WriteString(m.formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal]))
	b.WriteString("\n")
	b.WriteString(m.formatKeybindingSection("Player commands:", kb.ContextBindings[kb.ContextPlayer]))

	return b.String()
}

// getContextDescription returns help text for the current context
func (m *HelpModel) getContextDescription() string {
	switch m.context {
	case ViewLoading:
		return "The video source is being opened.  Playback starts by itself once enough of it has loaded.\n\n" +
			"Warnings and errors reported while loading are shown below the spinner."

	case ViewPlayer:
		return "The player screen shows the playback state, position and duration of the video.\n\n" +
			"Volume and mute changes made here are remembered in the config file when vplug exits. " +
			"When the video reaches its end playback stops and vplug exits."

	default:
		return "vplug plays a single video through mpv and mirrors its playback state in the terminal."
	}
}
