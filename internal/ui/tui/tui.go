package tui

import (
	"github.com/PizzaHomicide/vplug/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the player until the user quits or playback ends
func Run(ctrl models.Controller, title string) error {
	p := tea.NewProgram(models.NewAppModel(ctrl, title), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
