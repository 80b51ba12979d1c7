package models

import "github.com/PizzaHomicide/vplug/internal/host"

// StatusMsg carries a new status snapshot from the controller
type StatusMsg struct {
	Status host.Status
}

// PlaybackDoneMsg is sent once the controller has stopped playback
type PlaybackDoneMsg struct {
	Status host.Status
}
