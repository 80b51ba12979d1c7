package plugin

// State is the playback state the host framework tracks for the video plugin
type State int

const (
	StateStopped State = iota
	StatePreparing
	StatePlaying
	StatePaused
)

// String returns a human-readable label for the state
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePreparing:
		return "Preparing"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Host is the capability the adapter uses to talk back to the host framework.  The adapter never calls into a
// Host while holding its own lock, so implementations may call adapter operations from these callbacks.
type Host interface {
	// Debug, Warn and Error report to the host's log sink.  None of them are fatal.
	Debug(msg string)
	Warn(msg string)
	Error(msg string)

	StartLoading()
	StopLoading()
	SetState(state State)

	// ApplyVolume asks the host to push its volume and mute settings into the player
	ApplyVolume()
	// StartPlayback asks the host to begin playback.  Accelerated skips any start delay.
	StartPlayback(accelerated bool)
	StopPlayback()
}

// UpdateData is the periodic playback snapshot handed to the host
type UpdateData struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Speed    float64 `json:"speed"`
}
