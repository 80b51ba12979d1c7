package host

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/PizzaHomicide/vplug/internal/config"
	"github.com/PizzaHomicide/vplug/internal/log"
	"github.com/PizzaHomicide/vplug/internal/plugin"
)

// Player is the video plugin as seen by the host
type Player interface {
	Init()
	Ready()
	Dispose()

	Play()
	Pause()
	Stop()

	Duration() float64
	Position() float64
	SetPosition(position float64)
	Volume() float64
	SetVolume(volume float64)
	Muted() bool
	SetMuted(muted bool)
	Speed() float64
	SetSpeed(speed float64)
	UpdateData() plugin.UpdateData
}

// Speeds are the playback rates CycleSpeed steps through
var Speeds = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// Severity of a message reported by the plugin
type Severity int

const (
	SeverityNone Severity = iota
	SeverityDebug
	SeverityWarn
	SeverityError
)

// Message is the last notable message the plugin reported
type Message struct {
	Severity Severity
	Text     string
	Time     time.Time
}

// Status is a snapshot of everything the UI shows
type Status struct {
	State    plugin.State
	Loading  bool
	Position float64
	Duration float64
	Speed    float64
	Volume   float64
	Muted    bool
	Message  Message
	Stopped  bool
}

// Controller owns the global playback state for one video plugin.  It implements plugin.Host.
type Controller struct {
	cfg config.PlayerConfig

	mu          sync.Mutex
	player      Player
	state       plugin.State
	loading     int
	volume      float64
	muted       bool
	dirty       bool
	message     Message
	startTimer  *time.Timer
	subscribers []chan Status

	done     chan struct{}
	stopOnce sync.Once
}

var _ plugin.Host = (*Controller)(nil)

// NewController creates a controller using the player settings for volume, mute and timing
func NewController(cfg config.PlayerConfig) *Controller {
	return &Controller{
		cfg:    cfg,
		state:  plugin.StateStopped,
		volume: float64(cfg.Volume),
		muted:  cfg.Muted,
		done:   make(chan struct{}),
	}
}

// SetupPlayer attaches the plugin the controller drives
func (c *Controller) SetupPlayer(p Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player = p
}

// Init initialises the plugin and tells it the host is ready
func (c *Controller) Init() error {
	p := c.getPlayer()
	if p == nil {
		return fmt.Errorf("no player set up")
	}
	log.Info("Initialising video plugin")
	p.Init()
	p.Ready()
	c.publish()
	return nil
}

func (c *Controller) Debug(msg string) {
	log.Debug(msg, "source", "plugin")
}

func (c *Controller) Warn(msg string) {
	log.Warn(msg, "source", "plugin")
	c.setMessage(SeverityWarn, msg)
}

func (c *Controller) Error(msg string) {
	log.Error(msg, "source", "plugin")
	c.setMessage(SeverityError, msg)
}

// StartLoading and StopLoading nest.  Loading shows while at least one start is unmatched.
func (c *Controller) StartLoading() {
	c.mu.Lock()
	c.loading++
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) StopLoading() {
	c.mu.Lock()
	if c.loading > 0 {
		c.loading--
	}
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) SetState(state plugin.State) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	log.Debug("Playback state changed", "from", c.state, "to", state)
	c.state = state
	c.mu.Unlock()
	c.publish()
}

// ApplyVolume pushes the remembered volume and mute setting into the player
func (c *Controller) ApplyVolume() {
	c.mu.Lock()
	p, volume, muted := c.player, c.volume, c.muted
	c.mu.Unlock()

	if p == nil {
		return
	}
	p.SetVolume(volume)
	p.SetMuted(muted)
}

// StartPlayback begins playback.  Unless accelerated, playback starts after the configured start delay.
func (c *Controller) StartPlayback(accelerated bool) {
	c.mu.Lock()
	p := c.player
	c.state = plugin.StatePreparing
	delay := c.cfg.StartDelay
	c.cancelStart()
	if p != nil && !accelerated && delay > 0 {
		c.startTimer = time.AfterFunc(delay, p.Play)
	}
	c.mu.Unlock()

	log.Info("Starting playback", "accelerated", accelerated)
	if p != nil && (accelerated || delay <= 0) {
		p.Play()
	}
	c.publish()
}

// StopPlayback stops the player and marks the playback as finished
func (c *Controller) StopPlayback() {
	c.mu.Lock()
	p := c.player
	c.cancelStart()
	c.state = plugin.StateStopped
	c.loading = 0
	c.mu.Unlock()

	log.Info("Stopping playback")
	if p != nil {
		p.Stop()
	}
	c.stopOnce.Do(func() { close(c.done) })
	c.publish()
}

// Done is closed once playback has been stopped
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// TogglePause pauses while playing and plays otherwise
func (c *Controller) TogglePause() {
	p := c.getPlayer()
	if p == nil {
		return
	}
	if c.Status().State == plugin.StatePlaying {
		p.Pause()
	} else {
		p.Play()
	}
}

// SeekBy moves the position by delta seconds, kept between 0 and the duration when it is known
func (c *Controller) SeekBy(delta float64) {
	p := c.getPlayer()
	if p == nil {
		return
	}
	target := math.Max(0, p.Position()+delta)
	if duration := p.Duration(); duration > 0 {
		target = math.Min(target, duration)
	}
	p.SetPosition(target)
	c.publish()
}

// VolumeBy changes the volume by delta percent, kept between 0 and 100
func (c *Controller) VolumeBy(delta float64) {
	p := c.getPlayer()
	if p == nil {
		return
	}
	volume := math.Min(100, math.Max(0, p.Volume()+delta))
	p.SetVolume(volume)

	c.mu.Lock()
	c.volume = volume
	c.dirty = true
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) ToggleMute() {
	p := c.getPlayer()
	if p == nil {
		return
	}
	muted := !p.Muted()
	p.SetMuted(muted)

	c.mu.Lock()
	c.muted = muted
	c.dirty = true
	c.mu.Unlock()
	c.publish()
}

// CycleSpeed moves to the next entry of Speeds, wrapping to the slowest
func (c *Controller) CycleSpeed() {
	p := c.getPlayer()
	if p == nil {
		return
	}
	p.SetSpeed(nextSpeed(p.Speed()))
	c.publish()
}

func nextSpeed(current float64) float64 {
	for _, s := range Speeds {
		if s > current+1e-9 {
			return s
		}
	}
	return Speeds[0]
}

// Status returns the current snapshot
func (c *Controller) Status() Status {
	c.mu.Lock()
	p := c.player
	status := Status{
		State:   c.state,
		Loading: c.loading > 0,
		Volume:  c.volume,
		Muted:   c.muted,
		Message: c.message,
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		status.Stopped = true
	default:
	}

	if p != nil {
		data := p.UpdateData()
		status.Position = data.Position
		status.Duration = data.Duration
		status.Speed = data.Speed
		status.Volume = p.Volume()
		status.Muted = p.Muted()
	}
	return status
}

// Subscribe returns a channel receiving status snapshots.  Slow readers only see the latest snapshot.
func (c *Controller) Subscribe() <-chan Status {
	ch := make(chan Status, 1)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()
	return ch
}

// Run polls the plugin for position updates until ctx is cancelled or playback stops
func (c *Controller) Run(ctx context.Context) {
	interval := c.cfg.UpdateInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.publish()
		}
	}
}

// Close disposes the plugin and remembers volume changes made during playback in the config file
func (c *Controller) Close() error {
	c.mu.Lock()
	p := c.player
	c.cancelStart()
	volume, muted, dirty := c.volume, c.muted, c.dirty
	c.mu.Unlock()

	if p != nil {
		p.Dispose()
	}

	if !dirty {
		return nil
	}
	log.Debug("Saving volume settings", "volume", volume, "muted", muted)
	err := config.UpdateConfig(func(cfg *config.Config) {
		cfg.Player.Volume = int(math.Round(volume))
		cfg.Player.Muted = muted
	})
	if err != nil {
		return fmt.Errorf("unable to save volume settings: %w", err)
	}
	return nil
}

// cancelStart must be called with c.mu held
func (c *Controller) cancelStart() {
	if c.startTimer != nil {
		c.startTimer.Stop()
		c.startTimer = nil
	}
}

func (c *Controller) getPlayer() Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

func (c *Controller) setMessage(severity Severity, text string) {
	c.mu.Lock()
	c.message = Message{Severity: severity, Text: text, Time: time.Now()}
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) publish() {
	status := c.Status()

	c.mu.Lock()
	subscribers := append([]chan Status(nil), c.subscribers...)
	c.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- status:
		default:
			// Drop the stale snapshot in favour of the new one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
}
