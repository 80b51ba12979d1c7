package mpv

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/PizzaHomicide/vplug/internal/config"
	"github.com/PizzaHomicide/vplug/internal/log"
	"github.com/PizzaHomicide/vplug/internal/media"
)

// Property observation ids
const (
	propDuration = iota + 1
	propTimePos
	propVolume
	propMute
	propSpeed
	propPause
	propPausedForCache
	propCacheIdle
)

var observedProperties = map[int]string{
	propDuration:       "duration",
	propTimePos:        "time-pos",
	propVolume:         "volume",
	propMute:           "mute",
	propSpeed:          "speed",
	propPause:          "pause",
	propPausedForCache: "paused-for-cache",
	propCacheIdle:      "demuxer-cache-idle",
}

var _ media.Element = (*Player)(nil)

// Player is a media element backed by an mpv process.  Property reads are answered from the values mpv last
// reported, so they never block.  Events are dispatched on a single goroutine in the order mpv sent them.
type Player struct {
	media.EventTarget

	path       string
	args       []string
	socketPath string
	client     *Client
	cmd        *exec.Cmd
	exited     chan struct{}
	done       chan struct{}

	mu        sync.Mutex
	src       string
	duration  float64
	timePos   float64
	volume    float64 // mpv scale, 0 to 100
	muted     bool
	speed     float64
	paused    bool
	buffering bool
	seeking   bool
	loaded    bool
	err       *media.MediaError
}

// NewPlayer creates an mpv backed element from the player configuration.  Start must be called before use.
func NewPlayer(cfg config.PlayerConfig) *Player {
	path := cfg.Path
	if path == "" {
		path = "mpv"
	}
	socketPath := SocketPath(cfg.SocketPath)
	return &Player{
		path:       path,
		args:       ParseArgs(cfg.Args),
		socketPath: socketPath,
		client:     NewClient(socketPath),
		done:       make(chan struct{}),
		volume:     100,
		speed:      1,
		paused:     true,
	}
}

// Start launches mpv idle and paused, connects to its IPC socket and begins translating its events
func (p *Player) Start(ctx context.Context) error {
	args := []string{
		"--idle=yes", // Stay alive between files
		"--pause",    // Playback starts only when asked to
		"--no-terminal",
		"--force-window=yes",
		"--input-ipc-server=" + p.socketPath,
	}
	args = append(args, p.args...)

	log.Info("Starting mpv", "path", p.path, "socket", p.socketPath, "args", args)
	cmd := exec.Command(p.path, args...)
	setupPlayerProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start mpv: %w", err)
	}
	p.cmd = cmd
	p.exited = make(chan struct{})
	go func() {
		defer close(p.exited)
		if err := cmd.Wait(); err != nil {
			log.Debug("mpv exited", "error", err)
			return
		}
		log.Debug("mpv exited")
	}()

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.client.WaitForConnection(connCtx, 20, 500*time.Millisecond); err != nil {
		p.Close()
		return fmt.Errorf("failed to connect to mpv: %w", err)
	}

	return p.run()
}

// run observes the properties the element mirrors and starts the event loop on an already connected client.  On
// failure the player is closed, which also stops the mpv process.
func (p *Player) run() error {
	for id := propDuration; id <= propCacheIdle; id++ {
		if err := p.client.ObserveProperty(id, observedProperties[id]); err != nil {
			p.Close()
			return fmt.Errorf("failed to observe %s: %w", observedProperties[id], err)
		}
	}

	go p.loop()
	return nil
}

func (p *Player) loop() {
	for event := range p.client.Events() {
		p.handle(event)
	}
	log.Debug("mpv event loop finished")
}

// Close stops mpv and releases the IPC socket
func (p *Player) Close() {
	select {
	case <-p.done:
		return
	default:
		close(p.done)
	}

	if err := p.client.Close(); err != nil {
		log.Warn("Failed to close mpv connection", "error", err)
	}

	if p.cmd != nil && p.cmd.Process != nil {
		log.Info("Stopping mpv")
		if err := p.cmd.Process.Kill(); err != nil {
			log.Debug("Failed to kill mpv", "error", err)
		}
		select {
		case <-p.exited:
		case <-time.After(2 * time.Second):
			log.Warn("mpv did not exit in time")
		}
	}

	removeSocket(p.socketPath)
}

// Done is closed once Close has been called
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Exited is closed once the mpv process has exited, e.g. because its window was closed
func (p *Player) Exited() <-chan struct{} {
	return p.exited
}

func (p *Player) Src() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

func (p *Player) SetSrc(src string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src = src
}

// Load replaces whatever mpv is playing with the current source
func (p *Player) Load() {
	src := p.Src()
	if src == "" {
		log.Warn("Load called without a source")
		return
	}
	p.command("loadfile", src, "replace")
}

func (p *Player) Play() {
	p.setProperty("pause", false)
}

func (p *Player) Pause() {
	p.setProperty("pause", true)
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timePos
}

func (p *Player) SetCurrentTime(seconds float64) {
	p.mu.Lock()
	p.timePos = seconds
	p.mu.Unlock()
	p.setProperty("time-pos", seconds)
}

// Volume returns the volume between 0 and 1
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume / 100
}

// SetVolume takes a volume between 0 and 1 and converts it to mpv's percentage
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	p.volume = volume * 100
	v := p.volume
	p.mu.Unlock()
	p.setProperty("volume", v)
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
	p.setProperty("mute", muted)
}

func (p *Player) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

func (p *Player) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	p.speed = rate
	p.mu.Unlock()
	p.setProperty("speed", rate)
}

// Error returns the error of the last failed load, reset whenever a new file starts
func (p *Player) Error() *media.MediaError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Player) setProperty(name string, value any) {
	if err := p.client.SetProperty(name, value); err != nil {
		log.Warn("Failed to set mpv property", "name", name, "error", err)
	}
}

func (p *Player) command(cmd ...any) {
	if err := p.client.SendCommand(cmd...); err != nil {
		log.Warn("Failed to send mpv command", "command", cmd, "error", err)
	}
}

// handle translates one mpv event into media element state and events
func (p *Player) handle(event Event) {
	switch event.Event {
	case "":
		if event.Error != "" && event.Error != "success" {
			log.Warn("mpv command failed", "request_id", event.RequestID, "error", event.Error)
		}

	case "property-change":
		p.handleProperty(event)

	case "start-file":
		p.mu.Lock()
		p.loaded = false
		p.err = nil
		p.duration = 0
		p.timePos = 0
		p.mu.Unlock()
		p.dispatch(media.EventLoadStart)

	case "file-loaded":
		p.mu.Lock()
		p.loaded = true
		p.mu.Unlock()
		p.dispatch(media.EventLoadedMetadata, media.EventLoadedData, media.EventCanPlay, media.EventCanPlayThrough)

	case "seek":
		p.mu.Lock()
		p.seeking = true
		p.mu.Unlock()
		p.dispatch(media.EventSeeking)

	case "playback-restart":
		p.mu.Lock()
		wasSeeking := p.seeking
		p.seeking = false
		p.mu.Unlock()
		if wasSeeking {
			p.dispatch(media.EventSeeked)
		}

	case "end-file":
		p.handleEndFile(event)

	default:
		log.Trace("Ignoring mpv event", "event", event.Event)
	}
}

func (p *Player) handleEndFile(event Event) {
	p.mu.Lock()
	p.loaded = false
	p.buffering = false
	src := p.src
	p.mu.Unlock()

	log.Debug("mpv file ended", "reason", event.Reason, "file_error", event.FileError)

	switch event.Reason {
	case "eof":
		p.dispatch(media.EventEnded)
	case "error":
		mediaErr := classifyFileError(event.FileError, src)
		p.mu.Lock()
		p.err = mediaErr
		p.mu.Unlock()
		p.dispatch(media.EventError)
	case "stop", "redirect":
		p.dispatch(media.EventAbort, media.EventEmptied)
	case "quit":
		p.dispatch(media.EventAbort)
	}
}

func (p *Player) handleProperty(event Event) {
	switch event.Name {
	case "duration":
		value := decodeFloat(event.Data, 0)
		p.mu.Lock()
		p.duration = value
		p.mu.Unlock()

	case "time-pos":
		value := decodeFloat(event.Data, 0)
		p.mu.Lock()
		p.timePos = value
		p.mu.Unlock()

	case "volume":
		p.mu.Lock()
		p.volume = decodeFloat(event.Data, p.volume)
		p.mu.Unlock()

	case "mute":
		p.mu.Lock()
		p.muted = decodeBool(event.Data, p.muted)
		p.mu.Unlock()

	case "speed":
		p.mu.Lock()
		p.speed = decodeFloat(event.Data, p.speed)
		p.mu.Unlock()

	case "pause":
		p.mu.Lock()
		paused := decodeBool(event.Data, p.paused)
		changed := paused != p.paused
		p.paused = paused
		loaded := p.loaded
		buffering := p.buffering
		p.mu.Unlock()

		if !changed || !loaded {
			return
		}
		if paused {
			p.dispatch(media.EventPause)
		} else if buffering {
			p.dispatch(media.EventPlay)
		} else {
			p.dispatch(media.EventPlay, media.EventPlaying)
		}

	case "paused-for-cache":
		p.mu.Lock()
		buffering := decodeBool(event.Data, false)
		changed := buffering != p.buffering
		p.buffering = buffering
		paused := p.paused
		p.mu.Unlock()

		if !changed {
			return
		}
		if buffering {
			p.dispatch(media.EventWaiting, media.EventStalled)
		} else if !paused {
			p.dispatch(media.EventPlaying)
		}

	case "demuxer-cache-idle":
		p.mu.Lock()
		loaded := p.loaded
		p.mu.Unlock()
		if loaded && decodeBool(event.Data, false) {
			p.dispatch(media.EventSuspend)
		}
	}
}

func (p *Player) dispatch(events ...media.Event) {
	for _, e := range events {
		log.Trace("Dispatching media event", "event", e)
		p.Dispatch(e)
	}
}

// decodeFloat returns fallback when mpv reports null or a non-numeric value
func decodeFloat(data json.RawMessage, fallback float64) float64 {
	var value *float64
	if err := json.Unmarshal(data, &value); err != nil || value == nil {
		return fallback
	}
	return *value
}

func decodeBool(data json.RawMessage, fallback bool) bool {
	var value *bool
	if err := json.Unmarshal(data, &value); err != nil || value == nil {
		return fallback
	}
	return *value
}
