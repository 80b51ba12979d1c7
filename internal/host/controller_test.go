package host

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/vplug/internal/config"
	"github.com/PizzaHomicide/vplug/internal/media"
	"github.com/PizzaHomicide/vplug/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer stands in for the plugin and records transport calls
type fakePlayer struct {
	mu       sync.Mutex
	calls    []string
	position float64
	duration float64
	volume   float64
	muted    bool
	speed    float64
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{volume: 100, speed: 1}
}

func (p *fakePlayer) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePlayer) Init() { p.record("init") }
func (p *fakePlayer) Ready() { p.record("ready") }
func (p *fakePlayer) Dispose() { p.record("dispose") }
func (p *fakePlayer) Play() { p.record("play") }
func (p *fakePlayer) Pause() { p.record("pause") }
func (p *fakePlayer) Stop() { p.record("stop") }

func (p *fakePlayer) Duration() float64 { return p.duration }
func (p *fakePlayer) Position() float64 { return p.position }
func (p *fakePlayer) SetPosition(position float64) {
	p.position = position
	p.record("seek")
}
func (p *fakePlayer) Volume() float64 { return p.volume }
func (p *fakePlayer) SetVolume(volume float64) { p.volume = volume }
func (p *fakePlayer) Muted() bool { return p.muted }
func (p *fakePlayer) SetMuted(muted bool) { p.muted = muted }
func (p *fakePlayer) Speed() float64 { return p.speed }
func (p *fakePlayer) SetSpeed(speed float64) { p.speed = speed }
func (p *fakePlayer) UpdateData() plugin.UpdateData {
	return plugin.UpdateData{Position: p.position, Duration: p.duration, Speed: p.speed}
}

func newTestController(t *testing.T, cfg config.PlayerConfig) (*Controller, *fakePlayer) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	c := NewController(cfg)
	p := newFakePlayer()
	c.SetupPlayer(p)
	return c, p
}

func TestInit(t *testing.T) {
	c, p := newTestController(t, config.PlayerConfig{Volume: 100})

	require.NoError(t, c.Init())
	assert.Equal(t, []string{"init", "ready"}, p.Calls())

	assert.Error(t, NewController(config.PlayerConfig{}).Init())
}

func TestLoading(t *testing.T) {
	c, _ := newTestController(t, config.PlayerConfig{})

	c.StartLoading()
	c.StartLoading()
	c.StopLoading()
	assert.True(t, c.Status().Loading)

	c.StopLoading()
	c.StopLoading()
	assert.False(t, c.Status().Loading)

	c.StartLoading()
	assert.True(t, c.Status().Loading)
}

func TestApplyVolume(t *testing.T) {
	c, p := newTestController(t, config.PlayerConfig{Volume: 35, Muted: true})

	c.ApplyVolume()

	assert.Equal(t, 35.0, p.volume)
	assert.True(t, p.muted)
}

func TestStartPlayback(t *testing.T) {
	t.Run("Accelerated", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{StartDelay: time.Hour})

		c.StartPlayback(true)

		assert.Equal(t, []string{"play"}, p.Calls())
		assert.Equal(t, plugin.StatePreparing, c.Status().State)
	})

	t.Run("Delayed", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{StartDelay: 20 * time.Millisecond})

		c.StartPlayback(false)
		assert.Empty(t, p.Calls())

		assert.Eventually(t, func() bool {
			return len(p.Calls()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"play"}, p.Calls())
	})

	t.Run("DelayedStartIsCancelledByStop", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{StartDelay: 30 * time.Millisecond})

		c.StartPlayback(false)
		c.StopPlayback()
		time.Sleep(60 * time.Millisecond)

		assert.Equal(t, []string{"stop"}, p.Calls())
	})
}

func TestStopPlayback(t *testing.T) {
	c, p := newTestController(t, config.PlayerConfig{})
	c.SetState(plugin.StatePlaying)
	c.StartLoading()

	c.StopPlayback()
	c.StopPlayback()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done was not closed")
	}
	status := c.Status()
	assert.Equal(t, plugin.StateStopped, status.State)
	assert.False(t, status.Loading)
	assert.True(t, status.Stopped)
	assert.Equal(t, []string{"stop", "stop"}, p.Calls())
}

func TestTransport(t *testing.T) {
	t.Run("TogglePause", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{})

		c.TogglePause()
		c.SetState(plugin.StatePlaying)
		c.TogglePause()

		assert.Equal(t, []string{"play", "pause"}, p.Calls())
	})

	t.Run("SeekIsClamped", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{})
		p.duration = 100
		p.position = 5

		c.SeekBy(-10)
		assert.Equal(t, 0.0, p.position)

		c.SeekBy(150)
		assert.Equal(t, 100.0, p.position)

		p.duration = 0
		c.SeekBy(50)
		assert.Equal(t, 150.0, p.position)
	})

	t.Run("VolumeIsClamped", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{})
		p.volume = 97

		c.VolumeBy(5)
		assert.Equal(t, 100.0, p.volume)

		p.volume = 3
		c.VolumeBy(-5)
		assert.Equal(t, 0.0, p.volume)
		assert.Equal(t, 0.0, c.Status().Volume)
	})

	t.Run("ToggleMute", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{})

		c.ToggleMute()
		assert.True(t, p.muted)
		c.ToggleMute()
		assert.False(t, p.muted)
	})

	t.Run("CycleSpeed", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{})

		var seen []float64
		for range Speeds {
			c.CycleSpeed()
			seen = append(seen, p.speed)
		}

		assert.Equal(t, []float64{1.25, 1.5, 2, 0.5, 0.75, 1}, seen)
	})

	t.Run("WithoutPlayer", func(t *testing.T) {
		c := NewController(config.PlayerConfig{})

		// None of these may panic
		c.TogglePause()
		c.SeekBy(10)
		c.VolumeBy(10)
		c.ToggleMute()
		c.CycleSpeed()
		c.ApplyVolume()
		c.StartPlayback(true)
		c.StopPlayback()
		assert.NoError(t, c.Close())
	})
}

func TestMessages(t *testing.T) {
	c, _ := newTestController(t, config.PlayerConfig{})

	c.Debug("Video event: play")
	assert.Equal(t, SeverityNone, c.Status().Message.Severity)

	c.Warn("Video URL is missing or empty")
	assert.Equal(t, SeverityWarn, c.Status().Message.Severity)

	c.Error("Video error: 2: Network Error")
	msg := c.Status().Message
	assert.Equal(t, SeverityError, msg.Severity)
	assert.Equal(t, "Video error: 2: Network Error", msg.Text)
	assert.False(t, msg.Time.IsZero())
}

func TestSubscribeKeepsLatest(t *testing.T) {
	c, _ := newTestController(t, config.PlayerConfig{})
	updates := c.Subscribe()

	c.SetState(plugin.StatePlaying)
	c.SetState(plugin.StatePaused)

	status := <-updates
	assert.Equal(t, plugin.StatePaused, status.State)

	select {
	case <-updates:
		t.Fatal("expected only the latest snapshot")
	default:
	}
}

func TestRunPublishesUntilStopped(t *testing.T) {
	c, p := newTestController(t, config.PlayerConfig{UpdateInterval: 5 * time.Millisecond})
	updates := c.Subscribe()
	p.position = 12

	finished := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(finished)
	}()

	select {
	case status := <-updates:
		assert.Equal(t, 12.0, status.Position)
	case <-time.After(time.Second):
		t.Fatal("no status published")
	}

	c.StopPlayback()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after stop")
	}
}

func TestClosePersistsVolume(t *testing.T) {
	t.Run("Changed", func(t *testing.T) {
		c, p := newTestController(t, config.PlayerConfig{Volume: 100})
		_, err := config.Load()
		require.NoError(t, err)

		c.VolumeBy(-25.4)
		c.ToggleMute()
		require.NoError(t, c.Close())

		assert.Equal(t, []string{"dispose"}, p.Calls())
		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, 75, cfg.Player.Volume)
		assert.True(t, cfg.Player.Muted)
	})

	t.Run("UnchangedDoesNotWrite", func(t *testing.T) {
		c, _ := newTestController(t, config.PlayerConfig{Volume: 100})

		require.NoError(t, c.Close())

		path, err := config.Path()
		require.NoError(t, err)
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

// fakeElement lets the controller drive a real adapter
type fakeElement struct {
	media.EventTarget
	mu     sync.Mutex
	calls  []string
	volume float64
	muted  bool
}

func (e *fakeElement) record(call string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
}

func (e *fakeElement) Src() string { return "" }
func (e *fakeElement) SetSrc(string) {}
func (e *fakeElement) Load() { e.record("load") }
func (e *fakeElement) Play() { e.record("play") }
func (e *fakeElement) Pause() { e.record("pause") }
func (e *fakeElement) Duration() float64 { return 60 }
func (e *fakeElement) CurrentTime() float64 { return 0 }
func (e *fakeElement) SetCurrentTime(float64) {}
func (e *fakeElement) Volume() float64 { return e.volume }
func (e *fakeElement) SetVolume(volume float64) { e.volume = volume }
func (e *fakeElement) Muted() bool { return e.muted }
func (e *fakeElement) SetMuted(muted bool) { e.muted = muted }
func (e *fakeElement) PlaybackRate() float64 { return 1 }
func (e *fakeElement) SetPlaybackRate(float64) {}
func (e *fakeElement) Error() *media.MediaError { return nil }

func TestControllerWithAdapter(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	el := &fakeElement{volume: 1}
	c := NewController(config.PlayerConfig{Volume: 40, StartDelay: time.Hour})
	adapter := plugin.NewAdapter(func() media.Element { return el }, c, plugin.Values{plugin.ParamURL: "a.mp4"}, true)
	c.SetupPlayer(adapter)

	require.NoError(t, c.Init())
	assert.True(t, c.Status().Loading)

	el.Dispatch(media.EventCanPlay)
	el.Dispatch(media.EventPlaying)

	status := c.Status()
	assert.False(t, status.Loading)
	assert.Equal(t, plugin.StatePlaying, status.State)
	assert.InDelta(t, 40.0, status.Volume, 1e-9)
	assert.Equal(t, 60.0, status.Duration)

	el.Dispatch(media.EventEnded)
	select {
	case <-c.Done():
	default:
		t.Fatal("ended did not stop playback")
	}
	assert.Equal(t, []string{"load", "play", "pause"}, el.calls)

	require.NoError(t, c.Close())
	assert.Equal(t, 0, el.ListenerCount())
}
