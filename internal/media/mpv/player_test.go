package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/PizzaHomicide/vplug/internal/config"
	"github.com/PizzaHomicide/vplug/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMPV is the far end of the IPC connection.  It records every command the player sends.
type fakeMPV struct {
	conn     net.Conn
	commands chan []any
}

func newTestPlayer(t *testing.T) (*Player, *fakeMPV) {
	t.Helper()
	t.Setenv(EnvSocketPath, "")

	p := NewPlayer(config.PlayerConfig{SocketPath: "/nonexistent/vplug-test.sock"})
	clientConn, serverConn := net.Pipe()

	fake := &fakeMPV{conn: serverConn, commands: make(chan []any, 100)}
	go func() {
		scanner := bufio.NewScanner(serverConn)
		for scanner.Scan() {
			var cmd struct {
				Command []any `json:"command"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &cmd); err == nil {
				fake.commands <- cmd.Command
			}
		}
	}()

	p.client.attach(clientConn)
	t.Cleanup(func() {
		p.Close()
		_ = serverConn.Close()
	})
	return p, fake
}

func (f *fakeMPV) send(t *testing.T, line string) {
	t.Helper()
	_, err := f.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func (f *fakeMPV) next(t *testing.T) []any {
	t.Helper()
	select {
	case cmd := <-f.commands:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mpv command")
		return nil
	}
}

// record registers a listener for every lifecycle event and returns what fired
func record(p *Player) *[]media.Event {
	var fired []media.Event
	for _, e := range media.LifecycleEvents {
		p.AddEventListener(e, func(e media.Event) { fired = append(fired, e) })
	}
	return &fired
}

func propertyChange(name string, data string) Event {
	return Event{Event: "property-change", Name: name, Data: json.RawMessage(data)}
}

func TestCommands(t *testing.T) {
	p, fake := newTestPlayer(t)

	p.SetSrc("https://example.com/a.mp4")
	p.Load()
	assert.Equal(t, []any{"loadfile", "https://example.com/a.mp4", "replace"}, fake.next(t))

	p.Play()
	assert.Equal(t, []any{"set_property", "pause", false}, fake.next(t))

	p.Pause()
	assert.Equal(t, []any{"set_property", "pause", true}, fake.next(t))

	p.SetCurrentTime(12.5)
	assert.Equal(t, []any{"set_property", "time-pos", 12.5}, fake.next(t))
	assert.Equal(t, 12.5, p.CurrentTime())

	p.SetVolume(0.5)
	assert.Equal(t, []any{"set_property", "volume", 50.0}, fake.next(t))
	assert.InDelta(t, 0.5, p.Volume(), 1e-9)

	p.SetMuted(true)
	assert.Equal(t, []any{"set_property", "mute", true}, fake.next(t))
	assert.True(t, p.Muted())

	p.SetPlaybackRate(1.25)
	assert.Equal(t, []any{"set_property", "speed", 1.25}, fake.next(t))
	assert.Equal(t, 1.25, p.PlaybackRate())
}

func TestLoadWithoutSource(t *testing.T) {
	p, fake := newTestPlayer(t)

	p.Load()
	p.Play()

	// The first command mpv sees is the play, the load was dropped
	assert.Equal(t, []any{"set_property", "pause", false}, fake.next(t))
}

func TestCommandsWithoutConnection(t *testing.T) {
	p := NewPlayer(config.PlayerConfig{SocketPath: "/nonexistent/vplug-test.sock"})

	// Must not panic or block
	p.Play()
	p.SetVolume(0.3)

	assert.ErrorIs(t, p.client.SendCommand("stop"), ErrNotConnected)
	assert.InDelta(t, 0.3, p.Volume(), 1e-9)
}

func TestDefaults(t *testing.T) {
	p := NewPlayer(config.PlayerConfig{SocketPath: "/nonexistent/vplug-test.sock"})

	assert.Equal(t, 0.0, p.Duration())
	assert.Equal(t, 0.0, p.CurrentTime())
	assert.Equal(t, 1.0, p.Volume())
	assert.False(t, p.Muted())
	assert.Equal(t, 1.0, p.PlaybackRate())
	assert.Nil(t, p.Error())
}

func TestEventTranslation(t *testing.T) {
	t.Run("LoadSequence", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		fired := record(p)

		// Initial pause report is not a change and nothing is loaded yet
		p.handle(propertyChange("pause", "true"))
		p.handle(Event{Event: "start-file"})
		p.handle(Event{Event: "file-loaded"})
		p.handle(Event{Event: "playback-restart"})

		assert.Equal(t, []media.Event{
			media.EventLoadStart,
			media.EventLoadedMetadata,
			media.EventLoadedData,
			media.EventCanPlay,
			media.EventCanPlayThrough,
		}, *fired)
	})

	t.Run("PlayPause", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		p.handle(Event{Event: "file-loaded"})
		fired := record(p)

		p.handle(propertyChange("pause", "false"))
		p.handle(propertyChange("pause", "false"))
		p.handle(propertyChange("pause", "true"))

		assert.Equal(t, []media.Event{media.EventPlay, media.EventPlaying, media.EventPause}, *fired)
	})

	t.Run("Buffering", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		p.handle(Event{Event: "file-loaded"})
		p.handle(propertyChange("pause", "false"))
		fired := record(p)

		p.handle(propertyChange("paused-for-cache", "true"))
		p.handle(propertyChange("paused-for-cache", "false"))

		assert.Equal(t, []media.Event{media.EventWaiting, media.EventStalled, media.EventPlaying}, *fired)
	})

	t.Run("BufferingWhilePaused", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		p.handle(Event{Event: "file-loaded"})
		fired := record(p)

		p.handle(propertyChange("paused-for-cache", "true"))
		p.handle(propertyChange("paused-for-cache", "false"))

		assert.Equal(t, []media.Event{media.EventWaiting, media.EventStalled}, *fired)
	})

	t.Run("Seek", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		fired := record(p)

		p.handle(Event{Event: "seek"})
		p.handle(Event{Event: "playback-restart"})

		assert.Equal(t, []media.Event{media.EventSeeking, media.EventSeeked}, *fired)
	})

	t.Run("EndOfFile", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		fired := record(p)

		p.handle(Event{Event: "end-file", Reason: "eof"})

		assert.Equal(t, []media.Event{media.EventEnded}, *fired)
		assert.Nil(t, p.Error())
	})

	t.Run("Stopped", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		fired := record(p)

		p.handle(Event{Event: "end-file", Reason: "stop"})
		p.handle(Event{Event: "end-file", Reason: "quit"})

		assert.Equal(t, []media.Event{media.EventAbort, media.EventEmptied, media.EventAbort}, *fired)
	})

	t.Run("Error", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		p.SetSrc("https://example.com/missing.mp4")
		fired := record(p)

		p.handle(Event{Event: "end-file", Reason: "error", FileError: "loading failed"})

		assert.Equal(t, []media.Event{media.EventError}, *fired)
		require.NotNil(t, p.Error())
		assert.Equal(t, "2: Network Error: loading failed", p.Error().Error())

		// A new file clears the error
		p.handle(Event{Event: "start-file"})
		assert.Nil(t, p.Error())
	})

	t.Run("CacheIdle", func(t *testing.T) {
		p := NewPlayer(config.PlayerConfig{})
		fired := record(p)

		p.handle(propertyChange("demuxer-cache-idle", "true"))
		p.handle(Event{Event: "file-loaded"})
		*fired = nil
		p.handle(propertyChange("demuxer-cache-idle", "true"))
		p.handle(propertyChange("demuxer-cache-idle", "false"))

		assert.Equal(t, []media.Event{media.EventSuspend}, *fired)
	})
}

func TestPropertyMirroring(t *testing.T) {
	p := NewPlayer(config.PlayerConfig{})

	p.handle(propertyChange("duration", "321.5"))
	p.handle(propertyChange("time-pos", "12.25"))
	p.handle(propertyChange("volume", "40"))
	p.handle(propertyChange("mute", "true"))
	p.handle(propertyChange("speed", "2"))

	assert.Equal(t, 321.5, p.Duration())
	assert.Equal(t, 12.25, p.CurrentTime())
	assert.InDelta(t, 0.4, p.Volume(), 1e-9)
	assert.True(t, p.Muted())
	assert.Equal(t, 2.0, p.PlaybackRate())

	// mpv reports null when a property is unavailable
	p.handle(propertyChange("duration", "null"))
	p.handle(propertyChange("volume", "null"))
	assert.Equal(t, 0.0, p.Duration())
	assert.InDelta(t, 0.4, p.Volume(), 1e-9)
}

func TestEventLoop(t *testing.T) {
	p, fake := newTestPlayer(t)

	canPlay := make(chan struct{}, 1)
	p.AddEventListener(media.EventCanPlay, func(media.Event) { canPlay <- struct{}{} })

	require.NoError(t, p.run())
	for id := propDuration; id <= propCacheIdle; id++ {
		assert.Equal(t, []any{"observe_property", float64(id), observedProperties[id]}, fake.next(t))
	}

	fake.send(t, `{"request_id":0,"error":"success"}`)
	fake.send(t, `{"event":"property-change","id":1,"name":"duration","data":90}`)
	fake.send(t, `not json`)
	fake.send(t, `{"event":"file-loaded"}`)

	select {
	case <-canPlay:
	case <-time.After(2 * time.Second):
		t.Fatal("canplay was not dispatched")
	}
	assert.Equal(t, 90.0, p.Duration())
}

func TestRunClosesPlayerWhenObservingFails(t *testing.T) {
	p, _ := newTestPlayer(t)
	require.NoError(t, p.client.Close())

	err := p.run()

	assert.ErrorIs(t, err, ErrNotConnected)
	select {
	case <-p.Done():
	default:
		t.Fatal("player was left open")
	}
}

func TestClose(t *testing.T) {
	p, _ := newTestPlayer(t)

	p.Close()
	p.Close()

	select {
	case <-p.Done():
	default:
		t.Fatal("Done was not closed")
	}
	assert.ErrorIs(t, p.client.SendCommand("stop"), ErrNotConnected)
}
