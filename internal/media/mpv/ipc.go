package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/PizzaHomicide/vplug/internal/log"
)

// ErrNotConnected is returned when a command is sent before a connection to mpv exists
var ErrNotConnected = errors.New("not connected to mpv")

// Client speaks mpv's JSON IPC protocol over a unix socket or a Windows named pipe
type Client struct {
	socketPath string
	events     chan Event

	mu   sync.Mutex
	conn net.Conn
}

// Event is a single line received from mpv.  Property changes carry ID, Name and Data, end-file events carry
// Reason and FileError, and command replies carry RequestID and Error.
type Event struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewClient creates a new mpv IPC client
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		events:     make(chan Event, 100),
	}
}

// attach starts reading from an established connection
func (c *Client) attach(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	go c.readEvents(conn)
}

// WaitForConnection attempts to connect to mpv with retries
func (c *Client) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for mpv to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
				log.Debug("mpv socket does not exist yet", "attempt", attempt, "path", c.socketPath)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					continue
				}
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Info("Connected to mpv", "attempt", attempt)
			return nil
		}

		log.Debug("Failed to connect to mpv", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("failed to connect to mpv after %d attempts", maxAttempts)
}

// Close closes the connection to mpv.  The event channel is closed once the reader notices.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// readEvents continuously reads events from mpv until the connection closes
func (c *Client) readEvents(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		log.Trace("Raw mpv event", "data", string(line))

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			log.Error("Failed to unmarshal mpv event", "error", err)
			continue
		}

		c.events <- event
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error("Error reading from mpv socket", "error", err)
	}

	log.Debug("mpv event reader stopped")
	close(c.events)
}

// Events returns the channel for mpv events.  It is closed when the connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// SendCommand sends a command to mpv without waiting for the reply
func (c *Client) SendCommand(cmd ...any) error {
	cmdObj := map[string]any{
		"command": cmd,
	}

	data, err := json.Marshal(cmdObj)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if _, err = c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	return nil
}

// ObserveProperty asks mpv to report changes of a property under the given id
func (c *Client) ObserveProperty(id int, name string) error {
	return c.SendCommand("observe_property", id, name)
}

// SetProperty sets a property on mpv
func (c *Client) SetProperty(name string, value any) error {
	return c.SendCommand("set_property", name, value)
}
