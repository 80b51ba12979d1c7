//go:build windows

package mpv

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/vplug/internal/log"
	"gopkg.in/natefinch/npipe.v2"
)

// Connect establishes a connection with mpv's named pipe
func (c *Client) Connect(ctx context.Context) error {
	log.Debug("Connecting to Windows named pipe", "path", c.socketPath)

	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return ctx.Err()
	}

	conn, err := npipe.DialTimeout(c.socketPath, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv pipe: %w", err)
	}

	c.attach(conn)
	return nil
}
