//go:build !windows

package mpv

import (
	"context"
	"fmt"
	"net"

	"github.com/PizzaHomicide/vplug/internal/log"
)

// Connect establishes a connection with mpv's unix domain socket
func (c *Client) Connect(ctx context.Context) error {
	log.Debug("Connecting to unix socket", "path", c.socketPath)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv socket: %w", err)
	}

	c.attach(conn)
	return nil
}
