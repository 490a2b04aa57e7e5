package artnet

import (
	"fmt"
	"net"
)

// Controller is a UDP sender bound to one Art-Net node.
type Controller struct {
	conn net.Conn
}

// NewController dials the controller at the given host. A port of zero
// uses the standard Art-Net port.
func NewController(host string, port int) (*Controller, error) {
	if port == 0 {
		port = Port
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial controller at %s: %w", addr, err)
	}
	return &Controller{conn: conn}, nil
}

// Send transmits one packet.
func (c *Controller) Send(b []byte) error {
	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}
	return nil
}

// Close releases the socket.
func (c *Controller) Close() error {
	return c.conn.Close()
}
