package comms

import (
	"context"
	"errors"
	"fmt"
	"go_copy_bench/networking"
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

// Options controls how a sender connection is established
type Options struct {
	DSCP    int           // TOS/DSCP for QoS, 0 leaves the default
	MPTCP   bool          // Multipath TCP
	NoDelay bool          // TCP_NODELAY
	Timeout time.Duration // Dial timeout, 0 waits for the OS
}

// Connection is one sender's transport, owned by a single worker
type Connection struct {
	conn   *net.TCPConn
	socket networking.Socket
}

// Connect opens TCP connection to target host address and sends the handshake
func Connect(ctx context.Context, address string, config *networking.Config, opts Options) (*Connection, error) {
	_, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}
	dial := &net.Dialer{Timeout: opts.Timeout}
	// Set MPTCP.
	dial.SetMultipathTCP(opts.MPTCP)
	// Connect to host.
	conn, err := dial.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("unexpected connection type %T", conn)
	}
	tcp.SetNoDelay(opts.NoDelay)
	if opts.DSCP > 0 {
		// Set DSCP. NOTE: On Windows by default it will not apply the value.
		ipv4.NewConn(tcp).SetTOS(opts.DSCP)
	}

	socket, err := networking.NewSocket(tcp)
	if err != nil {
		tcp.Close()
		return nil, err
	}
	c := &Connection{conn: tcp, socket: socket}

	if err := c.sendConfig(config); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// sendConfig transmits the handshake as a single atomic unit.
func (c *Connection) sendConfig(config *networking.Config) error {
	out := networking.ConfigToBytes(config)
	sent, err := networking.Retry(networking.RetryInterrupted, func() (int, error) {
		return c.socket.Send(out)
	})
	if err != nil {
		return fmt.Errorf("send config: %w", err)
	}
	if sent != len(out) {
		return fmt.Errorf("send config: %w (%d of %d sent)", networking.ErrShortHandshake, sent, len(out))
	}
	return nil
}

// Socket returns send path access to the connection
func (c *Connection) Socket() networking.Socket {
	return c.socket
}

// RemoteAddr returns address of the receiver
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes socket
func (c *Connection) Close() error {
	err := c.socket.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
