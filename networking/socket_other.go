//go:build !linux

package networking

import (
	"net"
	"time"
)

// portableSocket falls back to the net package. Zero-copy is never available.
type portableSocket struct {
	conn *net.TCPConn
}

func newSocketInternal(conn *net.TCPConn) (Socket, error) {
	return &portableSocket{conn: conn}, nil
}

func (s *portableSocket) Send(b []byte) (int, error) {
	return s.conn.Write(b)
}

func (s *portableSocket) Sendv(bufs [][]byte) (int, error) {
	// WriteTo consumes the slice it is called on.
	vec := make(net.Buffers, len(bufs))
	copy(vec, bufs)
	n, err := vec.WriteTo(s.conn)
	return int(n), err
}

func (s *portableSocket) SendZeroCopy(bufs [][]byte) (int, error) {
	return 0, ErrZeroCopyUnsupported
}

func (s *portableSocket) EnableZeroCopy() error {
	return ErrZeroCopyUnsupported
}

func (s *portableSocket) ReadCompletions(wait time.Duration) ([]Completion, error) {
	return nil, nil
}

func (s *portableSocket) Close() error {
	return s.conn.Close()
}
