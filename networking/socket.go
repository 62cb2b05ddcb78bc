package networking

import (
	"errors"
	"net"
	"time"
)

// ErrZeroCopyUnsupported is returned when the platform or socket cannot pin user pages
var ErrZeroCopyUnsupported = errors.New("zero-copy transmission not supported")

// Completion is one zero-copy notification read from the socket error queue.
// The kernel acknowledges the inclusive range of send ids [Lo, Hi].
type Completion struct {
	Lo     uint32
	Hi     uint32
	Copied bool // Kernel fell back to copying instead of pinning
}

// Count returns number of sends covered by the notification
func (c Completion) Count() uint32 {
	return c.Hi - c.Lo + 1
}

// Socket is the transmit surface strategies drive. Each send method issues a
// single call into the transport and may accept fewer bytes than offered.
type Socket interface {
	// Send transmits a contiguous buffer.
	Send(b []byte) (int, error)
	// Sendv gathers from non-contiguous buffers in one call.
	Sendv(bufs [][]byte) (int, error)
	// SendZeroCopy gathers like Sendv but asks the kernel to pin the pages
	// instead of copying. Buffers stay owned by the kernel until completed.
	SendZeroCopy(bufs [][]byte) (int, error)
	// EnableZeroCopy turns on the socket level zero-copy capability.
	EnableZeroCopy() error
	// ReadCompletions drains queued zero-copy notifications without blocking
	// on the data path. A positive wait bounds how long to wait for the first one.
	ReadCompletions(wait time.Duration) ([]Completion, error)
	Close() error
}

// NewSocket wraps connected TCP connection for direct send path access
func NewSocket(conn *net.TCPConn) (Socket, error) {
	return newSocketInternal(conn)
}
