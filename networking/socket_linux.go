//go:build linux

package networking

import (
	"net"
	"os"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Control buffer large enough for one extended error plus the offender address.
const errQueueControlSize = 128

type linuxSocket struct {
	conn     *net.TCPConn
	raw      syscall.RawConn
	zerocopy bool
}

func newSocketInternal(conn *net.TCPConn) (Socket, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}
	return &linuxSocket{conn: conn, raw: raw}, nil
}

// Send issues one write(2) from a contiguous buffer.
func (s *linuxSocket) Send(b []byte) (int, error) {
	return s.write("write", func(fd int) (int, error) {
		return unix.Write(fd, b)
	})
}

// Sendv issues one sendmsg(2) over the descriptor list.
func (s *linuxSocket) Sendv(bufs [][]byte) (int, error) {
	return s.write("sendmsg", func(fd int) (int, error) {
		return unix.SendmsgBuffers(fd, bufs, nil, nil, unix.MSG_NOSIGNAL)
	})
}

// SendZeroCopy issues one sendmsg(2) with MSG_ZEROCOPY.
func (s *linuxSocket) SendZeroCopy(bufs [][]byte) (int, error) {
	if !s.zerocopy {
		return 0, ErrZeroCopyUnsupported
	}
	return s.write("sendmsg", func(fd int) (int, error) {
		return unix.SendmsgBuffers(fd, bufs, nil, nil, unix.MSG_NOSIGNAL|unix.MSG_ZEROCOPY)
	})
}

// EnableZeroCopy sets SO_ZEROCOPY. Kernels older than 4.14 reject it.
func (s *linuxSocket) EnableZeroCopy() error {
	var opErr error
	err := s.raw.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ZEROCOPY, 1)
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return os.NewSyscallError("setsockopt SO_ZEROCOPY", opErr)
	}
	s.zerocopy = true
	return nil
}

// ReadCompletions reads the error queue with MSG_DONTWAIT until it is empty.
func (s *linuxSocket) ReadCompletions(wait time.Duration) ([]Completion, error) {
	var completions []Completion
	var opErr error
	err := s.raw.Control(func(fd uintptr) {
		if wait > 0 {
			// Error queue readiness is always reported as POLLERR.
			timeout := int(wait / time.Millisecond)
			if timeout == 0 {
				timeout = 1
			}
			fds := []unix.PollFd{{Fd: int32(fd)}}
			if _, perr := unix.Poll(fds, timeout); perr != nil && perr != unix.EINTR {
				opErr = os.NewSyscallError("poll", perr)
				return
			}
		}
		completions, opErr = readErrQueue(int(fd), completions)
	})
	if err != nil {
		return completions, err
	}
	return completions, opErr
}

func (s *linuxSocket) Close() error {
	return s.conn.Close()
}

// write runs a send inside the runtime poller so EAGAIN parks instead of spinning.
func (s *linuxSocket) write(name string, op func(fd int) (int, error)) (int, error) {
	var n int
	var opErr error
	err := s.raw.Write(func(fd uintptr) bool {
		n, opErr = op(int(fd))
		return opErr != unix.EAGAIN
	})
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, err
	}
	if opErr != nil {
		return n, os.NewSyscallError(name, opErr)
	}
	return n, nil
}

// readErrQueue appends every zero-copy notification currently queued on fd.
func readErrQueue(fd int, completions []Completion) ([]Completion, error) {
	oob := make([]byte, errQueueControlSize)
	for {
		_, oobn, _, _, err := unix.Recvmsg(fd, nil, oob, unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT)
		if err != nil {
			switch err {
			case unix.EAGAIN:
				return completions, nil
			case unix.EINTR:
				continue
			default:
				return completions, os.NewSyscallError("recvmsg MSG_ERRQUEUE", err)
			}
		}
		msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return completions, err
		}
		for _, msg := range msgs {
			if c, ok := parseCompletion(msg); ok {
				completions = append(completions, c)
			}
		}
	}
}

// parseCompletion extracts a zero-copy range from an IP_RECVERR/IPV6_RECVERR message.
func parseCompletion(msg unix.SocketControlMessage) (Completion, bool) {
	v4 := msg.Header.Level == unix.SOL_IP && msg.Header.Type == unix.IP_RECVERR
	v6 := msg.Header.Level == unix.SOL_IPV6 && msg.Header.Type == unix.IPV6_RECVERR
	if !v4 && !v6 {
		return Completion{}, false
	}
	if len(msg.Data) < int(unsafe.Sizeof(unix.SockExtendedErr{})) {
		return Completion{}, false
	}
	serr := (*unix.SockExtendedErr)(unsafe.Pointer(&msg.Data[0]))
	if serr.Origin != unix.SO_EE_ORIGIN_ZEROCOPY {
		return Completion{}, false
	}
	return Completion{
		Lo:     serr.Info,
		Hi:     serr.Data,
		Copied: serr.Code&unix.SO_EE_CODE_ZEROCOPY_COPIED != 0,
	}, true
}
