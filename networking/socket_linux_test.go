//go:build linux

package networking

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// loopbackPair returns a connected client socket and the accepted server side.
func loopbackPair(t *testing.T) (Socket, net.Conn) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	socket, err := NewSocket(conn.(*net.TCPConn))
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	peer, ok := <-accepted
	if !ok {
		t.Fatalf("accept failed")
	}
	t.Cleanup(func() {
		socket.Close()
		peer.Close()
	})
	return socket, peer
}

// TestLinuxSocketSendPaths pushes the same bytes through write and sendmsg.
func TestLinuxSocketSendPaths(t *testing.T) {
	socket, peer := loopbackPair(t)

	n, err := socket.Send([]byte("AAB"))
	if err != nil || n != 3 {
		t.Fatalf("Expected 3 bytes from Send, got %d, %v", n, err)
	}
	n, err = socket.Sendv([][]byte{[]byte("BC"), []byte("CD")})
	if err != nil || n != 4 {
		t.Fatalf("Expected 4 bytes from Sendv, got %d, %v", n, err)
	}

	got := make([]byte, 7)
	if _, err := io.ReadFull(peer, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "AABBCCD" {
		t.Errorf("Expected AABBCCD, got %q", got)
	}
}

// TestLinuxSocketZeroCopy sends with MSG_ZEROCOPY and waits for the kernel
// to release every send.
func TestLinuxSocketZeroCopy(t *testing.T) {
	socket, peer := loopbackPair(t)

	if _, err := socket.SendZeroCopy([][]byte{[]byte("x")}); !errors.Is(err, ErrZeroCopyUnsupported) {
		t.Errorf("Expected ErrZeroCopyUnsupported before enabling, got %v", err)
	}
	if err := socket.EnableZeroCopy(); err != nil {
		t.Skipf("SO_ZEROCOPY rejected by kernel: %v", err)
	}

	payload := make([]byte, 64*1024)
	const sends = 4
	for i := 0; i < sends; i++ {
		if _, err := socket.SendZeroCopy([][]byte{payload}); err != nil {
			t.Fatalf("SendZeroCopy: %v", err)
		}
	}
	go io.Copy(io.Discard, peer)

	var released uint32
	deadline := time.Now().Add(5 * time.Second)
	for released < sends && time.Now().Before(deadline) {
		completions, err := socket.ReadCompletions(50 * time.Millisecond)
		if err != nil {
			t.Fatalf("ReadCompletions: %v", err)
		}
		for _, c := range completions {
			released += c.Count()
		}
	}
	if released < sends {
		t.Errorf("Expected %d released sends, got %d", sends, released)
	}
}

// TestParseCompletion decodes a synthetic IP_RECVERR control message.
func TestParseCompletion(t *testing.T) {
	serr := unix.SockExtendedErr{
		Origin: unix.SO_EE_ORIGIN_ZEROCOPY,
		Code:   unix.SO_EE_CODE_ZEROCOPY_COPIED,
		Info:   3,
		Data:   7,
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&serr)), unsafe.Sizeof(serr))
	msg := unix.SocketControlMessage{Data: append([]byte(nil), data...)}
	msg.Header.Level = unix.SOL_IP
	msg.Header.Type = unix.IP_RECVERR

	c, ok := parseCompletion(msg)
	if !ok {
		t.Fatalf("Expected completion to parse")
	}
	if c.Lo != 3 || c.Hi != 7 || !c.Copied || c.Count() != 5 {
		t.Errorf("Unexpected completion %+v", c)
	}

	serr.Origin = unix.SO_EE_ORIGIN_LOCAL
	data = unsafe.Slice((*byte)(unsafe.Pointer(&serr)), unsafe.Sizeof(serr))
	msg.Data = append([]byte(nil), data...)
	if _, ok := parseCompletion(msg); ok {
		t.Errorf("Expected non zero-copy origin to be ignored")
	}
}
