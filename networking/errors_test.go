package networking

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
)

// TestClassify maps transport failures onto send loop policy, through wrapping.
func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorClass
	}{
		{nil, ClassNone},
		{os.NewSyscallError("write", syscall.EINTR), ClassTransient},
		{os.NewSyscallError("sendmsg", syscall.ENOBUFS), ClassExhausted},
		{&net.OpError{Op: "write", Err: os.NewSyscallError("write", syscall.EPIPE)}, ClassClosed},
		{fmt.Errorf("send: %w", syscall.ECONNRESET), ClassClosed},
		{net.ErrClosed, ClassClosed},
		{io.EOF, ClassClosed},
		{syscall.EINVAL, ClassFatal},
		{errors.New("boom"), ClassFatal},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Errorf("Classify(%v): expected %s, got %s", c.err, c.want, got)
		}
	}
}

// TestRetryInterrupted reruns interrupted calls until they make progress.
func TestRetryInterrupted(t *testing.T) {
	calls := 0
	n, err := Retry(RetryInterrupted, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, os.NewSyscallError("write", syscall.EINTR)
		}
		return 42, nil
	})
	if err != nil || n != 42 {
		t.Errorf("Expected 42 bytes and no error, got %d, %v", n, err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

// TestRetryTerminal returns terminal errors on the first occurrence.
func TestRetryTerminal(t *testing.T) {
	calls := 0
	_, err := Retry(RetryInterrupted, func() (int, error) {
		calls++
		return 0, syscall.ECONNRESET
	})
	if !errors.Is(err, syscall.ECONNRESET) {
		t.Errorf("Expected ECONNRESET, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}

// TestRetryProgressWithInterrupt treats partial progress as success.
func TestRetryProgressWithInterrupt(t *testing.T) {
	n, err := Retry(RetryInterrupted, func() (int, error) {
		return 5, syscall.EINTR
	})
	if n != 5 || err != nil {
		t.Errorf("Expected 5 bytes and no error, got %d, %v", n, err)
	}
}
