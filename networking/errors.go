package networking

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrorClass tells a send loop what to do with a failed transport call.
type ErrorClass int

const (
	ClassNone      ErrorClass = iota // No error
	ClassTransient                   // Interrupted call, rerun in place
	ClassExhausted                   // Kernel cannot pin more pages for zero-copy
	ClassClosed                      // Peer went away, end the loop gracefully
	ClassFatal                       // Anything else
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassExhausted:
		return "exhausted"
	case ClassClosed:
		return "closed"
	default:
		return "fatal"
	}
}

// Classify maps a transport error onto the send loop policy
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, syscall.EINTR):
		return ClassTransient
	case errors.Is(err, syscall.ENOBUFS):
		return ClassExhausted
	case errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return ClassClosed
	default:
		return ClassFatal
	}
}

// RetryPolicy reports whether a failed blocking call may be rerun in place.
type RetryPolicy func(error) bool

// RetryInterrupted reruns calls that a signal interrupted before any progress.
func RetryInterrupted(err error) bool {
	return Classify(err) == ClassTransient
}

// Retry runs op until it makes progress, succeeds or fails with an error the
// policy treats as terminal. Progress with a transient error counts as success.
func Retry(policy RetryPolicy, op func() (int, error)) (int, error) {
	for {
		n, err := op()
		if err != nil && policy(err) {
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}
