package strategy

import (
	"context"
	"go_copy_bench/networking"
	"os"
	"syscall"
	"time"
)

var background = context.Background()

// fakeSocket records accepted bytes and plays back scripted failures.
type fakeSocket struct {
	wire       []byte
	maxPerCall int     // 0 accepts everything offered
	errs       []error // returned in order before any bytes are accepted, nil entries pass
	enableErr  error

	zerocopy     bool
	issued       uint32
	completed    uint32
	autoComplete bool // every read releases all issued sends

	sends   int
	vsends  int
	zcsends int
	reads   int
	closed  bool
}

func (f *fakeSocket) nextErr() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeSocket) accept(bufs [][]byte) int {
	budget := f.maxPerCall
	n := 0
	for _, b := range bufs {
		if budget > 0 && n+len(b) > budget {
			b = b[:budget-n]
		}
		f.wire = append(f.wire, b...)
		n += len(b)
		if budget > 0 && n == budget {
			break
		}
	}
	return n
}

func (f *fakeSocket) Send(b []byte) (int, error) {
	f.sends++
	if err := f.nextErr(); err != nil {
		return 0, err
	}
	return f.accept([][]byte{b}), nil
}

func (f *fakeSocket) Sendv(bufs [][]byte) (int, error) {
	f.vsends++
	if err := f.nextErr(); err != nil {
		return 0, err
	}
	return f.accept(bufs), nil
}

func (f *fakeSocket) SendZeroCopy(bufs [][]byte) (int, error) {
	if !f.zerocopy {
		return 0, networking.ErrZeroCopyUnsupported
	}
	f.zcsends++
	if err := f.nextErr(); err != nil {
		return 0, err
	}
	n := f.accept(bufs)
	f.issued++
	return n, nil
}

func (f *fakeSocket) EnableZeroCopy() error {
	if f.enableErr != nil {
		return f.enableErr
	}
	f.zerocopy = true
	return nil
}

func (f *fakeSocket) ReadCompletions(wait time.Duration) ([]networking.Completion, error) {
	f.reads++
	if !f.autoComplete || f.completed == f.issued {
		return nil, nil
	}
	c := networking.Completion{Lo: f.completed, Hi: f.issued - 1}
	f.completed = f.issued
	return []networking.Completion{c}, nil
}

func (f *fakeSocket) Close() error {
	f.closed = true
	return nil
}

// pinnedOutSocket hits the pinning limit on every zero-copy send.
type pinnedOutSocket struct {
	fakeSocket
}

func (p *pinnedOutSocket) SendZeroCopy([][]byte) (int, error) {
	p.zcsends++
	return 0, os.NewSyscallError("sendmsg", syscall.ENOBUFS)
}

// slowSocket takes a while to poll the error queue.
type slowSocket struct {
	fakeSocket
	delay time.Duration
}

func (s *slowSocket) ReadCompletions(wait time.Duration) ([]networking.Completion, error) {
	time.Sleep(s.delay)
	return s.fakeSocket.ReadCompletions(wait)
}
