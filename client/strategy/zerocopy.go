package strategy

import (
	"context"
	"go_copy_bench/client/message"
	"go_copy_bench/constants"
	"go_copy_bench/networking"
	"io"
	"time"

	"go.uber.org/zap"
)

// State of the zero-copy send loop
type State int

const (
	StateSending   State = iota // Issuing zero-copy sends
	StateDraining               // Periodic best effort completion poll
	StateExhausted              // Pinning limit hit, draining before retry
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateDraining:
		return "draining"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ZeroCopy transmits straight from the pinned field pages.
type ZeroCopy struct {
	opts        Options
	socket      networking.Socket
	msg         *message.Message
	fields      [][]byte
	iov         [][]byte
	completions *CompletionManager
	enabled     bool
	state       State
	iterations  int
	drainDue    bool
	exhaustions int
	logger      *zap.Logger
}

func (z *ZeroCopy) Name() string {
	return constants.STRATEGY_ZERO_COPY
}

// Prepare enables SO_ZEROCOPY. Rejection is not fatal: sends then go out as
// plain scatter-gather without completion tracking.
func (z *ZeroCopy) Prepare(socket networking.Socket, msg *message.Message) error {
	z.opts = z.opts.withDefaults()
	if z.logger == nil {
		z.logger = z.opts.Logger
	}
	z.socket = socket
	z.msg = msg
	z.fields = msg.Fields()
	z.iov = make([][]byte, 0, len(z.fields))
	z.completions = NewCompletionManager(socket, msg)
	z.state = StateSending

	if err := socket.EnableZeroCopy(); err != nil {
		z.logger.Warn("Zero-copy not supported, falling back", zap.Error(err))
		return nil
	}
	z.enabled = true
	return nil
}

// Send issues zero-copy sends until the whole message is accepted. Running
// out of pinnable memory drains completions and retries the remainder until
// ctx is done; bytes are only counted once the kernel accepts them.
func (z *ZeroCopy) Send(ctx context.Context) (int, error) {
	z.iov = append(z.iov[:0], z.fields...)
	total := 0
	for len(z.iov) > 0 {
		n, err := networking.Retry(networking.RetryInterrupted, func() (int, error) {
			return z.sendOnce(z.iov)
		})
		if n > 0 {
			total += n
			if z.enabled {
				z.completions.Track(n)
			}
			z.iov = advance(z.iov, n)
		}
		if err != nil {
			if networking.Classify(err) == networking.ClassExhausted {
				if err := z.exhausted(ctx); err != nil {
					return total, err
				}
				continue
			}
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}

	z.iterations++
	if z.enabled && z.iterations%z.opts.DrainInterval == 0 {
		z.drainDue = true
	}
	return total, nil
}

// Maintain runs the periodic completion drain scheduled by Send.
func (z *ZeroCopy) Maintain() {
	if !z.drainDue {
		return
	}
	z.drainDue = false
	z.drain()
}

func (z *ZeroCopy) sendOnce(iov [][]byte) (int, error) {
	if z.enabled {
		return z.socket.SendZeroCopy(iov)
	}
	return z.socket.Sendv(iov)
}

func (z *ZeroCopy) drain() {
	z.state = StateDraining
	if _, err := z.completions.Drain(); err != nil {
		z.logger.Debug("Completion drain failed", zap.Error(err))
	}
	z.state = StateSending
}

func (z *ZeroCopy) exhausted(ctx context.Context) error {
	z.state = StateExhausted
	defer func() { z.state = StateSending }()
	z.exhaustions++
	acked, err := z.completions.DrainAll(z.opts.ExhaustedWait)
	if err != nil {
		z.logger.Debug("Completion drain failed", zap.Error(err))
	}
	if acked > 0 {
		return ctx.Err()
	}
	// Nothing released yet, give the device time before retrying.
	timer := time.NewTimer(z.opts.ExhaustedWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Finish performs the final unconditional drain. The message must not be
// released before this returns.
func (z *ZeroCopy) Finish() error {
	if !z.enabled {
		return nil
	}
	z.state = StateDraining
	err := z.completions.Finish(z.opts.FinalDrainTimeout)
	z.state = StateSending

	stats := z.completions.Stats()
	z.logger.Debug("Zero-copy completions",
		zap.Uint64("sent", stats.Sent),
		zap.Uint64("completed", stats.Completed),
		zap.Uint64("copied", stats.Copied),
		zap.Uint64("drains", stats.Drains),
		zap.Int("exhaustions", z.exhaustions),
		zap.Int("outstanding", z.completions.Outstanding()))
	return err
}

// State returns current state of the send loop
func (z *ZeroCopy) State() State {
	return z.state
}

// Enabled reports whether the kernel accepted SO_ZEROCOPY
func (z *ZeroCopy) Enabled() bool {
	return z.enabled
}

// Outstanding returns sends still pinned by the kernel
func (z *ZeroCopy) Outstanding() int {
	return z.completions.Outstanding()
}

// Exhaustions returns how many times the pinning limit was hit
func (z *ZeroCopy) Exhaustions() int {
	return z.exhaustions
}

// Completions exposes the bookkeeping counters
func (z *ZeroCopy) Completions() CompletionStats {
	return z.completions.Stats()
}
