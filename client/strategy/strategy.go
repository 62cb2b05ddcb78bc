// Package strategy holds the three send paths compared by the benchmark.
//
// Copying serializes the message into a contiguous buffer before handing it
// to the kernel (two copies). ScatterGather passes the fields as a descriptor
// list so only the kernel copies (one copy). ZeroCopy asks the kernel to pin
// the field pages and transmit from them directly, which requires tracking
// completion notifications before the fields may be reused or freed.
package strategy

import (
	"context"
	"errors"
	"go_copy_bench/client/message"
	"go_copy_bench/constants"
	"go_copy_bench/networking"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownStrategy is returned for names outside constants.Strategies
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy converts a message into bytes on the wire, one logical send per call.
type Strategy interface {
	// Name is the identifier printed in RESULT lines.
	Name() string
	// Prepare binds the strategy to its socket and message before the send loop.
	Prepare(socket networking.Socket, msg *message.Message) error
	// Send transmits one whole message and returns bytes accepted by the transport.
	// Waits inside the send give up with ctx.Err() once ctx is done.
	Send(ctx context.Context) (int, error)
	// Finish runs once after the send loop and before the message is released.
	Finish() error
}

// Maintainer is implemented by strategies with bookkeeping that runs between
// sends, outside the section timed for latency.
type Maintainer interface {
	Maintain()
}

// Options tunes the send paths
type Options struct {
	DrainInterval     int           // Zero-copy sends between completion drains
	FinalDrainTimeout time.Duration // Bound on waiting for outstanding completions at exit
	ExhaustedWait     time.Duration // Error queue wait while the pinning limit is hit
	Logger            *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.DrainInterval <= 0 {
		o.DrainInterval = constants.DRAIN_INTERVAL
	}
	if o.FinalDrainTimeout <= 0 {
		o.FinalDrainTimeout = constants.FINAL_DRAIN_TIMEOUT
	}
	if o.ExhaustedWait <= 0 {
		o.ExhaustedWait = constants.EXHAUSTED_POLL_WAIT
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// New returns a fresh strategy instance for a single worker
func New(name string, opts Options) (Strategy, error) {
	opts = opts.withDefaults()
	switch name {
	case constants.STRATEGY_TWO_COPY:
		return &Copying{logger: opts.Logger}, nil
	case constants.STRATEGY_ONE_COPY:
		return &ScatterGather{logger: opts.Logger}, nil
	case constants.STRATEGY_ZERO_COPY:
		return &ZeroCopy{opts: opts, logger: opts.Logger}, nil
	default:
		return nil, ErrUnknownStrategy
	}
}

// Valid reports whether name is a known strategy
func Valid(name string) bool {
	for _, s := range constants.Strategies {
		if s == name {
			return true
		}
	}
	return false
}
