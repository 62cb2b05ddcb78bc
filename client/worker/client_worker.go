package worker

import (
	"context"
	"errors"
	"fmt"
	"go_copy_bench/client/comms"
	"go_copy_bench/client/message"
	"go_copy_bench/client/metrics"
	"go_copy_bench/client/strategy"
	"go_copy_bench/networking"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoWorkers is returned when fewer than one worker is requested
var ErrNoWorkers = errors.New("worker count must be at least 1")

// Dialer establishes a connection and performs the handshake
type Dialer func(ctx context.Context, address string, config *networking.Config) (networking.Socket, error)

// Job describes one benchmark run
type Job struct {
	Address     string
	PayloadSize int
	Workers     int
	Duration    time.Duration
	Strategy    string
	Comms       comms.Options
	Send        strategy.Options
}

// Pool runs one independent sender per connection
type Pool struct {
	Job    Job
	Logger *zap.Logger
	Dial   Dialer
}

// Validate rejects jobs that must fail before any connection attempt
func (j *Job) Validate() error {
	if _, err := message.FieldSize(j.PayloadSize); err != nil {
		return err
	}
	if j.Workers < 1 {
		return ErrNoWorkers
	}
	if !strategy.Valid(j.Strategy) {
		return fmt.Errorf("%w: %q", strategy.ErrUnknownStrategy, j.Strategy)
	}
	return nil
}

// Run starts all workers and waits for every one of them. Results are indexed
// by worker and only handed out after the join.
func (p *Pool) Run(ctx context.Context) ([]metrics.Result, error) {
	if err := p.Job.Validate(); err != nil {
		return nil, err
	}

	results := make([]metrics.Result, p.Job.Workers)
	var g errgroup.Group
	for i := range results {
		id := i
		g.Go(func() error {
			// Each slot has exactly one writer.
			results[id] = p.runWorker(ctx, id)
			return nil
		})
	}
	g.Wait()

	return results, nil
}

// runWorker performs setup, the send loop and result capture for one connection.
func (p *Pool) runWorker(ctx context.Context, id int) metrics.Result {
	logger := p.logger().With(zap.Int("worker", id))
	result := metrics.Result{Worker: id}

	config := &networking.Config{
		PayloadSize: int32(p.Job.PayloadSize),
		Duration:    int32(math.Ceil(p.Job.Duration.Seconds())),
	}
	socket, err := p.dial()(ctx, p.Job.Address, config)
	if err != nil {
		// Siblings are unaffected, this worker contributes nothing.
		logger.Error("Connection failed", zap.String("address", p.Job.Address), zap.Error(err))
		result.Err = err
		return result
	}
	defer socket.Close()
	result.Connected = true

	msg, err := message.New(p.Job.PayloadSize)
	if err != nil {
		result.Err = err
		return result
	}

	opts := p.Job.Send
	opts.Logger = logger
	sender, err := strategy.New(p.Job.Strategy, opts)
	if err != nil {
		result.Err = err
		return result
	}
	if err := sender.Prepare(socket, msg); err != nil {
		logger.Error("Strategy setup failed", zap.Error(err))
		result.Err = err
		return result
	}

	maintainer, _ := sender.(strategy.Maintainer)

	var sampler metrics.Sampler
	start := time.Now()
	// Bounds waits inside a send, such as pinning limit retries, to the run.
	runCtx, cancel := context.WithDeadline(ctx, start.Add(p.Job.Duration))
	defer cancel()
	for time.Since(start) < p.Job.Duration && runCtx.Err() == nil {
		begin := time.Now()
		sent, err := sender.Send(runCtx)
		if err != nil {
			sampler.AddBytes(sent)
			switch {
			case runCtx.Err() != nil && errors.Is(err, runCtx.Err()):
				logger.Debug("Send abandoned at end of run", zap.Int("sent", sent))
			case networking.Classify(err) == networking.ClassClosed:
				logger.Info("Receiver closed connection", zap.Error(err))
			default:
				logger.Error("Send failed", zap.Error(err))
				result.Err = err
			}
			break
		}
		sampler.Add(sent, time.Since(begin))
		if maintainer != nil {
			maintainer.Maintain()
		}
	}

	// Pages may still be in flight, never release before the final drain.
	if err := sender.Finish(); err != nil {
		logger.Warn("Final completion drain incomplete", zap.Error(err))
	}
	elapsed := time.Since(start)
	if err := msg.Release(); err != nil {
		logger.Warn("Message kept alive for in-flight transmissions", zap.Error(err))
	}

	result.BytesTransferred = sampler.Bytes()
	result.Messages = sampler.Count()
	result.ElapsedSeconds = elapsed.Seconds()
	result.AvgLatencyUs = sampler.AvgLatencyUs()

	logger.Info("Sent",
		zap.Int64("bytes", result.BytesTransferred),
		zap.Float64("seconds", result.ElapsedSeconds),
		zap.Int64("messages", result.Messages),
		zap.Float64("avg_latency_us", result.AvgLatencyUs))
	return result
}

func (p *Pool) dial() Dialer {
	if p.Dial != nil {
		return p.Dial
	}
	return func(ctx context.Context, address string, config *networking.Config) (networking.Socket, error) {
		conn, err := comms.Connect(ctx, address, config, p.Job.Comms)
		if err != nil {
			return nil, err
		}
		return conn.Socket(), nil
	}
}

func (p *Pool) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
