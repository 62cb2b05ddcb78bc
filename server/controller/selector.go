package server

import (
	"context"
	"errors"
	"fmt"
	"go_copy_bench/constants"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Options configures the receiving endpoint
type Options struct {
	Verify     bool          // Check received bytes against the field pattern
	CaptureDir string        // Write each stream to this folder
	CaptureRaw bool          // Store captures uncompressed instead of LZ4
	MPTCP      bool          // Multipath TCP
	OnSession  func(Session) // Called once per finished connection
}

// Server accepts sender connections and drains them
type Server struct {
	opts     Options
	logger   *zap.Logger
	listener net.Listener
	nextID   atomic.Int64
	wg       sync.WaitGroup
}

// NewServer prepares a receiver. Capture folder is created when missing.
func NewServer(opts Options, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CaptureDir != "" {
		opts.CaptureDir = filepath.Clean(opts.CaptureDir)
		if err := os.MkdirAll(opts.CaptureDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("capture folder: %w", err)
		}
	}
	return &Server{opts: opts, logger: logger}, nil
}

// Listen binds new listening socket
func (s *Server) Listen(ctx context.Context, addr string) error {
	_, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}
	lc := new(net.ListenConfig)
	// Set MPTCP.
	lc.SetMultipathTCP(s.opts.MPTCP)
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("could not bind listening socket on %s: %w", addr, err)
	}
	s.listener = l
	s.logger.Info("Listening", zap.String("address", l.Addr().String()))
	return nil
}

// Addr returns bound address
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then waits for every
// connection handler to observe the cancellation and finish.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("serve called before listen")
	}
	// Unblock Accept when shutdown is requested.
	stop := context.AfterFunc(ctx, func() {
		s.listener.Close()
	})
	defer stop()
	defer s.wg.Wait()

	for {
		// Handle incoming connection.
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("Failed to establish incoming connection", zap.Error(err))
			time.Sleep(10 * time.Millisecond)
			continue
		}

		id := s.nextID.Add(1) - 1
		s.logger.Info("Accepted client", zap.Int64("conn", id), zap.String("remote", conn.RemoteAddr().String()))

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			session := s.handleConnection(ctx, id, conn)
			if s.opts.OnSession != nil {
				s.opts.OnSession(session)
			}
		}()
	}
}

// ListenAndServe binds addr and serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Listen(ctx, addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) capturePath(id int64, suffix string) string {
	return filepath.Join(s.opts.CaptureDir, fmt.Sprintf("conn-%d%s", id, suffix))
}

// recvBufferSize sizes the read buffer from the handshake.
func recvBufferSize(payloadSize int32) int {
	size := int(payloadSize)
	if size <= 0 {
		return constants.RECV_BUFFER_SIZE
	}
	if size > constants.MAX_RECV_BUFFER {
		return constants.MAX_RECV_BUFFER
	}
	return size
}
