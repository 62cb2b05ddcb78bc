package server

import (
	"context"
	"go_copy_bench/constants"
	"go_copy_bench/fileio"
	"go_copy_bench/networking"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
)

// Session is what the receiver observed on one connection
type Session struct {
	ID          int64
	Remote      string
	Config      networking.Config
	Bytes       int64
	Checksum    []byte // CRC32 of everything received after the handshake
	Mismatch    int64  // Stream offset of the first pattern violation, -1 if none or unchecked
	CapturePath string // Empty unless the whole stream was persisted
	CaptureErr  error
	Err         error
}

// handleConnection reads the handshake, then counts bytes until the stream
// closes or shutdown is requested.
func (s *Server) handleConnection(ctx context.Context, id int64, conn net.Conn) Session {
	defer conn.Close()
	logger := s.logger.With(zap.Int64("conn", id))
	session := Session{ID: id, Remote: conn.RemoteAddr().String(), Mismatch: -1}

	// Shutdown wakes a blocked read instead of waiting for the peer.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	handshake := make([]byte, constants.CONFIG_WIRE_SIZE)
	if _, err := io.ReadFull(conn, handshake); err != nil {
		logger.Warn("Failed to receive config", zap.Error(err))
		session.Err = err
		return session
	}
	config, err := networking.DecodeConfig(handshake)
	if err != nil {
		logger.Warn("Malformed config", zap.Error(err))
		session.Err = err
		return session
	}
	session.Config = *config
	logger.Info("Client connected",
		zap.Int32("payload", config.PayloadSize),
		zap.Int32("duration", config.Duration))

	fieldSize := networking.FieldSize(int(config.PayloadSize))
	verify := s.opts.Verify && fieldSize > 0

	var capture chan []byte
	var captured chan fileio.WriteResult
	if s.opts.CaptureDir != "" {
		factory := fileio.NewFactory(s.opts.CaptureRaw)
		path := s.capturePath(id, factory.Suffix())
		writer := factory.NewWriter()
		if err := writer.New(path, constants.CAPTURE_BUFFER_SIZE, constants.CAPTURE_WRITE_QUEUE, false); err != nil {
			logger.Warn("Capture disabled", zap.Error(err))
		} else {
			capture, captured = writer.StartWriting()
			session.CapturePath = path
		}
	}

	// The capture writer fingerprints what it persists, otherwise hash here.
	var checksum *fileio.StreamHash
	if capture == nil {
		checksum = fileio.NewStreamHash(false)
	}
	buf := make([]byte, recvBufferSize(config.PayloadSize))
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if verify && session.Mismatch < 0 {
				if at := networking.FirstMismatch(chunk, fieldSize, session.Bytes); at >= 0 {
					session.Mismatch = session.Bytes + int64(at)
					logger.Warn("Payload pattern mismatch", zap.Int64("offset", session.Mismatch))
				}
			}
			if capture != nil {
				// The read buffer is reused, the writer gets its own copy.
				capture <- append([]byte(nil), chunk...)
			} else {
				checksum.Write(chunk)
			}
			session.Bytes += int64(n)
		}
		if err != nil {
			if ctx.Err() == nil && err != io.EOF && networking.Classify(err) != networking.ClassClosed {
				logger.Warn("Receive failed", zap.Error(err))
				session.Err = err
			}
			break
		}
	}

	if capture != nil {
		close(capture)
		// Wait for the capture to be persisted.
		result := <-captured
		session.Checksum = result.Sum
		if result.Err != nil {
			logger.Warn("Capture incomplete", zap.String("path", session.CapturePath), zap.Error(result.Err))
			session.CaptureErr = result.Err
			session.CapturePath = ""
		}
	} else {
		session.Checksum = checksum.Sum()
	}

	logger.Info("Received",
		zap.Int64("bytes", session.Bytes),
		zap.Float64("MB", float64(session.Bytes)/(1024.0*1024.0)))
	return session
}
