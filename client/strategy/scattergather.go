package strategy

import (
	"context"
	"go_copy_bench/client/message"
	"go_copy_bench/constants"
	"go_copy_bench/networking"

	"go.uber.org/zap"
)

// ScatterGather is the one-copy path: the kernel gathers straight from the fields.
type ScatterGather struct {
	socket networking.Socket
	fields [][]byte
	iov    [][]byte
	logger *zap.Logger
}

func (s *ScatterGather) Name() string {
	return constants.STRATEGY_ONE_COPY
}

func (s *ScatterGather) Prepare(socket networking.Socket, msg *message.Message) error {
	s.socket = socket
	s.fields = msg.Fields()
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.iov = make([][]byte, 0, len(s.fields))
	return nil
}

// Send hands the descriptor list to a single gathering send per call.
func (s *ScatterGather) Send(context.Context) (int, error) {
	s.iov = append(s.iov[:0], s.fields...)
	return sendvAll(s.socket, s.iov, s.logger)
}

func (s *ScatterGather) Finish() error {
	return nil
}
