package strategy

import (
	"context"
	"go_copy_bench/client/message"
	"go_copy_bench/constants"
	"go_copy_bench/networking"

	"go.uber.org/zap"
)

// Copying is the two-copy baseline: serialize, then let the kernel copy again.
type Copying struct {
	socket  networking.Socket
	msg     *message.Message
	scratch []byte
	logger  *zap.Logger
}

func (c *Copying) Name() string {
	return constants.STRATEGY_TWO_COPY
}

func (c *Copying) Prepare(socket networking.Socket, msg *message.Message) error {
	c.socket = socket
	c.msg = msg
	c.scratch = make([]byte, msg.Len())
	return nil
}

// Send copies every field into the scratch buffer (first copy) and writes it
// out in full (second copy happens in the kernel).
func (c *Copying) Send(context.Context) (int, error) {
	c.scratch = c.msg.Serialize(c.scratch)
	return sendAll(c.socket, c.scratch)
}

func (c *Copying) Finish() error {
	c.scratch = nil
	return nil
}
