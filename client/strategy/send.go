package strategy

import (
	"go_copy_bench/networking"
	"io"

	"go.uber.org/zap"
)

// sendAll writes b completely, resuming from the unsent offset after partial writes.
func sendAll(socket networking.Socket, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := networking.Retry(networking.RetryInterrupted, func() (int, error) {
			return socket.Send(b[total:])
		})
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// sendvAll gathers the whole descriptor list, advancing it past accepted bytes
// after a short send. The list is consumed.
func sendvAll(socket networking.Socket, iov [][]byte, logger *zap.Logger) (int, error) {
	total := 0
	for len(iov) > 0 {
		n, err := networking.Retry(networking.RetryInterrupted, func() (int, error) {
			return socket.Sendv(iov)
		})
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
		iov = advance(iov, n)
		if len(iov) > 0 {
			logger.Debug("Short scatter-gather send", zap.Int("sent", n), zap.Int("remaining", iovLen(iov)))
		}
	}
	return total, nil
}

// advance drops the first n bytes from a descriptor list in place.
func advance(iov [][]byte, n int) [][]byte {
	for len(iov) > 0 {
		if n < len(iov[0]) {
			iov[0] = iov[0][n:]
			return iov
		}
		n -= len(iov[0])
		iov = iov[1:]
	}
	return iov
}

func iovLen(iov [][]byte) int {
	total := 0
	for _, b := range iov {
		total += len(b)
	}
	return total
}
