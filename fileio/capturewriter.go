package fileio

import (
	"bufio"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// CaptureWriter stores a stream LZ4 frame compressed. The payload pattern
// compresses to almost nothing, so captures of long runs stay small.
type CaptureWriter struct {
	file       *os.File
	writer     *bufio.Writer
	compressor *lz4.Writer
	wqLen      int
	hash       *StreamHash
}

// New creates new capture file or returns error upon failing to do so
func (c *CaptureWriter) New(filename string, bufferSize, qlen int, sha bool) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	c.file = file
	c.writer = bufio.NewWriterSize(file, bufferSize)
	c.compressor = newCompressor(c.writer)
	c.wqLen = qlen
	c.hash = NewStreamHash(sha)
	return nil
}

// StartWriting starts goroutine compressing queued chunks into the file
func (c *CaptureWriter) StartWriting() (chan []byte, chan WriteResult) {
	if c.file == nil {
		panic("cannot start writing without file handle")
	}
	return startWriting(c.compressor, c.file, c.hash, c.wqLen, func() error {
		// Frame trailer goes out before the buffered writer is flushed.
		if err := c.compressor.Close(); err != nil {
			return err
		}
		return c.writer.Flush()
	})
}

// startWriting consumes the queue into out, hashing the uncompressed bytes.
// After the first failure the queue is still drained so senders never block,
// but nothing more is written.
func startWriting(out io.Writer, file *os.File, hash *StreamHash, qlen int, finish func() error) (chan []byte, chan WriteResult) {
	result := make(chan WriteResult, 1)
	// Make write queue.
	stream := make(chan []byte, qlen)
	// Start consuming queue in goroutine.
	go func(chunkStream chan []byte, complete chan WriteResult) {
		var err error
		for chunk := range chunkStream {
			// Write to file.
			if err == nil {
				_, err = out.Write(chunk)
			}
			// Update hash.
			hash.Write(chunk)
		}

		// Write any remaining bytes.
		if err == nil {
			if finish != nil {
				err = finish()
			} else if flusher, ok := out.(interface{ Flush() error }); ok {
				err = flusher.Flush()
			}
		}
		if cerr := file.Close(); err == nil {
			err = cerr
		}

		// Signal that all data has been written.
		complete <- WriteResult{Sum: hash.Sum(), Err: err}
		close(complete)
	}(stream, result)
	return stream, result
}
