package fileio

import (
	"bufio"
	"os"

	"github.com/pierrec/lz4/v4"
)

// CaptureReader decompresses a capture written by CaptureWriter
type CaptureReader struct {
	file         *os.File
	decompressor *lz4.Reader
	chunkSize    int
	rqLen        int
}

// New opens capture for reading or returns error upon failing to do so
func (c *CaptureReader) New(filename string, chunkSize, numchunks int) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	c.file = file
	c.chunkSize = chunkSize
	c.rqLen = numchunks
	c.decompressor = newDecompressor(bufio.NewReaderSize(file, chunkSize))
	return nil
}

// StartReading starts a goroutine delivering decompressed chunks
func (c *CaptureReader) StartReading() (chan []byte, chan error) {
	if c.file == nil {
		panic("cannot start reading without file handle")
	}
	return startReading(c.decompressor, c.file, c.chunkSize, c.rqLen)
}
