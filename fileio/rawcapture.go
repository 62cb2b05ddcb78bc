package fileio

import (
	"bufio"
	"io"
	"os"
)

// RawWriter stores a stream exactly as received
type RawWriter struct {
	out   *bufio.Writer
	file  *os.File
	queue int
	sum   *StreamHash
}

func (w *RawWriter) New(filename string, bufferSize, qlen int, sha bool) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	w.file, w.queue, w.sum = file, qlen, NewStreamHash(sha)
	w.out = bufio.NewWriterSize(file, bufferSize)
	return nil
}

func (w *RawWriter) StartWriting() (chan []byte, chan WriteResult) {
	if w.file == nil {
		panic("cannot start writing without file handle")
	}
	return startWriting(w.out, w.file, w.sum, w.queue, nil)
}

// RawReader replays an uncompressed capture
type RawReader struct {
	in        *bufio.Reader
	file      *os.File
	chunkSize int
	queue     int
}

func (r *RawReader) New(filename string, chunkSize, numchunks int) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	r.file, r.chunkSize, r.queue = file, chunkSize, numchunks
	r.in = bufio.NewReaderSize(file, chunkSize)
	return nil
}

func (r *RawReader) StartReading() (chan []byte, chan error) {
	if r.file == nil {
		panic("cannot start reading without file handle")
	}
	return startReading(r.in, r.file, r.chunkSize, r.queue)
}

// startReading streams full chunks of src until it is exhausted. The last
// chunk may be short. Anything but a clean EOF is reported on the error channel.
func startReading(src io.Reader, file *os.File, chunkSize, qlen int) (chan []byte, chan error) {
	chunks := make(chan []byte, qlen)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer file.Close()
		defer close(chunks)
		for {
			buf := make([]byte, chunkSize)
			n, err := fill(src, buf)
			if n > 0 {
				chunks <- buf[:n]
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()
	return chunks, errs
}

// fill reads into buf until it is full or src fails. Unlike io.ReadFull the
// source's own error is kept, so a truncated compressed frame is not
// mistaken for a short final chunk.
func fill(src io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := src.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
