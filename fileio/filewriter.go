package fileio

// WriteResult is delivered once a writer's queue is closed and drained.
type WriteResult struct {
	Sum []byte // Checksum of every queued chunk
	Err error  // First write, flush or close failure, the file is incomplete when set
}

// StreamWriter persists a received byte stream chunk by chunk
type StreamWriter interface {
	New(filename string, bufferSize, qlen int, sha bool) error
	// StartWriting returns the chunk queue and a channel delivering the
	// result once the queue is closed and everything is flushed.
	StartWriting() (chan []byte, chan WriteResult)
}
