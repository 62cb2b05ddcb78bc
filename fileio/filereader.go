package fileio

// StreamReader replays a persisted stream in chunks
type StreamReader interface {
	New(filename string, chunkSize, numchunks int) error
	// StartReading returns the chunk stream and a channel delivering the
	// read error, nil at a clean end, after the stream is closed.
	StartReading() (chan []byte, chan error)
}
