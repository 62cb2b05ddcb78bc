package networking

// Config is the handshake each sender transmits once, right after connecting
type Config struct {
	PayloadSize int32 // Requested message size in bytes
	Duration    int32 // Seconds the sender intends to stream
	// Followed by raw unframed payload bytes until the stream closes.
}
