package constants

import "time"

const Title = "Copy path benchmark: two-copy, one-copy and zero-copy bulk TCP senders"

const (
	NUM_FIELDS          = 8                // Independently allocated fields per message
	DRAIN_INTERVAL      = 64               // Zero-copy sends between completion drains
	DEFAULT_PORT        = 8080             // Receiver listening port
	DEFAULT_NUM_WORKERS = 4                // Sender connections
	DEFAULT_DURATION    = 10               // Seconds
	DEFAULT_DSCP        = 0x0A             // QoS for high throughput
	BITS_PER_BYTE       = 8                // Throughput conversion
	RECV_BUFFER_SIZE    = 64 * 1024        // Receiver buffer when the handshake size is unusable
	MAX_RECV_BUFFER     = 64 * 1024 * 1024 // Upper bound on receiver buffer
	CAPTURE_WRITE_QUEUE = 16               // Queued chunks before blocking on capture writes
	CAPTURE_BUFFER_SIZE = 256 * 1024       // Capture file write buffer
	CONFIG_WIRE_SIZE    = 8                // Handshake bytes
)

const (
	FINAL_DRAIN_TIMEOUT = 2 * time.Second       // Upper bound on waiting for outstanding completions
	EXHAUSTED_POLL_WAIT = 10 * time.Millisecond // Error queue wait while pinning limit is hit
	DIAL_TIMEOUT        = 5 * time.Second       // Connection establishment
)

// Strategy names as they appear in RESULT lines.
const (
	STRATEGY_TWO_COPY  = "two_copy"
	STRATEGY_ONE_COPY  = "one_copy"
	STRATEGY_ZERO_COPY = "zero_copy"
)

var Strategies = []string{STRATEGY_TWO_COPY, STRATEGY_ONE_COPY, STRATEGY_ZERO_COPY}
