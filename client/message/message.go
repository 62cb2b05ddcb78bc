// Package message owns the application payload a sender streams: a fixed set
// of independently allocated fields that the send paths read from directly.
package message

import (
	"errors"
	"fmt"
	"go_copy_bench/constants"
	"go_copy_bench/networking"
	"sync"
)

var (
	// ErrInvalidPayload is a fatal configuration error raised before any connection attempt.
	ErrInvalidPayload = errors.New("payload size must be at least " + fmt.Sprint(constants.NUM_FIELDS) + " bytes")
	// ErrPinned means the kernel may still be reading the fields.
	ErrPinned = errors.New("message fields still pinned by outstanding transmissions")
	// ErrReleased guards against use after Release.
	ErrReleased = errors.New("message already released")
)

// Message is the payload of one worker: NUM_FIELDS equal size fields.
type Message struct {
	fields    [constants.NUM_FIELDS][]byte
	fieldSize int
	pinned    int64
	released  bool
}

// FieldSize returns per field length for requested payload size or ErrInvalidPayload
func FieldSize(payloadSize int) (int, error) {
	fieldSize := networking.FieldSize(payloadSize)
	if fieldSize <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPayload, payloadSize)
	}
	return fieldSize, nil
}

// New allocates every field separately and fills it with its pattern byte.
// Payload bytes beyond NUM_FIELDS * field size are never transmitted.
func New(payloadSize int) (*Message, error) {
	fieldSize, err := FieldSize(payloadSize)
	if err != nil {
		return nil, err
	}
	m := &Message{fieldSize: fieldSize}
	for i := range m.fields {
		field := make([]byte, fieldSize)
		// Touch every page so the allocation is backed by physical memory.
		fill := networking.PatternByte(i)
		for j := range field {
			field[j] = fill
		}
		m.fields[i] = field
	}
	return m, nil
}

// FieldSize returns length of a single field
func (m *Message) FieldSize() int {
	return m.fieldSize
}

// Len returns number of bytes one message puts on the wire
func (m *Message) Len() int {
	return m.fieldSize * constants.NUM_FIELDS
}

// Fields returns a fresh descriptor list referencing the fields directly.
// Callers may reslice the returned list but never the field contents.
func (m *Message) Fields() [][]byte {
	bufs := make([][]byte, constants.NUM_FIELDS)
	for i, field := range m.fields {
		bufs[i] = field
	}
	return bufs
}

// Serialize copies all fields back to back into dst and returns the written prefix.
func (m *Message) Serialize(dst []byte) []byte {
	if cap(dst) < m.Len() {
		dst = make([]byte, m.Len())
	}
	dst = dst[:m.Len()]
	offset := 0
	for _, field := range m.fields {
		offset += copy(dst[offset:], field)
	}
	return dst
}

// Pin records n transmissions that reference the fields until completed.
func (m *Message) Pin(n int64) {
	m.pinned += n
}

// Unpin clears n completed transmissions. It never drops below zero.
func (m *Message) Unpin(n int64) {
	m.pinned -= n
	if m.pinned < 0 {
		m.pinned = 0
	}
}

// Pinned returns number of transmissions the kernel has not released yet
func (m *Message) Pinned() int64 {
	return m.pinned
}

// Release drops the fields. A message with outstanding pins is parked in
// quarantine instead so the memory stays reachable while the kernel reads it.
func (m *Message) Release() error {
	if m.released {
		return ErrReleased
	}
	m.released = true
	if m.pinned > 0 {
		quarantine.park(m)
		return ErrPinned
	}
	for i := range m.fields {
		m.fields[i] = nil
	}
	return nil
}

// Released reports whether Release has been called
func (m *Message) Released() bool {
	return m.released
}

type parking struct {
	mu       sync.Mutex
	messages []*Message
}

func (p *parking) park(m *Message) {
	p.mu.Lock()
	p.messages = append(p.messages, m)
	p.mu.Unlock()
}

var quarantine parking

// Quarantined returns number of messages kept alive after a failed release
func Quarantined() int {
	quarantine.mu.Lock()
	defer quarantine.mu.Unlock()
	return len(quarantine.messages)
}
