package networking

import "go_copy_bench/constants"

// Payload content is the same for every send path: field i of every message
// is filled with 'A'+i, and messages follow each other without framing.

// FieldSize returns per field length for a payload size, 0 if the payload is
// too small to give every field at least one byte
func FieldSize(payloadSize int) int {
	if payloadSize < constants.NUM_FIELDS {
		return 0
	}
	return payloadSize / constants.NUM_FIELDS
}

// PatternByte is the content of field i
func PatternByte(field int) byte {
	return byte('A' + field%constants.NUM_FIELDS)
}

// ExpectedByte is the byte at offset of a stream made of whole messages
func ExpectedByte(fieldSize int, offset int64) byte {
	return PatternByte(int((offset / int64(fieldSize)) % constants.NUM_FIELDS))
}

// FirstMismatch returns index of the first byte of chunk that breaks the
// pattern when chunk starts at stream offset, or -1
func FirstMismatch(chunk []byte, fieldSize int, offset int64) int {
	i := 0
	for i < len(chunk) {
		pos := offset + int64(i)
		want := ExpectedByte(fieldSize, pos)
		end := min(i+fieldSize-int(pos%int64(fieldSize)), len(chunk))
		for j := i; j < end; j++ {
			if chunk[j] != want {
				return j
			}
		}
		i = end
	}
	return -1
}
