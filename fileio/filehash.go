package fileio

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"hash/crc32"
)

// StreamHash incrementally fingerprints a byte stream with CRC32 or SHA256
type StreamHash struct {
	crc32Hash  uint32
	sha256Hash hash.Hash
}

// NewStreamHash returns CRC32 hashing unless sha is set
func NewStreamHash(sha bool) *StreamHash {
	h := new(StreamHash)
	if sha {
		h.sha256Hash = sha256.New()
	}
	return h
}

// Write updates the checksum with data
func (h *StreamHash) Write(data []byte) (int, error) {
	if h.sha256Hash != nil {
		progressiveChecksumSHA256(h.sha256Hash, data)
	} else {
		h.crc32Hash = progressiveChecksumCRC32(h.crc32Hash, data)
	}
	return len(data), nil
}

// Sum returns SHA256 digest or big endian CRC32 for all data written so far
func (h *StreamHash) Sum() []byte {
	if h.sha256Hash != nil {
		return h.sha256Hash.Sum(nil)
	}
	return binary.BigEndian.AppendUint32(make([]byte, 0, 4), h.crc32Hash)
}

// progressiveChecksumSHA256 incrementally calculates SHA256 checksum
func progressiveChecksumSHA256(shaHash hash.Hash, data []byte) hash.Hash {
	if len(data) > 0 {
		shaHash.Write(data)
	}
	return shaHash
}

// progressiveChecksumCRC32 incrementally calculates CRC32 checksum
func progressiveChecksumCRC32(hash uint32, data []byte) uint32 {
	return crc32.Update(hash, crc32.IEEETable, data)
}

// ChecksumStream reads a capture through the factory reader and fingerprints it
func ChecksumStream(factory IOFactory, filename string, chunkSize int, sha bool) ([]byte, int64, error) {
	reader := factory.NewReader()
	if err := reader.New(filename, chunkSize, 4); err != nil {
		return nil, 0, err
	}
	h := NewStreamHash(sha)
	var total int64
	chunks, errs := reader.StartReading()
	for chunk := range chunks {
		h.Write(chunk)
		total += int64(len(chunk))
	}
	if err := <-errs; err != nil {
		return nil, total, err
	}
	return h.Sum(), total, nil
}
