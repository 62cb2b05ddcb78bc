package networking

import (
	"bytes"
	"encoding/binary"
	"errors"
	"go_copy_bench/constants"
)

// ErrShortHandshake reports a handshake that did not travel as one 8 byte unit
var ErrShortHandshake = errors.New("handshake length should always be 8 bytes")

// ConfigToBytes encodes handshake to slice of bytes
func ConfigToBytes(config *Config) []byte {
	buffer := bytes.NewBuffer(make([]byte, 0, constants.CONFIG_WIRE_SIZE))
	binary.Write(buffer, binary.LittleEndian, config)
	return buffer.Bytes()
}

// DecodeConfig decodes slice of bytes to Config
func DecodeConfig(message []byte) (*Config, error) {
	if len(message) != constants.CONFIG_WIRE_SIZE {
		return nil, ErrShortHandshake
	}

	config := new(Config)
	buffer := bytes.NewBuffer(message)
	err := binary.Read(buffer, binary.LittleEndian, config)

	return config, err
}
