package fileio

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// newCompressor wraps w in an LZ4 frame writer with content checksums on
func newCompressor(w io.Writer) *lz4.Writer {
	zw := lz4.NewWriter(w)
	// Options only fail for invalid values.
	if err := zw.Apply(lz4.BlockSizeOption(lz4.Block4Mb), lz4.ChecksumOption(true)); err != nil {
		panic(err)
	}
	return zw
}

// newDecompressor reads an LZ4 frame stream from r
func newDecompressor(r io.Reader) *lz4.Reader {
	return lz4.NewReader(r)
}
