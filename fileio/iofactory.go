package fileio

type IOFactory interface {
	NewReader() StreamReader
	NewWriter() StreamWriter
	Suffix() string
}

// NewFactory returns LZ4 capture files unless raw output is requested
func NewFactory(raw bool) IOFactory {
	if raw {
		return new(RawFactory)
	}
	return new(LZ4Factory)
}

// LZ4Factory is the default factory returning compressed capture reader/writer instances
type LZ4Factory struct{}

func (l *LZ4Factory) NewReader() StreamReader {
	return new(CaptureReader)
}

func (l *LZ4Factory) NewWriter() StreamWriter {
	return new(CaptureWriter)
}

func (l *LZ4Factory) Suffix() string {
	return ".lz4"
}

// RawFactory stores streams as they arrived
type RawFactory struct{}

func (r *RawFactory) NewReader() StreamReader {
	return new(RawReader)
}

func (r *RawFactory) NewWriter() StreamWriter {
	return new(RawWriter)
}

func (r *RawFactory) Suffix() string {
	return ".bin"
}
