// Package compress provides the named compressors used when archiving
// snapshot files to object storage.
//
// Archived objects carry the compressor's extension in their name, so
// an object is self-describing and can be restored by selecting the
// compressor by extension.
package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Compressor compresses and decompresses byte slices.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
	// Ext is the filename extension appended to archived objects,
	// including the dot. Empty for the no-op compressor.
	Ext() string
}

// ByName returns a built-in compressor by its stable name.
func ByName(name string) (Compressor, bool) {
	switch name {
	case "none", "":
		return None{}, true
	case "gzip":
		return Gzip{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// Default is the compressor used when none is configured.
var Default Compressor = Gzip{}

// None passes data through unchanged.
type None struct{}

func (None) Compress(data []byte) ([]byte, error)   { return data, nil }
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }
func (None) Name() string                           { return "none" }
func (None) Ext() string                            { return "" }

// Gzip compresses with klauspost/compress gzip at the default level.
type Gzip struct{}

func (Gzip) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Gzip) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (Gzip) Name() string { return "gzip" }
func (Gzip) Ext() string  { return ".gz" }

// LZ4 trades ratio for speed; useful when archive volume is large and
// storage is cheap.
type LZ4 struct{}

func (LZ4) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZ4) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}

func (LZ4) Name() string { return "lz4" }
func (LZ4) Ext() string  { return ".lz4" }
