package snapshot

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pierrec/lz4"
)

// Compressor compresses snapshot chunks.
type Compressor interface {
	// Name returns the name recorded in the snapshot manifest.
	Name() string

	// Compress returns the compressed chunk and whether it is stored raw
	// because it did not compress.
	Compress(data []byte) ([]byte, bool, error)

	// Decompress restores a chunk of rawSize bytes.
	Decompress(data []byte, rawSize int) ([]byte, error)
}

var (
	mu          sync.RWMutex
	compressors = make(map[string]func() Compressor)
)

// RegisterCompressor makes a compressor available by name.
func RegisterCompressor(name string, factory func() Compressor) {
	mu.Lock()
	defer mu.Unlock()
	compressors[name] = factory
}

// GetCompressor returns a compressor by name.
func GetCompressor(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return factory(), nil
}

// Compressors lists the registered compressor names.
func Compressors() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterCompressor("none", func() Compressor { return noCompressor{} })
	RegisterCompressor("lz4", func() Compressor { return lz4Compressor{} })
}

type noCompressor struct{}

func (noCompressor) Name() string { return "none" }

func (noCompressor) Compress(data []byte) ([]byte, bool, error) {
	return data, true, nil
}

func (noCompressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if len(data) != rawSize {
		return nil, fmt.Errorf("chunk is %d bytes, manifest says %d", len(data), rawSize)
	}
	return data, nil
}

type lz4Compressor struct{}

func (lz4Compressor) Name() string { return "lz4" }

func (lz4Compressor) Compress(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return []byte{}, true, nil
	}
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("lz4 compression failed: %w", err)
	}
	// lz4 reports incompressible input as a zero length block
	if n == 0 || n >= len(data) {
		return data, true, nil
	}
	return compressed[:n], false, nil
}

func (lz4Compressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	out := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != rawSize {
		return nil, fmt.Errorf("lz4 chunk decompressed to %d bytes, expected %d", n, rawSize)
	}
	return out, nil
}
