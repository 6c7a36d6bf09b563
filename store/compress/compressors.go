package compress

import (
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Tag identifies the compression algorithm used for a stored block.
// It is the first byte of every value written to the nested store.
type Tag uint8

const (
	TagNone Tag = 0
	TagLZ4  Tag = 1
	TagZstd Tag = 2
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagLZ4:
		return "lz4"
	case TagZstd:
		return "zstd"
	}
	return "unknown"
}

// Compressor is a compression algorithm.
// Compress returns errIncompressible when its output would be no smaller than its input.
// MaxUncompressed is an upper bound on the size of the data that n compressed bytes can expand to.
type Compressor interface {
	Tag() Tag
	Compress([]byte) ([]byte, error)
	Uncompress(inp []byte, size int) ([]byte, error)
	MaxUncompressed(n int) uint64
}

var errIncompressible = errors.New("incompressible")

// LZ4 is block-mode LZ4 compression.
type LZ4 struct{}

func (LZ4) Tag() Tag { return TagLZ4 }

// An LZ4 match length byte encodes at most 255 output bytes.
func (LZ4) MaxUncompressed(n int) uint64 { return 256*uint64(n) + 1024 }

func (LZ4) Compress(inp []byte) ([]byte, error) {
	out := make([]byte, lz4.CompressBlockBound(len(inp)))
	n, err := lz4.CompressBlock(inp, out, nil)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	if n == 0 || n >= len(inp) {
		return nil, errIncompressible
	}
	return out[:n], nil
}

func (LZ4) Uncompress(inp []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(inp, out)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 uncompress")
	}
	if n != size {
		return nil, errors.Errorf("lz4 uncompress: got %d bytes, want %d", n, size)
	}
	return out, nil
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Zstd is zstd compression at the default level.
type Zstd struct{}

func (Zstd) Tag() Tag { return TagZstd }

// A 3-byte RLE block header stands for at most 128KiB of output.
func (Zstd) MaxUncompressed(n int) uint64 { return (1<<16)*uint64(n) + 1<<17 }

func (Zstd) Compress(inp []byte) ([]byte, error) {
	out := zstdEncoder.EncodeAll(inp, nil)
	if len(out) >= len(inp) {
		return nil, errIncompressible
	}
	return out, nil
}

func (Zstd) Uncompress(inp []byte, size int) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(inp, make([]byte, 0, size))
	if err != nil {
		return nil, errors.Wrap(err, "zstd uncompress")
	}
	if len(out) != size {
		return nil, errors.Errorf("zstd uncompress: got %d bytes, want %d", len(out), size)
	}
	return out, nil
}

var compressors = map[Tag]Compressor{
	TagLZ4:  LZ4{},
	TagZstd: Zstd{},
}

// ByName returns the Compressor with the given name ("lz4" or "zstd").
func ByName(name string) (Compressor, error) {
	for _, c := range compressors {
		if c.Tag().String() == name {
			return c, nil
		}
	}
	return nil, errors.Errorf("unknown compressor %q", name)
}
