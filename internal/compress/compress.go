package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores data as-is.
	None Type = 0
	// LZ4 uses LZ4 block compression (fast, lower ratio).
	LZ4 Type = 1
	// ZSTD uses ZSTD compression (better ratio).
	ZSTD Type = 2
)

// String returns the configuration name of the type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Parse maps a configuration name to a Type.
func Parse(name string) (Type, error) {
	switch name {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("compress: unknown type %q", name)
	}
}

var (
	// ErrCorrupt is returned when a block header does not match its payload.
	ErrCorrupt = errors.New("compress: corrupt block")
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block layout: [type uint8][uncompressed uint32][stored uint32][payload].
// A block whose type byte is None carries the raw data.
const headerSize = 9

// Encode compresses data with typ and prefixes the block header.
// Data that does not shrink below 90% of its size is stored raw.
func Encode(data []byte, typ Type) ([]byte, error) {
	var payload []byte
	stored := None

	switch typ {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		payload, stored = buf[:n], LZ4
	case ZSTD:
		enc := getZstdEncoder()
		payload, stored = enc.EncodeAll(data, nil), ZSTD
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("compress: unknown type %d", typ)
	}

	if stored == None || len(payload) == 0 || float64(len(payload)) > float64(len(data))*0.9 {
		payload, stored = data, None
	}

	out := make([]byte, headerSize+len(payload))
	out[0] = byte(stored)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[5:], uint32(len(payload)))
	copy(out[headerSize:], payload)
	return out, nil
}

// Decode reverses Encode. The algorithm is read from the block header.
func Decode(block []byte) ([]byte, error) {
	if len(block) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(block))
	}
	typ := Type(block[0])
	size := binary.LittleEndian.Uint32(block[1:])
	stored := binary.LittleEndian.Uint32(block[5:])
	if uint64(len(block)-headerSize) < uint64(stored) {
		return nil, fmt.Errorf("%w: payload truncated", ErrCorrupt)
	}
	payload := block[headerSize : headerSize+int(stored)]

	switch typ {
	case None:
		if stored != size {
			return nil, fmt.Errorf("%w: raw size mismatch", ErrCorrupt)
		}
		out := make([]byte, size)
		copy(out, payload)
		return out, nil
	case LZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if uint32(len(out)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %d", ErrCorrupt, typ)
	}
}
