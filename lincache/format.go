package lincache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/hupe1980/trickle/model"
)

const (
	recordsMagic   = 0x4C4B5254 // "TRKL"
	recordsVersion = 1
	headerSize     = 20
)

// ErrCorrupt is returned for blobs that fail validation.
var ErrCorrupt = errors.New("lincache: corrupt blob")

// encodeRecords writes records in a fixed-arity little-endian layout:
//
//	Magic (4 bytes)
//	Version (4 bytes)
//	Arity (4 bytes)
//	Count (4 bytes)
//	Checksum (4 bytes) - CRC32 of payload
//	Payload: Count*Arity float64 values
func encodeRecords(records []model.Record) ([]byte, error) {
	arity := 0
	if len(records) > 0 {
		arity = records[0].Arity()
	}
	buf := make([]byte, headerSize+len(records)*arity*8)
	payload := buf[headerSize:]
	off := 0
	for i, r := range records {
		if r.Arity() != arity {
			return nil, fmt.Errorf("lincache: record %d has arity %d, want %d", i, r.Arity(), arity)
		}
		for _, v := range r {
			binary.LittleEndian.PutUint64(payload[off:], math.Float64bits(v))
			off += 8
		}
	}

	binary.LittleEndian.PutUint32(buf[0:4], recordsMagic)
	binary.LittleEndian.PutUint32(buf[4:8], recordsVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(arity))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(records)))
	binary.LittleEndian.PutUint32(buf[16:20], crc32.ChecksumIEEE(payload))
	return buf, nil
}

func decodeRecords(buf []byte) ([]model.Record, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != recordsMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != recordsVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	arity := int(binary.LittleEndian.Uint32(buf[8:12]))
	count := int(binary.LittleEndian.Uint32(buf[12:16]))
	payload := buf[headerSize:]
	if len(payload) != arity*count*8 {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrCorrupt, len(payload), arity*count*8)
	}
	if crc32.ChecksumIEEE(payload) != binary.LittleEndian.Uint32(buf[16:20]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	// One backing array for all records.
	values := make([]float64, arity*count)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
	}
	out := make([]model.Record, count)
	for i := range out {
		out[i] = values[i*arity : (i+1)*arity : (i+1)*arity]
	}
	return out, nil
}
