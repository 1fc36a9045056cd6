package raster

import (
	"encoding/binary"
	"math"
)

// Pixel words inside transfer buffers are little endian regardless of
// host order, so a raw dump of a buffer is portable.

// ReadWord decodes the word at the start of p as a float64.
func ReadWord(p []byte, t DataType) float64 {
	switch t {
	case TypeByte:
		return float64(p[0])
	case TypeInt16:
		return float64(int16(binary.LittleEndian.Uint16(p)))
	case TypeUInt16:
		return float64(binary.LittleEndian.Uint16(p))
	case TypeInt32:
		return float64(int32(binary.LittleEndian.Uint32(p)))
	case TypeUInt32:
		return float64(binary.LittleEndian.Uint32(p))
	case TypeFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case TypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	}
	return 0
}

// WriteWord encodes v at the start of p, clamping to the destination
// range. Fractions truncate toward zero rather than round, matching the
// numeric copy semantics of the surrounding raster pipeline.
func WriteWord(p []byte, t DataType, v float64) {
	switch t {
	case TypeByte:
		p[0] = byte(clampInt(v, 0, math.MaxUint8))
	case TypeInt16:
		binary.LittleEndian.PutUint16(p, uint16(int16(clampInt(v, math.MinInt16, math.MaxInt16))))
	case TypeUInt16:
		binary.LittleEndian.PutUint16(p, uint16(clampInt(v, 0, math.MaxUint16)))
	case TypeInt32:
		binary.LittleEndian.PutUint32(p, uint32(int32(clampInt(v, math.MinInt32, math.MaxInt32))))
	case TypeUInt32:
		binary.LittleEndian.PutUint32(p, uint32(clampInt(v, 0, math.MaxUint32)))
	case TypeFloat32:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	case TypeFloat64:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v))
	}
}

func clampInt(v, lo, hi float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		v = lo
	} else if v > hi {
		v = hi
	}
	return int64(v) // truncates toward zero
}

// CopyWords converts n words from src to dst, honoring per-word byte
// strides on both sides. Source and destination may differ in type;
// identical types still go through the same path for simplicity.
func CopyWords(dst []byte, dstType DataType, dstStride int, src []byte, srcType DataType, srcStride int, n int) {
	if dstType == srcType && dstStride == dstType.Size() && srcStride == srcType.Size() {
		copy(dst[:n*dstStride], src[:n*srcStride])
		return
	}
	for i := 0; i < n; i++ {
		v := ReadWord(src[i*srcStride:], srcType)
		WriteWord(dst[i*dstStride:], dstType, v)
	}
}
