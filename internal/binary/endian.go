package binary

import "encoding/binary"

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian is used by MP4 atoms, ID3v2 frames and Ogg-less FLAC headers.
	BigEndian Endianness = iota

	// LittleEndian is used by Vorbis comments, Ogg page headers and RIFF chunks.
	LittleEndian
)

// ReadLE reads a numeric value of type T at the given offset using little-endian byte order.
//
// Example:
//
//	length, err := binary.ReadLE[uint32](sr, offset, "vorbis comment length")
func ReadLE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, LittleEndian)
}

// ReadBE reads a numeric value of type T at the given offset using big-endian byte order.
func ReadBE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// ReadEndian reads a numeric value of type T at the given offset with specified byte order.
func ReadEndian[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string, endian Endianness) (T, error) {
	var zero T

	buf := make([]byte, sizeOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		return zero, err
	}

	return decode[T](buf, endian), nil
}

func order(endian Endianness) binary.ByteOrder {
	if endian == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func decode[T uint8 | uint16 | uint32 | uint64](buf []byte, endian Endianness) T {
	bo := order(endian)
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(bo.Uint16(buf))
	case uint32:
		return T(bo.Uint32(buf))
	default:
		return T(bo.Uint64(buf))
	}
}

func encode[T uint8 | uint16 | uint32 | uint64](val T, endian Endianness) []byte {
	bo := order(endian)
	buf := make([]byte, sizeOf[T]())
	switch len(buf) {
	case 1:
		buf[0] = byte(val)
	case 2:
		bo.PutUint16(buf, uint16(val))
	case 4:
		bo.PutUint32(buf, uint32(val))
	default:
		bo.PutUint64(buf, uint64(val))
	}
	return buf
}
