package binary

import (
	"io"
)

// SafeWriter wraps io.Writer with position tracking. The first write error
// sticks: later writes are skipped and Err reports it, so editors can build
// a whole structure and check once.
type SafeWriter struct {
	w      io.Writer
	err    error
	offset int64
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// Err returns the first error encountered.
func (sw *SafeWriter) Err() error {
	return sw.err
}

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	if sw.err != nil {
		return sw.err
	}
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	sw.err = err
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// Write writes a value of type T in big-endian byte order.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return sw.WriteBytes(encode(val, BigEndian))
}

// WriteLE writes a value of type T in little-endian byte order.
func WriteLE[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return sw.WriteBytes(encode(val, LittleEndian))
}

// Put overwrites len(T) bytes of b at off with val in the given byte order.
// It is used to patch size fields after a structure has been rebuilt.
func Put[T uint8 | uint16 | uint32 | uint64](b []byte, off int, val T, endian Endianness) {
	copy(b[off:], encode(val, endian))
}

// Get decodes a value of type T from b at off in the given byte order.
// The caller guarantees b is long enough.
func Get[T uint8 | uint16 | uint32 | uint64](b []byte, off int, endian Endianness) T {
	return decode[T](b[off:off+sizeOf[T]()], endian)
}
