package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/simonhull/audiolib/internal/types"
)

// mockReader implements io.ReaderAt for testing.
type mockReader struct {
	data []byte
}

func (m *mockReader) ReadAt(p []byte, off int64) (n int, err error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func TestSafeReader_ReadAt_Success(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	sr := NewSafeReader(&mockReader{data: data}, int64(len(data)), "test.m4a")

	buf := make([]byte, 2)
	if err := sr.ReadAt(buf, 0, "test read"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if buf[0] != 0x01 || buf[1] != 0x02 {
		t.Errorf("expected [0x01, 0x02], got [0x%02x, 0x%02x]", buf[0], buf[1])
	}
}

func TestSafeReader_ReadAt_OutOfBounds(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	sr := NewSafeReader(&mockReader{data: data}, int64(len(data)), "test.m4a")

	tests := []struct {
		name   string
		offset int64
		length int
	}{
		{"offset past end", 10, 2},
		{"read crosses end", 3, 2},
		{"negative offset", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sr.ReadAt(make([]byte, tt.length), tt.offset, "bounded read")
			var oob *types.OutOfBoundsError
			if !errors.As(err, &oob) {
				t.Fatalf("expected OutOfBoundsError, got %v", err)
			}
			if !strings.Contains(err.Error(), "test.m4a") || !strings.Contains(err.Error(), "bounded read") {
				t.Errorf("error should name file and context: %v", err)
			}
		})
	}
}

func TestSafeReader_Bytes(t *testing.T) {
	data := []byte("abcdef")
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "test")

	got, err := sr.Bytes(2, 3, "slice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "cde" {
		t.Errorf("Bytes() = %q, want %q", got, "cde")
	}

	empty, err := sr.Bytes(6, 0, "empty")
	if err != nil || len(empty) != 0 {
		t.Errorf("zero-length read = %v, %v", empty, err)
	}

	if _, err := sr.Bytes(0, -1, "negative"); err == nil {
		t.Error("expected error for negative length")
	}
}

func TestRead_BigEndian(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	sr := NewSafeReader(&mockReader{data: data}, int64(len(data)), "test")

	v8, _ := Read[uint8](sr, 0, "u8")
	v16, _ := Read[uint16](sr, 0, "u16")
	v32, _ := Read[uint32](sr, 0, "u32")
	v64, _ := Read[uint64](sr, 0, "u64")

	if v8 != 0x01 || v16 != 0x0102 || v32 != 0x01020304 || v64 != 0x0102030405060708 {
		t.Errorf("unexpected values: %x %x %x %x", v8, v16, v32, v64)
	}
}

func TestReadLE(t *testing.T) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint16(513))
	binary.Write(buf, binary.LittleEndian, uint32(67305985))
	binary.Write(buf, binary.LittleEndian, uint64(578437695752307201))

	data := buf.Bytes()
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.wav")

	v16, err := ReadLE[uint16](sr, 0, "uint16")
	if err != nil || v16 != 513 {
		t.Errorf("ReadLE[uint16] = %d, %v", v16, err)
	}
	v32, err := ReadLE[uint32](sr, 2, "uint32")
	if err != nil || v32 != 67305985 {
		t.Errorf("ReadLE[uint32] = %d, %v", v32, err)
	}
	v64, err := ReadLE[uint64](sr, 6, "uint64")
	if err != nil || v64 != 578437695752307201 {
		t.Errorf("ReadLE[uint64] = %d, %v", v64, err)
	}
}

func TestReader_Sequential(t *testing.T) {
	data := []byte{0x01, 0x00, 0x02, 0x03, 0x00, 'a', 'b', 'c'}
	sr := NewSafeReader(&mockReader{data: data}, int64(len(data)), "test")
	r := NewReader(sr, 0)

	b, err := ReadValue[uint8](r, "byte")
	if err != nil || b != 0x01 {
		t.Fatalf("ReadValue[uint8] = %d, %v", b, err)
	}
	be, err := ReadValue[uint16](r, "be16")
	if err != nil || be != 0x0002 {
		t.Fatalf("ReadValue[uint16] = %d, %v", be, err)
	}
	le, err := ReadValueLE[uint16](r, "le16")
	if err != nil || le != 0x0003 {
		t.Fatalf("ReadValueLE[uint16] = %d, %v", le, err)
	}
	s, err := r.ReadString(3, "string")
	if err != nil || s != "abc" {
		t.Fatalf("ReadString = %q, %v", s, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
	if _, err := ReadValue[uint8](r, "past end"); err == nil {
		t.Error("expected error reading past end")
	}
}

func TestReader_Skip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(NewSafeReader(&mockReader{data: data}, int64(len(data)), "test"), 0)

	r.Skip(3)
	v, err := ReadValue[uint8](r, "after skip")
	if err != nil || v != 0x04 {
		t.Errorf("ReadValue after Skip = %d, %v", v, err)
	}
	if r.Offset() != 4 {
		t.Errorf("Offset() = %d, want 4", r.Offset())
	}
}

func TestUint(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		want  uint64
		valid bool
	}{
		{"one byte", []byte{80}, 80, true},
		{"two bytes", []byte{0x38, 0x30}, 14384, true},
		{"three bytes uses leading pair", []byte{0x31, 0x30, 0x30}, 12592, true},
		{"four bytes", []byte{0, 0, 0, 100}, 100, true},
		{"eight bytes", []byte{0, 0, 0, 0, 0, 0, 1, 0}, 256, true},
		{"empty", nil, 0, false},
		{"five bytes", []byte{1, 2, 3, 4, 5}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Uint(tt.in)
			if ok != tt.valid || got != tt.want {
				t.Errorf("Uint(%v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.valid)
			}
		})
	}
}

func BenchmarkRead_Uint32(b *testing.B) {
	data := make([]byte, 1024*1024)
	for i := 0; i < len(data); i += 4 {
		binary.BigEndian.PutUint32(data[i:], uint32(i))
	}
	sr := NewSafeReader(&mockReader{data: data}, int64(len(data)), "bench.m4a")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		offset := int64((i % (len(data) / 4)) * 4)
		_, _ = Read[uint32](sr, offset, "benchmark")
	}
}
