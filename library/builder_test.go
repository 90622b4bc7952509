package library

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// flacBytes builds a one-second FLAC stream carrying comments
// ("KEY=VALUE").
func flacBytes(comments ...string) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("fLaC")
	buf.Write([]byte{0x00, 0x00, 0x00, 0x22})
	binary.Write(buf, binary.BigEndian, uint16(4096))
	binary.Write(buf, binary.BigEndian, uint16(4096))
	buf.Write(make([]byte, 6))
	binary.Write(buf, binary.BigEndian, uint64(44100)<<44|uint64(15)<<36|uint64(44100))
	buf.Write(make([]byte, 16))

	block := &bytes.Buffer{}
	binary.Write(block, binary.LittleEndian, uint32(4))
	block.WriteString("test")
	binary.Write(block, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(block, binary.LittleEndian, uint32(len(c)))
		block.WriteString(c)
	}
	n := block.Len()
	buf.Write([]byte{0x84, byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(block.Bytes())
	buf.Write([]byte{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00, 0x00, 0x00})
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
