package wav

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func riffChunk(id string, body []byte) []byte {
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

// fmtChunk describes 8 kHz mono 8-bit PCM: 8000 bytes per second.
func fmtChunk() []byte {
	body := binary.LittleEndian.AppendUint16(nil, formatPCM)
	body = binary.LittleEndian.AppendUint16(body, 1)
	body = binary.LittleEndian.AppendUint32(body, 8000)
	body = binary.LittleEndian.AppendUint32(body, 8000)
	body = binary.LittleEndian.AppendUint16(body, 1)
	body = binary.LittleEndian.AppendUint16(body, 8)
	return riffChunk("fmt ", body)
}

// audioSamples is half a second of the fmt chunk's format.
func audioSamples() []byte {
	samples := make([]byte, 4000)
	for i := range samples {
		samples[i] = byte(i)
	}
	return samples
}

func infoChunk(pairs ...string) []byte {
	var entries []infoEntry
	for i := 0; i+1 < len(pairs); i += 2 {
		entries = append(entries, infoEntry{id: pairs[i], value: pairs[i+1]})
	}
	return riffChunk("LIST", encodeInfo(entries))
}

func id3Chunk(t *testing.T, build func(tag *id3v2.Tag)) []byte {
	t.Helper()
	tag := id3v2.NewEmptyTag()
	tag.SetVersion(4)
	build(tag)
	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return riffChunk("id3 ", buf.Bytes())
}

func buildWAV(chunks ...[]byte) []byte {
	var body []byte
	body = append(body, "WAVE"...)
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func writeWAV(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
