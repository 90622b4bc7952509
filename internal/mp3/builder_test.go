package mp3

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// encodeSynchsafe is the inverse of decodeSynchsafe.
func encodeSynchsafe(n int) []byte {
	return []byte{byte(n>>21) & 0x7F, byte(n>>14) & 0x7F, byte(n>>7) & 0x7F, byte(n) & 0x7F}
}

// buildTag assembles an ID3v2 tag of the given major version from frame
// bodies keyed by ID, in order.
func buildTag(version byte, frames ...rawFrame) []byte {
	var body bytes.Buffer
	for _, f := range frames {
		switch version {
		case 2:
			body.WriteString(f.id)
			n := len(f.data)
			body.Write([]byte{byte(n >> 16), byte(n >> 8), byte(n)})
		case 3:
			body.WriteString(f.id)
			binary.Write(&body, binary.BigEndian, uint32(len(f.data)))
			body.Write([]byte{0, 0})
		default:
			body.WriteString(f.id)
			body.Write(encodeSynchsafe(len(f.data)))
			body.Write([]byte{0, 0})
		}
		body.Write(f.data)
	}
	body.Write(make([]byte, 16)) // padding

	var tag bytes.Buffer
	tag.WriteString("ID3")
	tag.Write([]byte{version, 0, 0})
	tag.Write(encodeSynchsafe(body.Len()))
	tag.Write(body.Bytes())
	return tag.Bytes()
}

type rawFrame struct {
	id   string
	data []byte
}

func textFrame(id, text string) rawFrame {
	return rawFrame{id, append([]byte{encUTF8}, text...)}
}

func describedFrame(id, desc, text string) rawFrame {
	data := []byte{encUTF8}
	if id == "COMM" || id == "USLT" {
		data = append(data, "eng"...)
	}
	data = append(data, desc...)
	data = append(data, 0)
	data = append(data, text...)
	return rawFrame{id, data}
}

func popmFrame(email string, rating byte, counter uint32) rawFrame {
	data := append([]byte(email), 0, rating)
	data = binary.BigEndian.AppendUint32(data, counter)
	return rawFrame{"POPM", data}
}

// mpegFrames returns n MPEG1 Layer III frames at 128 kbps, 44.1 kHz,
// stereo, each 417 bytes long.
func mpegFrames(n int) []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	return bytes.Repeat(frame, n)
}

// id3v1Tag builds a 128-byte ID3v1.1 tag.
func id3v1Tag(title, artist, album, year string, track, genre byte) []byte {
	b := make([]byte, 128)
	copy(b, "TAG")
	copy(b[3:33], title)
	copy(b[33:63], artist)
	copy(b[63:93], album)
	copy(b[93:97], year)
	b[125] = 0
	b[126] = track
	b[127] = genre
	return b
}

func writeMP3(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
