package ogg

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	binutil "github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/vorbis"
)

const testSerial = 12345

func vorbisIDPacket() []byte {
	b := &bytes.Buffer{}
	b.WriteByte(0x01)
	b.WriteString("vorbis")
	binary.Write(b, binary.LittleEndian, uint32(0))      // version
	b.WriteByte(2)                                       // channels
	binary.Write(b, binary.LittleEndian, uint32(44100))  // sample rate
	binary.Write(b, binary.LittleEndian, uint32(0))      // bitrate maximum
	binary.Write(b, binary.LittleEndian, uint32(128000)) // bitrate nominal
	binary.Write(b, binary.LittleEndian, uint32(0))      // bitrate minimum
	b.WriteByte(0xB8)                                    // blocksizes
	b.WriteByte(0x01)                                    // framing
	return b.Bytes()
}

func opusHeadPacket() []byte {
	b := &bytes.Buffer{}
	b.WriteString("OpusHead")
	b.WriteByte(1)                                      // version
	b.WriteByte(2)                                      // channels
	binary.Write(b, binary.LittleEndian, uint16(312))   // pre-skip
	binary.Write(b, binary.LittleEndian, uint32(48000)) // input sample rate
	binary.Write(b, binary.LittleEndian, uint16(0))     // output gain
	b.WriteByte(0)                                      // mapping family
	return b.Bytes()
}

// buildStream builds a complete single-stream Ogg file with three audio
// pages of one second each.
func buildStream(codec string, comments ...string) []byte {
	block := &vorbis.Block{Vendor: "audiolib test", Comments: comments}

	var id []byte
	var headers [][]byte
	rate := int64(44100)
	if codec == codecOpus {
		id = opusHeadPacket()
		headers = [][]byte{encodeOpusTags(block)}
		rate = 48000
	} else {
		id = vorbisIDPacket()
		setup := append([]byte{0x05}, "vorbis"...)
		setup = append(setup, bytes.Repeat([]byte{0xAA}, 600)...)
		headers = [][]byte{encodeVorbisComment(block), setup}
	}

	var out bytes.Buffer
	first := paginate([][]byte{id}, testSerial, 0, 0)[0]
	first.HeaderType = flagBOS
	out.Write(first.Encode())

	seq := uint32(1)
	for _, p := range paginate(headers, testSerial, seq, 0) {
		out.Write(p.Encode())
		seq++
	}

	for i := range 3 {
		p := paginate([][]byte{audioPacket(i)}, testSerial, seq, int64(i+1)*rate)[0]
		if i == 2 {
			p.HeaderType |= flagEOS
		}
		out.Write(p.Encode())
		seq++
	}
	return out.Bytes()
}

func audioPacket(i int) []byte {
	return bytes.Repeat([]byte{byte(0x10 + i)}, 300)
}

// readAllPages decodes every page of data and checks each checksum.
func readAllPages(t *testing.T, data []byte) []*Page {
	t.Helper()
	sr := binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.ogg")

	var pages []*Page
	for off := int64(0); off < int64(len(data)); {
		page, next, err := readPage(sr, off)
		if err != nil {
			t.Fatalf("readPage at %d: %v", off, err)
		}
		raw := append([]byte(nil), data[off:next]...)
		copy(raw[22:26], []byte{0, 0, 0, 0})
		if got := checksum(raw); got != page.Checksum {
			t.Errorf("page %d: checksum %08x, stored %08x", len(pages), got, page.Checksum)
		}
		pages = append(pages, page)
		off = next
	}
	return pages
}

func writeOgg(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.ogg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// pictureBlock encodes a FLAC picture structure for a
// METADATA_BLOCK_PICTURE comment.
func pictureBlock(kind uint32, mime string, w, h uint32, data []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, kind)
	b = binary.BigEndian.AppendUint32(b, uint32(len(mime)))
	b = append(b, mime...)
	b = binary.BigEndian.AppendUint32(b, 0)
	b = binary.BigEndian.AppendUint32(b, w)
	b = binary.BigEndian.AppendUint32(b, h)
	b = binary.BigEndian.AppendUint32(b, 24)
	b = binary.BigEndian.AppendUint32(b, 0)
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	return append(b, data...)
}
