package audiolib

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/require"
)

// writeFixture stores data under name in a fresh temp dir.
func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// mpegFrames returns n MPEG1 Layer III frames at 128 kbps, 44.1 kHz,
// stereo, each 417 bytes long.
func mpegFrames(n int) []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	return bytes.Repeat(frame, n)
}

// buildMP3 writes an ID3v2.4 tag filled by build ahead of 40 MPEG frames.
func buildMP3(t *testing.T, build func(tag *id3v2.Tag)) string {
	t.Helper()
	tag := id3v2.NewEmptyTag()
	tag.SetVersion(4)
	if build != nil {
		build(tag)
	}
	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)
	buf.Write(mpegFrames(40))
	return writeFixture(t, "song.mp3", buf.Bytes())
}

// buildFLAC writes a one-second 44.1 kHz mono FLAC stream carrying
// comments ("KEY=VALUE").
func buildFLAC(t *testing.T, comments ...string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	buf.WriteString("fLaC")

	buf.Write([]byte{0x00, 0x00, 0x00, 0x22})
	binary.Write(buf, binary.BigEndian, uint16(4096))
	binary.Write(buf, binary.BigEndian, uint16(4096))
	buf.Write(make([]byte, 6))
	packed := uint64(44100)<<44 | uint64(0)<<41 | uint64(15)<<36 | uint64(44100)
	binary.Write(buf, binary.BigEndian, packed)
	buf.Write(make([]byte, 16))

	block := &bytes.Buffer{}
	vendor := "audiolib test"
	binary.Write(block, binary.LittleEndian, uint32(len(vendor)))
	block.WriteString(vendor)
	binary.Write(block, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(block, binary.LittleEndian, uint32(len(c)))
		block.WriteString(c)
	}
	n := block.Len()
	buf.Write([]byte{0x84, byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(block.Bytes())
	buf.Write([]byte{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00, 0x00, 0x00})
	return writeFixture(t, "song.flac", buf.Bytes())
}

func atom(kind string, data ...[]byte) []byte {
	size := 8
	for _, d := range data {
		size += len(d)
	}
	out := binary.BigEndian.AppendUint32(nil, uint32(size))
	out = append(out, kind...)
	for _, d := range data {
		out = append(out, d...)
	}
	return out
}

func fullAtom(kind string, data ...[]byte) []byte {
	return atom(kind, append([][]byte{{0, 0, 0, 0}}, data...)...)
}

func mp4Item(kind string, dataType uint32, payload []byte) []byte {
	header := binary.BigEndian.AppendUint32(nil, dataType)
	header = append(header, 0, 0, 0, 0)
	return atom(kind, atom("data", header, payload))
}

func mp4Text(kind, value string) []byte { return mp4Item(kind, 1, []byte(value)) }

// buildM4A writes a 180.5 second AAC file with the ilst items and the
// media after moov.
func buildM4A(t *testing.T, items ...[]byte) string {
	t.Helper()
	ftyp := atom("ftyp", []byte("M4A "), []byte{0, 0, 0, 0}, []byte("M4A "), []byte("isom"))

	mvhd := make([]byte, 96)
	binary.BigEndian.PutUint32(mvhd[12:], 1000)
	binary.BigEndian.PutUint32(mvhd[16:], 180500)

	entry := make([]byte, 28)
	binary.BigEndian.PutUint16(entry[6:], 1)
	binary.BigEndian.PutUint16(entry[16:], 2)
	binary.BigEndian.PutUint16(entry[18:], 16)
	binary.BigEndian.PutUint32(entry[24:], 44100<<16)

	trak := func(offset uint32) []byte {
		hdlr := fullAtom("hdlr", []byte{0, 0, 0, 0}, []byte("soun"), make([]byte, 13))
		stsd := fullAtom("stsd", []byte{0, 0, 0, 1}, atom("mp4a", entry))
		stco := fullAtom("stco", []byte{0, 0, 0, 1}, binary.BigEndian.AppendUint32(nil, offset))
		return atom("trak", atom("mdia", hdlr, atom("minf", atom("stbl", stsd, stco))))
	}
	var udta []byte
	if items != nil {
		hdlr := fullAtom("hdlr", []byte{0, 0, 0, 0}, []byte("mdirappl"), make([]byte, 9))
		udta = atom("udta", fullAtom("meta", hdlr, atom("ilst", items...)))
	}
	moov := func(offset uint32) []byte {
		return atom("moov", atom("mvhd", mvhd), trak(offset), udta)
	}

	start := uint32(len(ftyp) + len(moov(0)) + 8)
	out := append([]byte{}, ftyp...)
	out = append(out, moov(start)...)
	out = append(out, atom("mdat", []byte("AUDIODATA"))...)
	return writeFixture(t, "song.m4a", out)
}
