package m4a

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// mediaPayload is the mdat content; chunk offsets must keep pointing at it.
const mediaPayload = "AUDIODATA-AUDIODATA"

// createMockAtom creates a test atom with given type and data.
func createMockAtom(atomType string, data ...[]byte) []byte {
	buf := &bytes.Buffer{}
	size := 8
	for _, d := range data {
		size += len(d)
	}
	binary.Write(buf, binary.BigEndian, uint32(size))
	buf.WriteString(atomType)
	for _, d := range data {
		buf.Write(d)
	}
	return buf.Bytes()
}

// fullAtom prefixes zero version/flags.
func fullAtom(atomType string, data ...[]byte) []byte {
	return createMockAtom(atomType, append([][]byte{{0, 0, 0, 0}}, data...)...)
}

func dataAtom(kind uint32, payload []byte) []byte {
	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header, kind)
	return createMockAtom("data", header, payload)
}

func textItem(itemType, value string) []byte {
	return createMockAtom(itemType, dataAtom(dataUTF8, []byte(value)))
}

func freeformItem(name, value string) []byte {
	return createMockAtom("----",
		fullAtom("mean", []byte(itunesMean)),
		fullAtom("name", []byte(name)),
		dataAtom(dataUTF8, []byte(value)))
}

func pairItem(itemType string, n, m uint16) []byte {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint16(payload[2:], n)
	binary.BigEndian.PutUint16(payload[4:], m)
	if itemType == "disk" {
		payload = payload[:6]
	}
	return createMockAtom(itemType, dataAtom(dataImplicit, payload))
}

func coverItem(kind uint32, images ...[]byte) []byte {
	var body [][]byte
	for _, img := range images {
		body = append(body, dataAtom(kind, img))
	}
	return createMockAtom("covr", body...)
}

// mvhdAtom builds a version 0 movie header.
func mvhdAtom(timescale, duration uint32) []byte {
	body := make([]byte, 96)
	binary.BigEndian.PutUint32(body[12:], timescale)
	binary.BigEndian.PutUint32(body[16:], duration)
	return createMockAtom("mvhd", body)
}

// esdsAtom describes AAC-LC at 128 kbps, 44.1 kHz stereo.
func esdsAtom() []byte {
	decoderSpecific := []byte{0x05, 2, 0x12, 0x10}
	decoderConfig := []byte{0x04, byte(13 + len(decoderSpecific)), 0x40, 0x15, 0, 0, 0}
	decoderConfig = binary.BigEndian.AppendUint32(decoderConfig, 160000)
	decoderConfig = binary.BigEndian.AppendUint32(decoderConfig, 128000)
	decoderConfig = append(decoderConfig, decoderSpecific...)
	sl := []byte{0x06, 1, 2}
	es := []byte{0x03, byte(3 + len(decoderConfig) + len(sl)), 0, 1, 0}
	es = append(es, decoderConfig...)
	es = append(es, sl...)
	return fullAtom("esds", es)
}

func mp4aEntry() []byte {
	body := make([]byte, 28)
	binary.BigEndian.PutUint16(body[6:], 1)   // data reference index
	binary.BigEndian.PutUint16(body[16:], 2)  // channels
	binary.BigEndian.PutUint16(body[18:], 16) // sample size
	binary.BigEndian.PutUint32(body[24:], 44100<<16)
	return createMockAtom("mp4a", body, esdsAtom())
}

func soundTrak(chunkOffset uint32) []byte {
	hdlr := fullAtom("hdlr", []byte{0, 0, 0, 0}, []byte("soun"), make([]byte, 13))
	stsd := fullAtom("stsd", []byte{0, 0, 0, 1}, mp4aEntry())
	stco := fullAtom("stco", []byte{0, 0, 0, 1}, binary.BigEndian.AppendUint32(nil, chunkOffset))
	stbl := createMockAtom("stbl", stsd, stco)
	minf := createMockAtom("minf", stbl)
	mdia := createMockAtom("mdia", hdlr, minf)
	return createMockAtom("trak", mdia)
}

// udtaAtom wraps items in udta/meta/ilst. It returns nil without items.
func udtaAtom(items ...[]byte) []byte {
	if items == nil {
		return nil
	}
	hdlr := fullAtom("hdlr", []byte{0, 0, 0, 0}, []byte("mdirappl"), make([]byte, 9))
	ilst := createMockAtom("ilst", items...)
	return createMockAtom("udta", fullAtom("meta", hdlr, ilst))
}

func ftypAtom(brand string) []byte {
	return createMockAtom("ftyp", []byte(brand), []byte{0, 0, 0, 0}, []byte(brand), []byte("isom"))
}

// buildM4A assembles ftyp, moov and mdat with moov ahead of the media so
// that metadata edits move the chunk offsets.
func buildM4A(brand string, items ...[]byte) []byte {
	ftyp := ftypAtom(brand)
	moov := func(offset uint32) []byte {
		return createMockAtom("moov", mvhdAtom(1000, 180500), soundTrak(offset), udtaAtom(items...))
	}
	mediaStart := uint32(len(ftyp) + len(moov(0)) + 8)
	out := append([]byte{}, ftyp...)
	out = append(out, moov(mediaStart)...)
	return append(out, createMockAtom("mdat", []byte(mediaPayload))...)
}

func writeM4A(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.m4a")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
