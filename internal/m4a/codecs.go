package m4a

import (
	"github.com/simonhull/audiolib/internal/binary"
)

// codecNames maps MP4 codec FourCC codes to human-readable names.
var codecNames = map[string]string{
	// AAC Family
	"mp4a": "AAC",
	"mhm1": "xHE-AAC",
	"mhm2": "xHE-AAC v2",

	// Dolby Family
	"ac-3": "AC-3",
	"ec-3": "E-AC-3",
	"ac-4": "AC-4",

	// Lossless
	"alac": "ALAC",
	"flac": "FLAC",

	// Other
	"Opus": "Opus",
	"opus": "Opus",
	"mp3 ": "MP3",
	".mp3": "MP3",
}

var losslessCodecs = map[string]bool{
	"alac": true,
	"flac": true,
}

// aacProfiles maps AAC Audio Object Types to profile names.
var aacProfiles = map[uint8]string{
	1:  "AAC Main",
	2:  "AAC",
	3:  "AAC-SSR",
	4:  "AAC-LTP",
	5:  "HE-AAC",
	6:  "AAC Scalable",
	29: "HE-AAC v2",
	42: "xHE-AAC",
}

// codecName converts a FourCC codec identifier to a human-readable name.
func codecName(fourCC string) string {
	if name, ok := codecNames[fourCC]; ok {
		return name
	}
	return fourCC
}

type esdsDetails struct {
	profile    string
	avgBitrate int
}

// parseESDS looks for the esds child of an mp4a sample entry in
// [start, end) and decodes the AAC profile and average bitrate.
func parseESDS(sr *binary.SafeReader, start, end int64) esdsDetails {
	esds, err := findAtom(sr, start, end, "esds")
	if err != nil || esds.DataSize() < 4 || esds.DataSize() > 4096 {
		return esdsDetails{}
	}
	// Skip version and flags.
	data, err := sr.Bytes(esds.DataOffset()+4, int(esds.DataSize())-4, "esds data")
	if err != nil {
		return esdsDetails{}
	}
	return parseESDescriptors(data)
}

// parseESDescriptors walks ES_Descriptor (0x03) -> DecoderConfigDescriptor
// (0x04) -> DecoderSpecificInfo (0x05).
func parseESDescriptors(data []byte) esdsDetails {
	var out esdsDetails
	pos := 0

	readHeader := func() (tag byte, size int, ok bool) {
		if pos >= len(data) {
			return 0, 0, false
		}
		tag = data[pos]
		pos++
		for range 4 {
			if pos >= len(data) {
				return 0, 0, false
			}
			b := data[pos]
			pos++
			size = size<<7 | int(b&0x7F)
			if b&0x80 == 0 {
				break
			}
		}
		return tag, size, true
	}

	tag, _, ok := readHeader()
	if !ok || tag != 0x03 {
		return out
	}
	if pos+3 > len(data) {
		return out
	}
	flags := data[pos+2]
	pos += 3 // ES_ID and flags
	if flags&0x80 != 0 {
		pos += 2 // dependsOn_ES_ID
	}
	if flags&0x40 != 0 && pos < len(data) {
		pos += 1 + int(data[pos]) // URL
	}
	if flags&0x20 != 0 {
		pos += 2 // OCR_ES_Id
	}

	tag, _, ok = readHeader()
	if !ok || tag != 0x04 || pos+13 > len(data) {
		return out
	}
	// objectTypeIndication (1) streamType (1) bufferSizeDB (3) maxBitrate (4) avgBitrate (4)
	out.avgBitrate = int(binary.Get[uint32](data, pos+9, binary.BigEndian))
	pos += 13

	tag, _, ok = readHeader()
	if !ok || tag != 0x05 || pos >= len(data) {
		return out
	}
	aot := data[pos] >> 3
	if aot == 31 && pos+1 < len(data) {
		aot = 32 + (data[pos]&0x07)<<3 | data[pos+1]>>5
	}
	out.profile = aacProfiles[aot]
	return out
}
