package ogg

import (
	"encoding/binary"
	"fmt"

	"github.com/simonhull/audiolib/internal/types"
	"github.com/simonhull/audiolib/internal/vorbis"
)

// parseOpusHead parses the OpusHead identification header.
//
// Opus always decodes at 48kHz regardless of the input sample rate, which
// is informational only.
func parseOpusHead(data []byte, file *types.File) error {
	if len(data) < 19 {
		return fmt.Errorf("OpusHead packet too short: %d bytes (need at least 19)", len(data))
	}
	if string(data[0:8]) != "OpusHead" {
		return fmt.Errorf("invalid OpusHead magic: %q", string(data[0:8]))
	}

	// Major version 0 is the only one defined; minor versions are compatible.
	if version := data[8]; version>>4 != 0 {
		return fmt.Errorf("unsupported Opus version: %d", version)
	}

	channels := data[9]
	inputSampleRate := binary.LittleEndian.Uint32(data[12:16])
	outputGain := int16(binary.LittleEndian.Uint16(data[16:18]))

	file.Audio.Codec = "Opus"
	file.Audio.Container = containerOgg
	file.Audio.SampleRate = 48000
	file.Audio.Channels = int(channels)
	file.Audio.VBR = true

	if inputSampleRate != 48000 && inputSampleRate > 0 {
		file.Warn("technical", fmt.Sprintf("original sample rate was %d Hz (Opus outputs at 48 kHz)", inputSampleRate), 0)
	}
	if outputGain != 0 {
		file.Warn("technical", fmt.Sprintf("output gain: %.2f dB", float64(outputGain)/256.0), 0)
	}

	return nil
}

// decodeOpusTags decodes the OpusTags comment header, which is a Vorbis
// comment list behind an "OpusTags" marker.
func decodeOpusTags(data []byte, path string) (*vorbis.Block, error) {
	if len(data) < 8 || string(data[0:8]) != "OpusTags" {
		return nil, fmt.Errorf("not an OpusTags header")
	}
	return vorbis.Decode(data[8:], path)
}

// encodeOpusTags builds an OpusTags packet.
func encodeOpusTags(b *vorbis.Block) []byte {
	return append([]byte("OpusTags"), b.Encode()...)
}
