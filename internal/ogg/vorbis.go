package ogg

import (
	"encoding/binary"
	"fmt"

	"github.com/simonhull/audiolib/internal/types"
	"github.com/simonhull/audiolib/internal/vorbis"
)

// parseVorbisIdentification parses the Vorbis identification header (packet type 0x01).
func parseVorbisIdentification(data []byte, file *types.File) error {
	if len(data) < 30 {
		return fmt.Errorf("identification header too short: %d bytes", len(data))
	}
	if data[0] != 0x01 || string(data[1:7]) != codecVorbis {
		return fmt.Errorf("not a Vorbis identification header")
	}

	vorbisVersion := binary.LittleEndian.Uint32(data[7:11])
	if vorbisVersion != 0 {
		return fmt.Errorf("unsupported Vorbis version: %d", vorbisVersion)
	}

	channels := data[11]
	sampleRate := binary.LittleEndian.Uint32(data[12:16])
	bitrateNominal := binary.LittleEndian.Uint32(data[20:24])

	file.Audio.Codec = "Vorbis"
	file.Audio.Container = containerOgg
	file.Audio.SampleRate = int(sampleRate)
	file.Audio.Channels = int(channels)
	file.Audio.Bitrate = int(bitrateNominal)
	file.Audio.VBR = true

	return nil
}

// decodeVorbisComment decodes the Vorbis comment header (packet type 0x03).
// The comment list is shared with FLAC; the packet adds a type byte, the
// "vorbis" marker and a trailing framing bit.
func decodeVorbisComment(data []byte, path string) (*vorbis.Block, error) {
	if len(data) < 7 || data[0] != 0x03 || string(data[1:7]) != codecVorbis {
		return nil, fmt.Errorf("not a Vorbis comment header")
	}
	return vorbis.Decode(data[7:], path)
}

// encodeVorbisComment builds a Vorbis comment header packet.
func encodeVorbisComment(b *vorbis.Block) []byte {
	out := append([]byte{0x03}, codecVorbis...)
	out = append(out, b.Encode()...)
	return append(out, 0x01) // framing bit
}
