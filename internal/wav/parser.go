package wav

import (
	"fmt"
	"io"
	"time"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/mp3"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

// WAVE format tags
const (
	formatPCM        = 0x0001
	formatIEEEFloat  = 0x0003
	formatALaw       = 0x0006
	formatMuLaw      = 0x0007
	formatMPEG       = 0x0050
	formatMPEGLayer3 = 0x0055
	formatExtensible = 0xFFFE
)

var formatNames = map[uint16]string{
	formatPCM:        "PCM",
	formatIEEEFloat:  "IEEE Float",
	formatALaw:       "A-law",
	formatMuLaw:      "µ-law",
	formatMPEG:       "MPEG",
	formatMPEGLayer3: "MP3",
}

// parser implements registry.FormatParser for WAV files
type parser struct{}

// Parse reads the fmt and data chunks, LIST/INFO entries and an embedded
// ID3v2 tag. When both tag kinds are present the ID3 tag decides the
// file's tag dialect; INFO entries stay visible under their own keys.
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binary.NewSafeReader(r, size, path)

	file := &types.File{
		Path:    path,
		Format:  types.FormatWAV,
		Size:    size,
		TagKind: types.TagRIFFInfo,
	}
	file.Audio.Container = "WAV"

	chunks, truncated, err := readChunks(sr)
	if err != nil {
		return nil, err
	}

	var format wavFormat
	var dataSize int64
	for _, c := range chunks {
		switch {
		case c.id == "fmt ":
			body, err := sr.Bytes(c.bodyOffset(), int(c.size), "fmt chunk")
			if err == nil {
				format, err = parseFmt(body)
			}
			if err != nil {
				file.Warn("technical", fmt.Sprintf("failed to parse fmt chunk: %v", err), c.offset)
			}
		case c.id == "data":
			dataSize = c.size
			if truncated {
				file.Warn("technical", "data chunk is truncated", c.offset)
			}
		case c.id == "LIST":
			body, err := sr.Bytes(c.bodyOffset(), int(c.size), "LIST chunk")
			if err != nil {
				file.Warn("metadata", fmt.Sprintf("failed to read LIST chunk: %v", err), c.offset)
				continue
			}
			if !isInfoList(body) {
				continue
			}
			for _, e := range parseInfo(body) {
				file.Tags.Add(e.id, e.value)
			}
		case isID3Chunk(c.id):
			body, err := sr.Bytes(c.bodyOffset(), int(c.size), "id3 chunk")
			if err == nil {
				err = mp3.ParseTag(body, path, file)
			}
			if err != nil {
				file.Warn("metadata", fmt.Sprintf("failed to parse ID3 chunk: %v", err), c.offset)
				continue
			}
			file.TagKind = types.TagID3v2
		}
	}

	format.apply(&file.Audio, dataSize)
	return file, nil
}

// ExtractArtwork returns the pictures of an embedded ID3 tag.
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	sr := binary.NewSafeReader(r, size, path)
	chunks, _, err := readChunks(sr)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if !isID3Chunk(c.id) {
			continue
		}
		body, err := sr.Bytes(c.bodyOffset(), int(c.size), "id3 chunk")
		if err != nil {
			return nil, err
		}
		return mp3.TagPictures(body, path), nil
	}
	return nil, nil
}

// wavFormat is the decoded fmt chunk.
type wavFormat struct {
	tag           uint16
	channels      int
	sampleRate    int
	byteRate      int
	bitsPerSample int
}

// parseFmt decodes a fmt chunk body:
// [2] format tag [2] channels [4] sample rate [4] byte rate
// [2] block align [2] bits per sample [2] extension size [...]
// WAVE_FORMAT_EXTENSIBLE carries the real format tag at the start of its
// sub-format GUID, 24 bytes into the body.
func parseFmt(body []byte) (wavFormat, error) {
	if len(body) < 16 {
		return wavFormat{}, fmt.Errorf("fmt chunk too short: %d bytes", len(body))
	}
	f := wavFormat{
		tag:           binary.Get[uint16](body, 0, binary.LittleEndian),
		channels:      int(binary.Get[uint16](body, 2, binary.LittleEndian)),
		sampleRate:    int(binary.Get[uint32](body, 4, binary.LittleEndian)),
		byteRate:      int(binary.Get[uint32](body, 8, binary.LittleEndian)),
		bitsPerSample: int(binary.Get[uint16](body, 14, binary.LittleEndian)),
	}
	if f.tag == formatExtensible && len(body) >= 26 {
		f.tag = binary.Get[uint16](body, 24, binary.LittleEndian)
	}
	return f, nil
}

func (f wavFormat) apply(audio *types.AudioInfo, dataSize int64) {
	if f.tag == 0 {
		return
	}
	audio.Codec = formatNames[f.tag]
	if audio.Codec == "" {
		audio.Codec = fmt.Sprintf("WAVE format 0x%04X", f.tag)
	}
	audio.Channels = f.channels
	audio.SampleRate = f.sampleRate
	audio.Bitrate = f.byteRate * 8
	audio.Lossless = f.tag == formatPCM || f.tag == formatIEEEFloat
	if audio.Lossless {
		audio.BitDepth = f.bitsPerSample
	}
	if f.byteRate > 0 {
		audio.Duration = time.Duration(float64(dataSize) / float64(f.byteRate) * float64(time.Second))
	}
}

// init registers the WAV parser and editor
func init() {
	registry.Register(types.FormatWAV, &parser{})
	registry.RegisterEditor(types.FormatWAV, openEditor)
}
