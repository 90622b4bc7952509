package registry

import (
	"io"
	"os"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

// DetectFormat determines the audio file format by examining magic bytes.
//
// Detection is based on file signatures at the beginning of the file and
// does not validate the rest of the structure.
func DetectFormat(r io.ReaderAt, size int64, path string) (types.Format, error) {
	if size < 4 {
		return types.FormatUnknown, &types.UnsupportedFormatError{Path: path, Reason: "file too small"}
	}

	sr := binary.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "file magic bytes"); err != nil {
		return types.FormatUnknown, &types.UnsupportedFormatError{Path: path, Reason: "failed to read file header"}
	}

	switch {
	case string(magic) == "fLaC":
		return types.FormatFLAC, nil
	case string(magic[:3]) == "ID3":
		return types.FormatMP3, nil
	case magic[0] == 0xFF && (magic[1]&0xE0) == 0xE0:
		// MPEG frame sync without an ID3v2 tag
		return types.FormatMP3, nil
	case string(magic) == "OggS":
		return detectOgg(sr), nil
	case string(magic) == "RIFF":
		if chunkType(sr, 8) == "WAVE" {
			return types.FormatWAV, nil
		}
	case string(magic) == "FORM":
		if t := chunkType(sr, 8); t == "AIFF" || t == "AIFC" {
			return types.FormatAIFF, nil
		}
	}

	return detectMP4(sr)
}

// detectOgg tells Opus from Vorbis by the first packet's magic.
// Ogg page header: 27 bytes fixed + segment table.
func detectOgg(sr *binary.SafeReader) types.Format {
	segCount, err := binary.Read[uint8](sr, 26, "segment count")
	if err != nil {
		return types.FormatOgg
	}
	codecMagic, err := sr.Bytes(int64(27+int(segCount)), 8, "codec magic")
	if err == nil && string(codecMagic) == "OpusHead" {
		return types.FormatOpus
	}
	return types.FormatOgg
}

func chunkType(sr *binary.SafeReader, off int64) string {
	b, err := sr.Bytes(off, 4, "form type")
	if err != nil {
		return ""
	}
	return string(b)
}

// detectMP4 checks for an ftyp atom and a known major brand.
func detectMP4(sr *binary.SafeReader) (types.Format, error) {
	path := sr.Path()
	unsupported := func(reason string) (types.Format, error) {
		return types.FormatUnknown, &types.UnsupportedFormatError{Path: path, Reason: reason}
	}

	atomSize, err := binary.Read[uint32](sr, 0, "ftyp atom size")
	if err != nil {
		return unsupported("failed to read file header")
	}
	if chunkType(sr, 4) != "ftyp" {
		return unsupported("unsupported file format")
	}
	// size + type + brand + version
	if atomSize < 16 {
		return unsupported("ftyp atom too small")
	}

	switch chunkType(sr, 8) {
	case "M4B ":
		return types.FormatM4B, nil
	case "M4A ", "mp42", "mp41", "isom", "iso2", "dash":
		return types.FormatM4A, nil
	default:
		return unsupported("unsupported file brand")
	}
}

// DetectFile opens path and detects its format.
func DetectFile(path string) (types.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.FormatUnknown, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return types.FormatUnknown, err
	}
	return DetectFormat(f, stat.Size(), path)
}
