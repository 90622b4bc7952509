package types

import (
	"path/filepath"
	"strings"
)

// Format represents the detected audio container format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatFLAC represents FLAC audio files.
	FormatFLAC
	// FormatMP3 represents MP3 audio files.
	FormatMP3
	// FormatM4A represents MP4 audio files (M4A, MP4).
	FormatM4A
	// FormatM4B represents MP4 audiobook files.
	FormatM4B
	// FormatOgg represents Ogg Vorbis audio files.
	FormatOgg
	// FormatOpus represents Ogg Opus audio files.
	FormatOpus
	// FormatWAV represents RIFF/WAVE audio files.
	FormatWAV
	// FormatAIFF represents AIFF audio files. Detected, not parsed.
	FormatAIFF
)

var formatNames = [...]string{
	FormatUnknown: "Unknown",
	FormatFLAC:    "FLAC",
	FormatMP3:     "MP3",
	FormatM4A:     "M4A",
	FormatM4B:     "M4B",
	FormatOgg:     "Ogg Vorbis",
	FormatOpus:    "Opus",
	FormatWAV:     "WAV",
	FormatAIFF:    "AIFF",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatUnknown]
	}
	return formatNames[f]
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatFLAC:
		return []string{".flac"}
	case FormatMP3:
		return []string{".mp3"}
	case FormatM4A:
		return []string{".m4a", ".mp4", ".m4p"}
	case FormatM4B:
		return []string{".m4b"}
	case FormatOgg:
		return []string{".ogg", ".oga"}
	case FormatOpus:
		return []string{".opus"}
	case FormatWAV:
		return []string{".wav"}
	case FormatAIFF:
		return []string{".aiff", ".aif"}
	default:
		return nil
	}
}

// FormatFromPath guesses a format from a file extension. It is used to
// filter directory walks, never to pick a parser.
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	for f := FormatFLAC; f <= FormatAIFF; f++ {
		for _, e := range f.Extensions() {
			if e == ext {
				return f
			}
		}
	}
	return FormatUnknown
}

// TagKind identifies the tag dialect a file's Tags are keyed in.
type TagKind int

const (
	// TagNone means no tag block was found.
	TagNone TagKind = iota
	// TagID3v2 covers ID3v2.2-2.4 frames and ID3v1 data mapped onto them.
	TagID3v2
	// TagVorbis covers Vorbis comments in FLAC and Ogg.
	TagVorbis
	// TagMP4 covers iTunes-style ilst atoms.
	TagMP4
	// TagRIFFInfo covers RIFF LIST/INFO chunks.
	TagRIFFInfo
)

func (k TagKind) String() string {
	switch k {
	case TagID3v2:
		return "ID3v2"
	case TagVorbis:
		return "Vorbis Comment"
	case TagMP4:
		return "MP4"
	case TagRIFFInfo:
		return "RIFF INFO"
	default:
		return "none"
	}
}
