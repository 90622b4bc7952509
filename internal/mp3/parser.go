// Package mp3 reads MPEG audio files and the ID3 tags they carry, and
// edits ID3v2 tags through github.com/bogem/id3v2.
package mp3

import (
	"errors"
	"io"

	binutil "github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

// parser implements registry.FormatParser for MP3 files
type parser struct{}

// Parse reads the ID3v2 tag, falling back to ID3v1, and the MPEG frame
// headers for technical info.
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binutil.NewSafeReader(r, size, path)

	file := &types.File{
		Path:   path,
		Format: types.FormatMP3,
		Size:   size,
	}

	var tagSize int64
	t, err := readTag(sr, 0, file)
	switch {
	case err == nil:
		applyFrames(t, file)
		tagSize = t.size()
	case errors.Is(err, errNoTag):
	default:
		var corrupted *types.CorruptedFileError
		if errors.As(err, &corrupted) {
			return nil, err
		}
		file.Warn("metadata", "ID3v2 parsing failed: "+err.Error(), 0)
	}

	audioEnd := size
	if hasID3v1(r, size) {
		audioEnd -= id3v1Size
		if file.Tags.Len() == 0 {
			readID3v1(r, size, file)
		}
	}
	if file.TagKind == types.TagNone {
		// An untagged MP3 still reads and writes as ID3.
		file.TagKind = types.TagID3v2
	}

	if err := parseTechnicalInfo(sr, tagSize, audioEnd, file); err != nil {
		file.Warn("technical", "failed to parse MP3 technical info: "+err.Error(), tagSize)
	}

	return file, nil
}

// ExtractArtwork extracts embedded artwork from MP3 files
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	return extractArtwork(r, size, path)
}

func init() {
	registry.Register(types.FormatMP3, &parser{})
	registry.RegisterEditor(types.FormatMP3, openEditor)
}
