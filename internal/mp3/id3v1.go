package mp3

import (
	"io"
	"strconv"
	"strings"

	dtag "github.com/dhowden/tag"

	"github.com/simonhull/audiolib/internal/types"
)

const id3v1Size = 128

// hasID3v1 reports whether the last 128 bytes hold an ID3v1 tag.
func hasID3v1(r io.ReaderAt, size int64) bool {
	if size < id3v1Size {
		return false
	}
	magic := make([]byte, 3)
	if _, err := r.ReadAt(magic, size-id3v1Size); err != nil {
		return false
	}
	return string(magic) == "TAG"
}

// readID3v1 stores the fields of a trailing ID3v1 tag under their ID3v2
// frame IDs so extraction treats both versions alike.
func readID3v1(r io.ReaderAt, size int64, file *types.File) bool {
	if !hasID3v1(r, size) {
		return false
	}

	m, err := dtag.ReadID3v1Tags(io.NewSectionReader(r, 0, size))
	if err != nil {
		file.Warn("metadata", "ID3v1 parsing failed: "+err.Error(), size-id3v1Size)
		return false
	}

	add := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			file.Tags.Add(key, value)
		}
	}
	add("TIT2", m.Title())
	add("TPE1", m.Artist())
	add("TALB", m.Album())
	add("TCON", m.Genre())
	add(types.ID3CommentPrefix, m.Comment())
	if year := m.Year(); year > 0 {
		add("TYER", strconv.Itoa(year))
	}
	if track, _ := m.Track(); track > 0 {
		add("TRCK", strconv.Itoa(track))
	}

	file.TagKind = types.TagID3v2
	return true
}
