package ogg

import (
	"io"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
	"github.com/simonhull/audiolib/internal/vorbis"
)

// ExtractArtwork returns the pictures stored as METADATA_BLOCK_PICTURE
// comments. Undecodable values are skipped.
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	s, err := readStream(binary.NewSafeReader(r, size, path))
	if s == nil || s.comment == nil {
		return nil, err
	}

	var artwork []types.Artwork
	for _, value := range s.comment.Get(vorbis.PictureKey) {
		if pic, err := vorbis.DecodePictureComment(value, path); err == nil {
			artwork = append(artwork, pic)
		}
	}
	return artwork, nil
}
