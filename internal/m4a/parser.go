package m4a

import (
	"errors"
	"fmt"
	"io"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

// parser implements registry.FormatParser for M4A/M4B files
type parser struct{}

// Parse parses an M4A/M4B file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binary.NewSafeReader(r, size, path)

	format, err := registry.DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}

	file := &types.File{
		Path:    path,
		Format:  format,
		Size:    size,
		TagKind: types.TagMP4,
	}

	moov, err := findAtom(sr, 0, size, "moov")
	if err != nil {
		if errors.Is(err, errAtomNotFound) {
			return nil, &types.CorruptedFileError{Path: path, Reason: "no moov atom"}
		}
		return nil, err
	}

	ilst, err := findIlst(sr)
	switch {
	case errors.Is(err, errAtomNotFound):
		// Untagged file.
	case err != nil:
		return nil, err
	default:
		if err := readItems(sr, ilst, file); err != nil {
			return nil, err
		}
	}

	if err := parseTechnicalInfo(sr, moov, file); err != nil {
		file.Warn("technical", fmt.Sprintf("failed to parse audio properties: %v", err), moov.Offset)
	}

	return file, nil
}

// findIlst locates moov/udta/meta/ilst.
func findIlst(sr *binary.SafeReader) (*Atom, error) {
	moov, err := findAtom(sr, 0, sr.Size(), "moov")
	if err != nil {
		return nil, err
	}
	return findPath(sr, moov, "udta", "meta", "ilst")
}

// ExtractArtwork extracts embedded artwork from M4A/M4B files
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	return extractArtwork(binary.NewSafeReader(r, size, path))
}

// init registers the M4A/M4B parser and editor
func init() {
	p := &parser{}
	registry.Register(types.FormatM4A, p)
	registry.Register(types.FormatM4B, p)
	registry.RegisterEditor(types.FormatM4A, openEditor)
	registry.RegisterEditor(types.FormatM4B, openEditor)
}
