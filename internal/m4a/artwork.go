package m4a

import (
	"errors"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

// extractArtwork extracts embedded cover art from M4A/M4B files.
// Navigates: moov → udta → meta → ilst → covr → data atoms.
func extractArtwork(sr *binary.SafeReader) ([]types.Artwork, error) {
	ilst, err := findIlst(sr)
	if err != nil {
		if errors.Is(err, errAtomNotFound) {
			return nil, nil
		}
		return nil, err
	}

	covr, err := findAtom(sr, ilst.DataOffset(), ilst.End(), "covr")
	if err != nil {
		if errors.Is(err, errAtomNotFound) {
			return nil, nil
		}
		return nil, err
	}

	body, err := sr.Bytes(covr.DataOffset(), int(covr.DataSize()), "covr atom")
	if err != nil {
		return nil, err
	}
	children, err := splitAtoms(body, covr.DataOffset(), sr.Path())
	if err != nil {
		return nil, err
	}

	var artwork []types.Artwork
	for _, c := range children {
		if c.typ != "data" {
			continue
		}
		if art, ok := parseCovrData(c.body); ok {
			artwork = append(artwork, art)
		}
	}
	return artwork, nil
}

// parseCovrData decodes one covr data atom body:
// [1] version [3] type [4] locale [rest] image data.
func parseCovrData(body []byte) (types.Artwork, bool) {
	if len(body) <= 8 {
		return types.Artwork{}, false
	}
	kind := binary.Get[uint32](body, 0, binary.BigEndian) & 0x00FFFFFF
	image := body[8:]

	mimeType := types.SniffImageType(image)
	if mimeType == "" {
		mimeType = kindToMIMEType(kind)
	}
	width, height := types.ImageDimensions(image, mimeType)

	return types.Artwork{
		MIMEType: mimeType,
		Data:     image,
		Type:     types.ArtworkFrontCover, // covr carries no picture type
		Width:    width,
		Height:   height,
	}, true
}

// kindToMIMEType converts a data atom type indicator to a MIME type.
func kindToMIMEType(kind uint32) string {
	switch kind {
	case dataPNG:
		return "image/png"
	case dataBMP:
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}
