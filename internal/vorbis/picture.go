package vorbis

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

// PictureKey is the comment carrying base64 picture blocks in Ogg streams.
const PictureKey = "METADATA_BLOCK_PICTURE"

// DecodePicture reads a FLAC picture structure at offset: the body of a
// FLAC PICTURE block, and the payload of a PictureKey comment.
func DecodePicture(sr *binary.SafeReader, offset int64) (types.Artwork, error) {
	r := binary.NewReader(sr, offset)
	var art types.Artwork

	kind, err := binary.ReadValue[uint32](r, "picture type")
	if err != nil {
		return art, err
	}
	if art.MIMEType, err = readString(r, "MIME type"); err != nil {
		return art, err
	}
	if art.Description, err = readString(r, "picture description"); err != nil {
		return art, err
	}
	width, err := binary.ReadValue[uint32](r, "picture width")
	if err != nil {
		return art, err
	}
	height, err := binary.ReadValue[uint32](r, "picture height")
	if err != nil {
		return art, err
	}
	r.Skip(8) // color depth, palette size

	n, err := binary.ReadValue[uint32](r, "picture data length")
	if err != nil {
		return art, err
	}
	if art.Data, err = r.ReadBytes(int(n), "picture data"); err != nil {
		return art, err
	}

	art.Type = types.ArtworkType(kind)
	if kind > uint32(types.ArtworkPublisherLogotype) {
		art.Type = types.ArtworkOther
	}
	art.Width, art.Height = int(width), int(height)
	return art, nil
}

// DecodePictureComment decodes the base64 value of a PictureKey comment.
func DecodePictureComment(value, path string) (types.Artwork, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return types.Artwork{}, fmt.Errorf("%s: invalid base64: %w", PictureKey, err)
	}
	return DecodePicture(binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path), 0)
}

func readString(r *binary.Reader, what string) (string, error) {
	n, err := binary.ReadValue[uint32](r, what+" length")
	if err != nil {
		return "", err
	}
	return r.ReadString(int(n), what)
}
