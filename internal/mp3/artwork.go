package mp3

import (
	"bytes"
	"errors"
	"io"

	binutil "github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

var (
	errAPICTooShort    = errors.New("APIC frame too short")
	errAPICNoMIMETerm  = errors.New("APIC MIME type not null-terminated")
	errAPICTruncated   = errors.New("APIC frame truncated after MIME type")
	errAPICNoImageData = errors.New("APIC frame has no image data")
)

// extractArtwork extracts embedded artwork from the APIC (or v2.2 PIC)
// frames of the ID3v2 tag at the start of the stream.
func extractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	sr := binutil.NewSafeReader(r, size, path)

	scratch := &types.File{Path: path}
	t, err := readTag(sr, 0, scratch)
	if errors.Is(err, errNoTag) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pictures(t), nil
}

// pictures decodes every picture frame of t. Damaged pictures are skipped.
func pictures(t *tag) []types.Artwork {
	var artwork []types.Artwork
	for _, f := range t.frames {
		if f.ID != "APIC" {
			continue
		}
		data := f.Data
		if t.Version == 2 {
			data = picToAPIC(data)
		}
		if art, err := parseAPICFrame(data); err == nil {
			artwork = append(artwork, art)
		}
	}
	return artwork
}

// picToAPIC rewrites an ID3v2.2 PIC body, which carries a three-letter
// image format, into the APIC layout with a MIME type.
func picToAPIC(data []byte) []byte {
	if len(data) < 4 {
		return data
	}
	out := make([]byte, 0, len(data)+16)
	out = append(out, data[0])
	out = append(out, string(data[1:4])...)
	out = append(out, 0)
	return append(out, data[4:]...)
}

// parseAPICFrame parses an APIC (Attached Picture) frame.
// Format:
//
//	[1 byte]              Text encoding
//	[null-terminated]     MIME type
//	[1 byte]              Picture type
//	[null-terminated]     Description
//	[remaining]           Picture data
func parseAPICFrame(data []byte) (types.Artwork, error) {
	if len(data) < 4 {
		return types.Artwork{}, errAPICTooShort
	}

	encoding := data[0]
	pos := 1

	// MIME type is always ISO-8859-1.
	mimeEnd := bytes.IndexByte(data[pos:], 0)
	if mimeEnd < 0 {
		return types.Artwork{}, errAPICNoMIMETerm
	}
	mimeType := string(data[pos : pos+mimeEnd])
	pos += mimeEnd + 1

	// Handle legacy MIME type markers
	if mimeType == "JPG" || mimeType == "jpg" {
		mimeType = "image/jpeg"
	} else if mimeType == "PNG" || mimeType == "png" {
		mimeType = "image/png"
	} else if mimeType == "" || mimeType == "-->" {
		// Empty or URL reference - try to detect from data
		mimeType = "image/jpeg" // Default, will be overridden if PNG detected
	}

	if pos >= len(data) {
		return types.Artwork{}, errAPICTruncated
	}

	// Picture type (1 byte)
	pictureType := data[pos]
	pos++

	// Parse description (encoding-dependent null terminator)
	descEnd := findNullTerminator(data[pos:], encoding)
	description := ""
	if descEnd >= 0 {
		description = decodeText(data[pos:pos+descEnd], encoding)
		pos += descEnd + terminatorSize(encoding)
	}

	if pos >= len(data) {
		return types.Artwork{}, errAPICNoImageData
	}

	// Remaining bytes are picture data
	imageData := data[pos:]

	// Detect actual MIME type from image magic bytes
	if detectedMIME := types.SniffImageType(imageData); detectedMIME != "" {
		mimeType = detectedMIME
	}

	// Detect dimensions
	width, height := types.ImageDimensions(imageData, mimeType)

	return types.Artwork{
		MIMEType:    mimeType,
		Description: description,
		Data:        imageData,
		Type:        types.ArtworkType(pictureType),
		Width:       width,
		Height:      height,
	}, nil
}

// TagPictures decodes the pictures of a complete ID3v2 tag held in data.
func TagPictures(data []byte, path string) []types.Artwork {
	h, err := parseHeader(data, path)
	if err != nil {
		return nil
	}
	body := data[headerSize:]
	if int64(h.Size) <= int64(len(body)) {
		body = body[:h.Size]
	}
	return pictures(&tag{header: h, frames: splitFrames(body, h, &types.File{Path: path})})
}
