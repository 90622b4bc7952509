package types

import "encoding/binary"

// SniffImageType detects an image MIME type from magic bytes. It returns ""
// when the data matches no known image format.
func SniffImageType(data []byte) string {
	if len(data) < 4 {
		return ""
	}

	switch {
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case data[0] == 0x89 && string(data[1:4]) == "PNG":
		return "image/png"
	case string(data[0:3]) == "GIF":
		return "image/gif"
	case data[0] == 'B' && data[1] == 'M':
		return "image/bmp"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return ""
}

// ImageDimensions extracts width and height from JPEG or PNG data.
// It returns 0, 0 for other formats or when the header is unreadable.
func ImageDimensions(data []byte, mimeType string) (int, int) {
	switch mimeType {
	case "image/jpeg":
		return jpegDimensions(data)
	case "image/png":
		return pngDimensions(data)
	default:
		return 0, 0
	}
}

// jpegDimensions scans for a SOF0-SOF2 marker:
// FF Cn [2 length] [1 precision] [2 height] [2 width].
func jpegDimensions(data []byte) (int, int) {
	for i := 0; i+9 <= len(data); i++ {
		if data[i] != 0xFF {
			continue
		}
		switch data[i+1] {
		case 0xC0, 0xC1, 0xC2:
			height := int(binary.BigEndian.Uint16(data[i+5:]))
			width := int(binary.BigEndian.Uint16(data[i+7:]))
			return width, height
		}
	}
	return 0, 0
}

// pngDimensions reads the IHDR chunk that follows the 8-byte signature.
func pngDimensions(data []byte) (int, int) {
	if len(data) < 24 || string(data[:8]) != "\x89PNG\r\n\x1a\n" {
		return 0, 0
	}
	width := int(binary.BigEndian.Uint32(data[16:]))
	height := int(binary.BigEndian.Uint32(data[20:]))
	return width, height
}
