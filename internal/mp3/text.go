package mp3

import (
	"bytes"
	"strings"
	"unicode/utf16"
)

// ID3v2 text encodings
const (
	encLatin1  = 0
	encUTF16   = 1
	encUTF16BE = 2
	encUTF8    = 3
)

// decodeText decodes text based on ID3v2 encoding byte.
func decodeText(data []byte, encoding byte) string {
	if len(data) == 0 {
		return ""
	}

	switch encoding {
	case encUTF16:
		return decodeUTF16(data)
	case encUTF16BE:
		return decodeUTF16BE(data)
	case encUTF8:
		return string(data)
	default:
		return decodeLatin1(data)
	}
}

func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// decodeUTF16 decodes UTF-16 with BOM
func decodeUTF16(data []byte) string {
	if len(data) < 2 {
		return ""
	}

	if data[0] == 0xFF && data[1] == 0xFE {
		return decodeUTF16LE(data[2:])
	} else if data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16BE(data[2:])
	}

	// No BOM - assume big-endian
	return decodeUTF16BE(data)
}

func decodeUTF16LE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}

	return string(utf16.Decode(u16))
}

func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	u16 := make([]uint16, len(data)/2)
	for i := range u16 {
		u16[i] = uint16(data[i*2])<<8 | uint16(data[i*2+1])
	}

	return string(utf16.Decode(u16))
}

// findNullTerminator finds the null terminator based on encoding
func findNullTerminator(data []byte, encoding byte) int {
	switch encoding {
	case encUTF16, encUTF16BE:
		for i := 0; i < len(data)-1; i += 2 {
			if data[i] == 0 && data[i+1] == 0 {
				return i
			}
		}
		return -1
	default:
		return bytes.IndexByte(data, 0)
	}
}

// terminatorSize returns the size of the null terminator for the encoding
func terminatorSize(encoding byte) int {
	if encoding == encUTF16 || encoding == encUTF16BE {
		return 2
	}
	return 1
}

// splitDescribed splits "[description\0][value]" as used by TXXX, COMM and
// USLT. A missing terminator yields an empty description.
func splitDescribed(data []byte, encoding byte) (desc, value string) {
	idx := findNullTerminator(data, encoding)
	if idx < 0 {
		return "", trimNulls(decodeText(data, encoding))
	}
	return decodeText(data[:idx], encoding), trimNulls(decodeText(data[idx+terminatorSize(encoding):], encoding))
}

// textValues splits a text frame body into its values. ID3v2.4 separates
// multiple values with null characters.
func textValues(data []byte, encoding byte) []string {
	text := trimNulls(decodeText(data, encoding))
	if text == "" {
		return nil
	}
	values := strings.Split(text, "\x00")
	for i, v := range values {
		values[i] = strings.TrimPrefix(v, "\ufeff")
	}
	return values
}

func trimNulls(s string) string {
	return strings.TrimRight(s, "\x00")
}
