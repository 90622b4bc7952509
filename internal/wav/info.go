package wav

import (
	"strings"

	"github.com/simonhull/audiolib/internal/binary"
)

// infoEntry is one sub-chunk of a LIST/INFO chunk.
type infoEntry struct {
	id    string
	value string
}

// isInfoList reports whether a LIST chunk body holds INFO entries.
func isInfoList(body []byte) bool {
	return len(body) >= 4 && string(body[:4]) == "INFO"
}

// parseInfo decodes the entries of a LIST/INFO body. Parsing stops at
// the first entry that overruns the list.
func parseInfo(body []byte) []infoEntry {
	var entries []infoEntry
	pos := 4
	for pos+8 <= len(body) {
		id := string(body[pos : pos+4])
		size := int(binary.Get[uint32](body, pos+4, binary.LittleEndian))
		pos += 8
		if size > len(body)-pos {
			break
		}
		value := strings.TrimRight(string(body[pos:pos+size]), "\x00")
		if value != "" {
			entries = append(entries, infoEntry{id: id, value: value})
		}
		pos += size + size%2
	}
	return entries
}

// encodeInfo builds a LIST/INFO body. Values are stored NUL-terminated
// and padded to even length.
func encodeInfo(entries []infoEntry) []byte {
	out := []byte("INFO")
	for _, e := range entries {
		value := append([]byte(e.value), 0)
		size := make([]byte, 4)
		binary.Put(size, 0, uint32(len(value)), binary.LittleEndian)
		out = append(out, e.id...)
		out = append(out, size...)
		out = append(out, value...)
		if len(value)%2 != 0 {
			out = append(out, 0)
		}
	}
	return out
}
