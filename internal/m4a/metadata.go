package m4a

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

// Well-known data atom type indicators.
const (
	dataImplicit = 0
	dataUTF8     = 1
	dataUTF16    = 2
	dataJPEG     = 13
	dataPNG      = 14
	dataSigned   = 21
	dataUnsigned = 22
	dataBMP      = 27
)

const (
	freeformType = "----"
	itunesMean   = "com.apple.iTunes"
)

// item is one decoded ilst entry keyed by its native key: the atom type
// ("\xa9nam", "trkn") or "----:<mean>:<name>" for freeform atoms.
type item struct {
	key    string
	values []string
}

// decodeItem decodes one ilst child. ok is false for items that carry no
// text-representable value, such as cover art.
func decodeItem(a rawAtom, path string) (it item, ok bool, err error) {
	children, err := splitAtoms(a.body, a.off+8, path)
	if err != nil {
		return item{}, false, err
	}

	it.key = a.typ
	if a.typ == freeformType {
		var mean, name string
		for _, c := range children {
			switch c.typ {
			case "mean":
				mean = fullAtomString(c.body)
			case "name":
				name = fullAtomString(c.body)
			}
		}
		if name == "" {
			return item{}, false, nil
		}
		if mean == "" {
			mean = itunesMean
		}
		it.key = freeformType + ":" + mean + ":" + name
	}

	for _, c := range children {
		if c.typ != "data" || len(c.body) < 8 {
			continue
		}
		kind := binary.Get[uint32](c.body, 0, binary.BigEndian) & 0x00FFFFFF
		if v, ok := dataValue(a.typ, kind, c.body[8:]); ok {
			it.values = append(it.values, v)
		}
	}
	return it, len(it.values) > 0, nil
}

// fullAtomString returns the text of a mean or name atom, which carries
// four version/flags bytes before the string.
func fullAtomString(body []byte) string {
	if len(body) < 4 {
		return ""
	}
	return string(body[4:])
}

// dataValue renders a data atom payload as a string.
func dataValue(itemType string, kind uint32, payload []byte) (string, bool) {
	switch {
	case itemType == "trkn" || itemType == "disk":
		if len(payload) < 6 {
			return "", false
		}
		n := binary.Get[uint16](payload, 2, binary.BigEndian)
		m := binary.Get[uint16](payload, 4, binary.BigEndian)
		if n == 0 && m == 0 {
			return "", false
		}
		return formatPair(int(n), int(m)), true
	case itemType == types.MP4Rating:
		// Some taggers store the rating as text; reading those bytes as an
		// integer is what produces the well-known magic rating values.
		v, ok := binary.Uint(payload)
		if !ok {
			return "", false
		}
		return strconv.FormatUint(v, 10), true
	case kind == dataUTF8:
		return strings.TrimRight(string(payload), "\x00"), true
	case kind == dataUTF16:
		if len(payload)%2 != 0 {
			payload = payload[:len(payload)-1]
		}
		u := make([]uint16, len(payload)/2)
		for i := range u {
			u[i] = binary.Get[uint16](payload, 2*i, binary.BigEndian)
		}
		return strings.TrimRight(string(utf16.Decode(u)), "\x00"), true
	case kind == dataSigned:
		v, ok := binary.Uint(payload)
		if !ok {
			return "", false
		}
		return strconv.FormatInt(signExtend(v, len(payload)), 10), true
	case kind == dataUnsigned, kind == dataImplicit && len(payload) <= 8:
		v, ok := binary.Uint(payload)
		if !ok {
			return "", false
		}
		return strconv.FormatUint(v, 10), true
	}
	return "", false
}

func signExtend(v uint64, size int) int64 {
	switch size {
	case 1:
		return int64(int8(v))
	case 2, 3:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	}
	return int64(v)
}

func formatPair(n, m int) string {
	if m == 0 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%d/%d", n, m)
}

// parsePair parses "N" or "N/M" for trkn and disk. Either side may be
// empty, meaning zero.
func parsePair(s string) (n, m int, err error) {
	left, right, _ := strings.Cut(s, "/")
	parse := func(v string) (int, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		x, err := strconv.Atoi(v)
		if err != nil || x < 0 || x > 0xFFFF {
			return 0, fmt.Errorf("not a number in 0..65535: %q", v)
		}
		return x, nil
	}
	if n, err = parse(left); err != nil {
		return 0, 0, err
	}
	if m, err = parse(right); err != nil {
		return 0, 0, err
	}
	return n, m, nil
}

// encodeItem builds the ilst child atom for it.
func encodeItem(it item) []byte {
	typ := it.key
	var prefix []byte
	if mean, name, ok := splitFreeform(it.key); ok {
		typ = freeformType
		prefix = appendAtom(prefix, "mean", []byte{0, 0, 0, 0}, []byte(mean))
		prefix = appendAtom(prefix, "name", []byte{0, 0, 0, 0}, []byte(name))
	}

	body := prefix
	for _, v := range it.values {
		kind, payload := encodeValue(typ, v)
		header := make([]byte, 8)
		binary.Put(header, 0, kind, binary.BigEndian)
		body = appendAtom(body, "data", header, payload)
	}
	return appendAtom(nil, typ, body)
}

// encodeValue returns the data type and payload for a value that has
// already passed validateValue.
func encodeValue(itemType, v string) (uint32, []byte) {
	switch itemType {
	case "trkn", "disk":
		n, m, _ := parsePair(v)
		size := 8
		if itemType == "disk" {
			size = 6
		}
		payload := make([]byte, size)
		binary.Put(payload, 2, uint16(n), binary.BigEndian)
		binary.Put(payload, 4, uint16(m), binary.BigEndian)
		return dataImplicit, payload
	case types.MP4Rating:
		r, _ := strconv.Atoi(v)
		return dataSigned, []byte{byte(r)}
	}
	return dataUTF8, []byte(v)
}

// validateValue checks that v can be stored under itemType.
func validateValue(itemType, v string) error {
	switch itemType {
	case "trkn", "disk":
		if _, _, err := parsePair(v); err != nil {
			return err
		}
	case types.MP4Rating:
		r, err := strconv.Atoi(v)
		if err != nil || r < 0 || r > 100 {
			return fmt.Errorf("rating must be 0..100")
		}
	}
	return nil
}

func splitFreeform(key string) (mean, name string, ok bool) {
	rest, ok := strings.CutPrefix(key, freeformType+":")
	if !ok {
		return "", "", false
	}
	mean, name, ok = strings.Cut(rest, ":")
	return mean, name, ok && name != ""
}

// readItems decodes the children of an ilst atom into file.Tags.
func readItems(sr *binary.SafeReader, ilst *Atom, file *types.File) error {
	var items []*Atom
	err := walkAtoms(sr, ilst.DataOffset(), ilst.End(), func(a *Atom) bool {
		items = append(items, a)
		return true
	})
	if err != nil {
		return err
	}

	for _, a := range items {
		// Cover art is read lazily through ExtractArtwork.
		if a.Type == "covr" {
			continue
		}
		body, err := sr.Bytes(a.DataOffset(), int(a.DataSize()), "ilst item")
		if err != nil {
			return err
		}
		it, ok, err := decodeItem(rawAtom{typ: a.Type, body: body, off: a.Offset}, sr.Path())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for _, v := range it.values {
			file.Tags.Add(it.key, v)
		}
	}
	return nil
}
