package m4a

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/simonhull/audiolib/internal/atomicfile"
	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

// box is an atom held in memory. Containers keep their children decoded;
// every other atom keeps its body verbatim.
type box struct {
	typ      string
	prefix   []byte // version/flags before the children of a full-atom container
	body     []byte // leaf atoms only
	children []*box
	leaf     bool
}

func decodeBoxes(b []byte, parent string, base int64, path string) ([]*box, error) {
	atoms, err := splitAtoms(b, base, path)
	if err != nil {
		return nil, err
	}
	out := make([]*box, 0, len(atoms))
	for _, a := range atoms {
		n := &box{typ: a.typ}
		prefix, container := containerPrefix[a.typ]
		if parent == "ilst" {
			// Item bodies are kept whole; the editor decodes them itself.
			container = false
		}
		if !container {
			n.leaf = true
			n.body = a.body
			out = append(out, n)
			continue
		}
		if a.typ == "meta" && len(a.body) >= 8 && string(a.body[4:8]) == "hdlr" {
			prefix = 0
		}
		if len(a.body) < prefix {
			return nil, &types.CorruptedFileError{Path: path, Offset: a.off, Reason: "truncated " + a.typ + " atom"}
		}
		n.prefix = a.body[:prefix]
		n.children, err = decodeBoxes(a.body[prefix:], a.typ, a.off+8+int64(prefix), path)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (n *box) encode() []byte {
	if n.leaf {
		return appendAtom(nil, n.typ, n.body)
	}
	parts := [][]byte{n.prefix}
	for _, c := range n.children {
		parts = append(parts, c.encode())
	}
	return appendAtom(nil, n.typ, parts...)
}

func (n *box) child(typ string) *box {
	for _, c := range n.children {
		if c.typ == typ {
			return c
		}
	}
	return nil
}

// ensure returns the child of typ, appending newBox() when it is missing.
func (n *box) ensure(typ string, newBox func() *box) *box {
	if c := n.child(typ); c != nil {
		return c
	}
	c := newBox()
	n.children = append(n.children, c)
	return c
}

// metadataHandler is the hdlr atom iTunes writes inside udta/meta.
func metadataHandler() *box {
	body := make([]byte, 0, 25)
	body = append(body, 0, 0, 0, 0) // version/flags
	body = append(body, 0, 0, 0, 0) // pre_defined
	body = append(body, "mdir"...)
	body = append(body, "appl"...)
	body = append(body, make([]byte, 8)...)
	body = append(body, 0) // empty name
	return &box{typ: "hdlr", leaf: true, body: body}
}

// entry is one ilst child. Undecoded entries (cover art, binary flags)
// are written back verbatim.
type entry struct {
	item
	raw *box
}

// editor edits the ilst atom of an MP4 file. The whole moov atom is held
// in memory and rewritten on Save; media data is copied untouched.
type editor struct {
	path       string
	moov       *box
	moovOffset int64
	moovEnd    int64
	entries    []*entry
}

func openEditor(path string) (registry.Editor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	sr := binary.NewSafeReader(f, stat.Size(), path)

	var moov *Atom
	fragmented := false
	err = walkAtoms(sr, 0, sr.Size(), func(a *Atom) bool {
		switch a.Type {
		case "moov":
			moov = a
		case "moof":
			fragmented = true
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if fragmented {
		return nil, &types.UnsupportedWriteError{Format: types.FormatM4A, Reason: "fragmented MP4"}
	}
	if moov == nil {
		return nil, &types.CorruptedFileError{Path: path, Reason: "no moov atom"}
	}

	body, err := sr.Bytes(moov.DataOffset(), int(moov.DataSize()), "moov atom")
	if err != nil {
		return nil, err
	}
	children, err := decodeBoxes(body, "moov", moov.DataOffset(), path)
	if err != nil {
		return nil, err
	}

	e := &editor{
		path:       path,
		moov:       &box{typ: "moov", children: children},
		moovOffset: moov.Offset,
		moovEnd:    moov.End(),
	}
	if err := e.loadEntries(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *editor) ilst() *box {
	udta := e.moov.child("udta")
	if udta == nil {
		return nil
	}
	meta := udta.child("meta")
	if meta == nil {
		return nil
	}
	return meta.child("ilst")
}

func (e *editor) loadEntries() error {
	ilst := e.ilst()
	if ilst == nil {
		return nil
	}
	for _, c := range ilst.children {
		it, ok, err := decodeItem(rawAtom{typ: c.typ, body: c.body}, e.path)
		if err != nil {
			return err
		}
		if !ok {
			e.entries = append(e.entries, &entry{item: item{key: c.typ}, raw: c})
			continue
		}
		e.entries = append(e.entries, &entry{item: it, raw: c})
	}
	return nil
}

// Kind reports the tag dialect.
func (e *editor) Kind() types.TagKind {
	return types.TagMP4
}

func nativeKeys(key types.FieldKey) ([]string, error) {
	native := types.TagMP4.NativeKeys(key)
	if len(native) == 0 {
		return nil, &types.UnsupportedKeyError{Key: key, Kind: types.TagMP4}
	}
	return native, nil
}

// Get returns the first value stored under any native key for key.
func (e *editor) Get(key types.FieldKey) (string, error) {
	native, err := nativeKeys(key)
	if err != nil {
		return "", err
	}
	for _, k := range native {
		for _, en := range e.entries {
			if en.key == k && len(en.values) > 0 && en.values[0] != "" {
				return en.values[0], nil
			}
		}
	}
	return "", nil
}

// Set stores value under the primary native key and removes the
// fallbacks. An empty value deletes the field.
func (e *editor) Set(key types.FieldKey, value string) error {
	native, err := nativeKeys(key)
	if err != nil {
		return err
	}
	if value != "" {
		if err := validateValue(native[0], value); err != nil {
			return &types.InvalidValueError{Key: key, Value: value, Reason: err.Error()}
		}
	}

	kept := e.entries[:0]
	replaced := false
	for _, en := range e.entries {
		switch {
		case en.key == native[0] && value != "" && !replaced:
			en.values = []string{value}
			en.raw = nil
			replaced = true
			kept = append(kept, en)
		case slices.Contains(native, en.key):
			// dropped
		default:
			kept = append(kept, en)
		}
	}
	e.entries = kept
	if value != "" && !replaced {
		e.entries = append(e.entries, &entry{item: item{key: native[0], values: []string{value}}})
	}
	return nil
}

// Delete removes the field.
func (e *editor) Delete(key types.FieldKey) error {
	return e.Set(key, "")
}

// Save rebuilds the ilst atom, creating udta/meta/ilst when missing, and
// rewrites the file atomically. Chunk offsets that point past moov are
// shifted by the change in its size.
func (e *editor) Save() error {
	udta := e.moov.ensure("udta", func() *box { return &box{typ: "udta"} })
	meta := udta.ensure("meta", func() *box {
		return &box{typ: "meta", prefix: []byte{0, 0, 0, 0}, children: []*box{metadataHandler()}}
	})
	ilst := meta.ensure("ilst", func() *box { return &box{typ: "ilst"} })

	ilst.children = ilst.children[:0]
	for _, en := range e.entries {
		if en.raw == nil {
			encoded := encodeItem(en.item)
			en.raw = &box{typ: string(encoded[4:8]), leaf: true, body: encoded[8:]}
		}
		ilst.children = append(ilst.children, en.raw)
	}

	// Patching stco/co64 never changes atom sizes, so delta is final.
	oldSize := e.moovEnd - e.moovOffset
	delta := int64(len(e.moov.encode())) - oldSize
	if delta != 0 {
		if err := shiftChunkOffsets(e.moov, e.moovEnd, delta); err != nil {
			return err
		}
	}
	encoded := e.moov.encode()

	src, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer src.Close()
	stat, err := src.Stat()
	if err != nil {
		return err
	}

	err = atomicfile.Write(e.path, func(w io.Writer) error {
		if _, err := io.Copy(w, io.NewSectionReader(src, 0, e.moovOffset)); err != nil {
			return err
		}
		if _, err := w.Write(encoded); err != nil {
			return err
		}
		_, err := io.Copy(w, io.NewSectionReader(src, e.moovEnd, stat.Size()-e.moovEnd))
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}
	e.moovEnd = e.moovOffset + int64(len(encoded))
	return nil
}

// Close releases the editor. The file is not held open between calls.
func (e *editor) Close() error {
	return nil
}

var errOffsetOverflow = errors.New("chunk offset no longer fits in stco")

// shiftChunkOffsets adds delta to every stco/co64 entry at or after from.
func shiftChunkOffsets(n *box, from, delta int64) error {
	for _, c := range n.children {
		switch {
		case !c.leaf:
			if err := shiftChunkOffsets(c, from, delta); err != nil {
				return err
			}
		case c.typ == "stco":
			if err := shiftTable(c.body, 4, from, delta); err != nil {
				return err
			}
		case c.typ == "co64":
			if err := shiftTable(c.body, 8, from, delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// shiftTable patches a chunk offset table in place:
// [4] version/flags [4] entry count [width * count] offsets.
func shiftTable(body []byte, width int, from, delta int64) error {
	if len(body) < 8 {
		return nil
	}
	count := int(binary.Get[uint32](body, 4, binary.BigEndian))
	if count > (len(body)-8)/width {
		return &types.CorruptedFileError{Reason: "chunk offset table overruns its atom"}
	}
	for i := range count {
		pos := 8 + i*width
		if width == 4 {
			off := int64(binary.Get[uint32](body, pos, binary.BigEndian))
			if off < from {
				continue
			}
			shifted := off + delta
			if shifted < 0 || shifted > math.MaxUint32 {
				return &types.UnsupportedWriteError{Format: types.FormatM4A, Reason: errOffsetOverflow.Error()}
			}
			binary.Put(body, pos, uint32(shifted), binary.BigEndian)
			continue
		}
		off := int64(binary.Get[uint64](body, pos, binary.BigEndian))
		if off >= from {
			binary.Put(body, pos, uint64(off+delta), binary.BigEndian)
		}
	}
	return nil
}
