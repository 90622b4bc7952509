// Package m4a reads and edits iTunes-style metadata in MP4 audio files.
package m4a

import (
	"errors"
	"fmt"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

var errAtomNotFound = errors.New("atom not found")

// Atom represents an MP4/M4A/M4B atom (box)
type Atom struct {
	Size     uint64 // Total size including header
	Type     string // 4-character type code
	Offset   int64  // Position in file
	Extended bool   // Whether this uses 64-bit extended size
}

func (a *Atom) headerSize() uint64 {
	if a.Extended {
		return 16
	}
	return 8
}

// DataSize returns the size of the atom's data (excluding header)
func (a *Atom) DataSize() uint64 {
	if a.Size < a.headerSize() {
		return 0
	}
	return a.Size - a.headerSize()
}

// DataOffset returns the file offset where the atom's data starts
func (a *Atom) DataOffset() int64 {
	return a.Offset + int64(a.headerSize())
}

// End returns the file offset just past the atom.
func (a *Atom) End() int64 {
	return a.Offset + int64(a.Size)
}

// IsContainer returns true if this atom type can contain other atoms
func (a *Atom) IsContainer() bool {
	_, ok := containerPrefix[a.Type]
	return ok
}

// containerPrefix lists the container atoms this package descends into,
// with the number of version/flags bytes that precede their children.
var containerPrefix = map[string]int{
	"moov": 0, // Movie container
	"trak": 0, // Track container
	"mdia": 0, // Media container
	"minf": 0, // Media information
	"stbl": 0, // Sample table
	"dinf": 0, // Data information
	"edts": 0, // Edit list container
	"udta": 0, // User data
	"ilst": 0, // iTunes metadata list
	"meta": 4, // Metadata container (full atom)
}

// readAtomHeader reads the atom header at offset. The atom must end at or
// before parentEnd.
func readAtomHeader(sr *binary.SafeReader, offset, parentEnd int64) (*Atom, error) {
	size32, err := binary.Read[uint32](sr, offset, "atom size")
	if err != nil {
		return nil, truncated(sr.Path(), offset, err)
	}

	typeBytes, err := sr.Bytes(offset+4, 4, "atom type")
	if err != nil {
		return nil, truncated(sr.Path(), offset, err)
	}

	atom := &Atom{
		Type:   string(typeBytes),
		Offset: offset,
	}

	switch size32 {
	case 0:
		// Extends to the end of the enclosing space.
		atom.Size = uint64(parentEnd - offset)
	case 1:
		size64, err := binary.Read[uint64](sr, offset+8, "extended atom size")
		if err != nil {
			return nil, truncated(sr.Path(), offset, err)
		}
		atom.Size = size64
		atom.Extended = true
	default:
		atom.Size = uint64(size32)
	}

	if atom.Size < atom.headerSize() {
		return nil, &types.CorruptedFileError{
			Path:   sr.Path(),
			Offset: offset,
			Reason: fmt.Sprintf("invalid %q atom size %d", atom.Type, atom.Size),
		}
	}
	if atom.Size > uint64(parentEnd-offset) {
		return nil, &types.CorruptedFileError{
			Path:   sr.Path(),
			Offset: offset,
			Reason: fmt.Sprintf("%q atom size %d extends past its parent", atom.Type, atom.Size),
		}
	}

	return atom, nil
}

func truncated(path string, offset int64, err error) error {
	return &types.CorruptedFileError{
		Path:   path,
		Offset: offset,
		Reason: "truncated atom header: " + err.Error(),
	}
}

// walkAtoms calls fn for each atom in [start, end) until fn returns false.
func walkAtoms(sr *binary.SafeReader, start, end int64, fn func(a *Atom) bool) error {
	offset := start
	for offset < end {
		// Trailing padding shorter than a header is tolerated.
		if end-offset < 8 {
			return nil
		}
		atom, err := readAtomHeader(sr, offset, end)
		if err != nil {
			return err
		}
		if !fn(atom) {
			return nil
		}
		offset = atom.End()
	}
	return nil
}

// findAtom returns the first atom of atomType in [start, end).
func findAtom(sr *binary.SafeReader, start, end int64, atomType string) (*Atom, error) {
	var found *Atom
	err := walkAtoms(sr, start, end, func(a *Atom) bool {
		if a.Type == atomType {
			found = a
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", errAtomNotFound, atomType)
	}
	return found, nil
}

// childrenOffset returns where a container's children start. QuickTime
// writes meta as a plain container, iTunes as a full atom; the two are
// told apart by looking for the hdlr child.
func childrenOffset(sr *binary.SafeReader, a *Atom) int64 {
	prefix := int64(containerPrefix[a.Type])
	if a.Type == "meta" {
		if b, err := sr.Bytes(a.DataOffset()+4, 4, "meta handler type"); err == nil && string(b) == "hdlr" {
			prefix = 0
		}
	}
	return a.DataOffset() + prefix
}

// findPath descends from parent through the named containers.
func findPath(sr *binary.SafeReader, parent *Atom, path ...string) (*Atom, error) {
	cur := parent
	for _, name := range path {
		next, err := findAtom(sr, childrenOffset(sr, cur), cur.End(), name)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// rawAtom is an atom held in memory.
type rawAtom struct {
	typ  string
	body []byte
	off  int64 // file offset of the header
}

// splitAtoms splits b, which starts at file offset base, into atoms.
func splitAtoms(b []byte, base int64, path string) ([]rawAtom, error) {
	var out []rawAtom
	pos := 0
	for pos < len(b) {
		if len(b)-pos < 8 {
			return out, nil
		}
		size := int(binary.Get[uint32](b, pos, binary.BigEndian))
		typ := string(b[pos+4 : pos+8])
		header := 8
		switch size {
		case 0:
			size = len(b) - pos
		case 1:
			if len(b)-pos < 16 {
				return nil, &types.CorruptedFileError{Path: path, Offset: base + int64(pos), Reason: "truncated extended atom header"}
			}
			size64 := binary.Get[uint64](b, pos+8, binary.BigEndian)
			if size64 > uint64(len(b)-pos) {
				size = -1
			} else {
				size = int(size64)
			}
			header = 16
		}
		if size < header || size > len(b)-pos {
			return nil, &types.CorruptedFileError{
				Path:   path,
				Offset: base + int64(pos),
				Reason: fmt.Sprintf("%q atom size extends past its parent", typ),
			}
		}
		out = append(out, rawAtom{typ: typ, body: b[pos+header : pos+size], off: base + int64(pos)})
		pos += size
	}
	return out, nil
}

// appendAtom appends a size-prefixed atom to dst.
func appendAtom(dst []byte, typ string, body ...[]byte) []byte {
	size := 8
	for _, b := range body {
		size += len(b)
	}
	hdr := make([]byte, 8)
	binary.Put(hdr, 0, uint32(size), binary.BigEndian)
	copy(hdr[4:], typ)
	dst = append(dst, hdr...)
	for _, b := range body {
		dst = append(dst, b...)
	}
	return dst
}
