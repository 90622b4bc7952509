package m4a

import (
	"io"

	"github.com/simonhull/audiolib/internal/binary"
)

// WalkTree visits every atom in the file depth first, descending into the
// containers the parser knows. depth is 0 for top-level atoms. A false
// return from fn skips the atom's children.
func WalkTree(r io.ReaderAt, size int64, path string, fn func(a *Atom, depth int) bool) error {
	sr := binary.NewSafeReader(r, size, path)
	return walkTree(sr, 0, size, 0, fn)
}

func walkTree(sr *binary.SafeReader, start, end int64, depth int, fn func(*Atom, int) bool) error {
	var err error
	walkErr := walkAtoms(sr, start, end, func(a *Atom) bool {
		if !fn(a, depth) || !a.IsContainer() {
			return true
		}
		err = walkTree(sr, childrenOffset(sr, a), a.End(), depth+1, fn)
		return err == nil
	})
	if walkErr != nil {
		return walkErr
	}
	return err
}
