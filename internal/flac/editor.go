package flac

import (
	"fmt"
	"io"

	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"

	"github.com/simonhull/audiolib/internal/atomicfile"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/vorbis"
)

// editor edits the VORBIS_COMMENT block of a FLAC file. Other metadata
// blocks and the audio frames are written back untouched.
type editor struct {
	vorbis.KeyEditor
	path string
	file *goflac.File
}

func openEditor(path string) (registry.Editor, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse FLAC %s: %w", path, err)
	}

	block := &vorbis.Block{Vendor: "audiolib"}
	for _, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return nil, fmt.Errorf("parse Vorbis comments in %s: %w", path, err)
		}
		block.Vendor = cmt.Vendor
		block.Comments = append([]string(nil), cmt.Comments...)
		break
	}

	return &editor{
		KeyEditor: vorbis.KeyEditor{Block: block},
		path:      path,
		file:      f,
	}, nil
}

// Save replaces the comment block, or inserts one after STREAMINFO, and
// rewrites the file atomically.
func (e *editor) Save() error {
	cmt := flacvorbis.New()
	cmt.Vendor = e.Block.Vendor
	cmt.Comments = append([]string(nil), e.Block.Comments...)
	encoded := cmt.Marshal()

	replaced := false
	for i, meta := range e.file.Meta {
		if meta.Type == goflac.VorbisComment {
			e.file.Meta[i] = &encoded
			replaced = true
			break
		}
	}
	if !replaced {
		at := min(1, len(e.file.Meta))
		meta := make([]*goflac.MetaDataBlock, 0, len(e.file.Meta)+1)
		meta = append(meta, e.file.Meta[:at]...)
		meta = append(meta, &encoded)
		meta = append(meta, e.file.Meta[at:]...)
		e.file.Meta = meta
	}

	return atomicfile.Write(e.path, func(w io.Writer) error {
		_, err := w.Write(e.file.Marshal())
		return err
	})
}

func (e *editor) Close() error {
	e.file = nil
	return nil
}
