package ogg

import (
	"fmt"
	"io"
	"os"

	"github.com/simonhull/audiolib/internal/atomicfile"
	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
	"github.com/simonhull/audiolib/internal/vorbis"
)

// editor rewrites the comment header of the first logical stream. The
// header pages are repaginated; later pages of the stream are renumbered
// and their checksums recomputed when the page count changes.
type editor struct {
	vorbis.KeyEditor
	path   string
	codec  string
	format types.Format
}

func openEditor(path string) (registry.Editor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	s, err := readStream(binary.NewSafeReader(f, info.Size(), path))
	if err != nil {
		return nil, err
	}

	format := types.FormatOgg
	if s.codec == codecOpus {
		format = types.FormatOpus
	}
	return &editor{
		KeyEditor: vorbis.KeyEditor{Block: s.comment},
		path:      path,
		codec:     s.codec,
		format:    format,
	}, nil
}

func (e *editor) Save() error {
	src, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	sr := binary.NewSafeReader(src, info.Size(), e.path)

	// Re-read the headers; the file may have changed since open.
	pr := newPacketReader(sr)
	n := headerCount(e.codec)
	if err := pr.readPackets(n, maxHeaderPages); err != nil {
		return fmt.Errorf("read %s headers: %w", e.path, err)
	}

	last := pr.ends[n-1]
	if pr.ends[0] != 0 || pr.ends[1] == 0 || len(pr.packets) != n || len(pr.pending) > 0 {
		return &types.UnsupportedWriteError{
			Format: e.format,
			Reason: "header packets share pages with audio data",
		}
	}

	first := pr.pages[0]
	packets := make([][]byte, 0, n-1)
	if e.codec == codecVorbis {
		packets = append(packets, encodeVorbisComment(e.Block), pr.packets[2])
	} else {
		packets = append(packets, encodeOpusTags(e.Block))
	}
	headers := paginate(packets, first.SerialNumber, first.SequenceNumber+1, 0)

	oldPages := uint32(last)
	delta := int64(len(headers)) - int64(oldPages)
	audioStart := pr.offset

	return atomicfile.Write(e.path, func(w io.Writer) error {
		sw := binary.NewSafeWriter(w)
		_ = sw.WriteBytes(first.Encode())
		for _, p := range headers {
			_ = sw.WriteBytes(p.Encode())
		}
		if err := sw.Err(); err != nil {
			return err
		}

		if delta == 0 {
			_, err := io.Copy(w, io.NewSectionReader(src, audioStart, info.Size()-audioStart))
			return err
		}
		return renumber(sr, audioStart, first.SerialNumber, delta, sw)
	})
}

// renumber copies the pages from off to the end, shifting the sequence
// numbers of pages in stream serial by delta.
func renumber(sr *binary.SafeReader, off int64, serial uint32, delta int64, sw *binary.SafeWriter) error {
	for off < sr.Size() {
		page, next, err := readPage(sr, off)
		if err != nil {
			return fmt.Errorf("page at offset %d: %w", off, err)
		}
		if page.SerialNumber == serial {
			page.SequenceNumber = uint32(int64(page.SequenceNumber) + delta)
		}
		if err := sw.WriteBytes(page.Encode()); err != nil {
			return err
		}
		off = next
	}
	return nil
}

func (e *editor) Close() error {
	return nil
}
