// Package wav reads and edits tags in RIFF/WAVE files: the LIST/INFO
// chunk and an embedded ID3v2 tag in an "id3 " chunk.
package wav

import (
	"fmt"
	"io"
	"os"

	"github.com/simonhull/audiolib/internal/atomicfile"
	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

const riffHeaderSize = 12

// chunk is one top-level RIFF chunk.
type chunk struct {
	id     string
	offset int64 // start of the 8-byte header
	size   int64 // body size as declared
}

func (c chunk) bodyOffset() int64 { return c.offset + 8 }

// end returns the offset after the body and its pad byte.
func (c chunk) end() int64 { return c.offset + 8 + c.size + c.size%2 }

func isID3Chunk(id string) bool { return id == "id3 " || id == "ID3 " }

// readChunks walks the top-level chunks of a RIFF/WAVE file. A data chunk
// that claims more bytes than the file holds is clamped and reported
// through truncated; any other overrun is corruption.
func readChunks(sr *binary.SafeReader) (chunks []chunk, truncated bool, err error) {
	header, err := sr.Bytes(0, riffHeaderSize, "RIFF header")
	if err != nil {
		return nil, false, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, false, &types.CorruptedFileError{Path: sr.Path(), Reason: "not a RIFF/WAVE file"}
	}

	offset := int64(riffHeaderSize)
	for offset+8 <= sr.Size() {
		id, err := sr.Bytes(offset, 4, "chunk ID")
		if err != nil {
			return nil, false, err
		}
		size, err := binary.ReadLE[uint32](sr, offset+4, "chunk size")
		if err != nil {
			return nil, false, err
		}

		c := chunk{id: string(id), offset: offset, size: int64(size)}
		if c.bodyOffset()+c.size > sr.Size() {
			if c.id != "data" {
				return nil, false, &types.CorruptedFileError{
					Path:   sr.Path(),
					Offset: offset,
					Reason: fmt.Sprintf("%q chunk size %d overruns file", c.id, c.size),
				}
			}
			c.size = sr.Size() - c.bodyOffset()
			truncated = true
		}
		chunks = append(chunks, c)
		offset = c.end()
	}
	return chunks, truncated, nil
}

// riffFile is the chunk layout of a file opened for editing.
type riffFile struct {
	path   string
	chunks []chunk
}

func loadRIFF(path string) (*riffFile, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	chunks, truncated, err := readChunks(binary.NewSafeReader(f, stat.Size(), path))
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if truncated {
		f.Close()
		return nil, nil, &types.UnsupportedWriteError{Format: types.FormatWAV, Reason: "data chunk is truncated"}
	}
	return &riffFile{path: path, chunks: chunks}, f, nil
}

func (r *riffFile) find(match func(c chunk) bool) int {
	for i, c := range r.chunks {
		if match(c) {
			return i
		}
	}
	return -1
}

// rewrite writes the file with chunk i's body replaced. With i == -1 a
// new chunk of type id is appended. A nil body drops the chunk.
func (r *riffFile) rewrite(i int, id string, body []byte) error {
	src, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer src.Close()

	padded := func(n int64) int64 { return n + n%2 }

	total := int64(4) // "WAVE"
	for j, c := range r.chunks {
		if j != i {
			total += 8 + padded(c.size)
		}
	}
	if body != nil {
		total += 8 + padded(int64(len(body)))
	}
	if total > 0xFFFFFFFF {
		return &types.UnsupportedWriteError{Format: types.FormatWAV, Reason: "file exceeds 4 GiB"}
	}

	writeNew := func(sw *binary.SafeWriter) {
		sw.WriteString(id)
		binary.WriteLE(sw, uint32(len(body)))
		sw.WriteBytes(body)
		if len(body)%2 != 0 {
			sw.WriteBytes([]byte{0})
		}
	}

	err = atomicfile.Write(r.path, func(w io.Writer) error {
		sw := binary.NewSafeWriter(w)
		sw.WriteString("RIFF")
		binary.WriteLE(sw, uint32(total))
		sw.WriteString("WAVE")

		for j, c := range r.chunks {
			if j == i {
				if body != nil {
					writeNew(sw)
				}
				continue
			}
			if sw.Err() != nil {
				break
			}
			n := 8 + c.size
			if _, err := io.Copy(w, io.NewSectionReader(src, c.offset, n)); err != nil {
				return err
			}
			// The pad byte is rewritten rather than copied; some writers omit it.
			if c.size%2 != 0 {
				if _, err := w.Write([]byte{0}); err != nil {
					return err
				}
			}
		}
		if i == -1 && body != nil {
			writeNew(sw)
		}
		return sw.Err()
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}

	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return err
	}
	r.chunks, _, err = readChunks(binary.NewSafeReader(f, stat.Size(), r.path))
	return err
}
