package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/simonhull/audiolib/internal/mp3"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

// openEditor edits the embedded ID3 tag when the file has one and the
// LIST/INFO chunk otherwise.
func openEditor(path string) (registry.Editor, error) {
	riff, f, err := loadRIFF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if i := riff.find(func(c chunk) bool { return isID3Chunk(c.id) }); i >= 0 {
		c := riff.chunks[i]
		body := make([]byte, c.size)
		if _, err := f.ReadAt(body, c.bodyOffset()); err != nil {
			return nil, fmt.Errorf("read id3 chunk of %s: %w", path, err)
		}
		t, err := id3v2.ParseReader(bytes.NewReader(body), id3v2.Options{Parse: true})
		if err != nil {
			if errors.Is(err, id3v2.ErrUnsupportedVersion) {
				return nil, &types.UnsupportedWriteError{Format: types.FormatWAV, Reason: "ID3v2.2 tags cannot be rewritten"}
			}
			return nil, fmt.Errorf("parse id3 chunk of %s: %w", path, err)
		}
		return &id3Editor{TagEditor: mp3.NewTagEditor(t), riff: riff}, nil
	}

	e := &infoEditor{riff: riff}
	if i := riff.find(e.isInfoChunk(f)); i >= 0 {
		c := riff.chunks[i]
		body := make([]byte, c.size)
		if _, err := f.ReadAt(body, c.bodyOffset()); err != nil {
			return nil, fmt.Errorf("read LIST chunk of %s: %w", path, err)
		}
		e.entries = parseInfo(body)
	}
	return e, nil
}

// id3Editor rewrites the "id3 " chunk.
type id3Editor struct {
	mp3.TagEditor
	riff *riffFile
}

func (e *id3Editor) Save() error {
	var buf bytes.Buffer
	if _, err := e.Tag.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode ID3 tag: %w", err)
	}
	i := e.riff.find(func(c chunk) bool { return isID3Chunk(c.id) })
	if buf.Len() == 0 {
		// A tag without frames encodes to nothing; drop the chunk.
		if i < 0 {
			return nil
		}
		return e.riff.rewrite(i, "", nil)
	}
	return e.riff.rewrite(i, "id3 ", buf.Bytes())
}

func (e *id3Editor) Close() error {
	return nil
}

// infoEditor rewrites the LIST/INFO chunk, appending one when the file
// has none.
type infoEditor struct {
	riff    *riffFile
	entries []infoEntry
}

// isInfoChunk matches LIST chunks whose list type is INFO.
func (e *infoEditor) isInfoChunk(f io.ReaderAt) func(c chunk) bool {
	return func(c chunk) bool {
		if c.id != "LIST" || c.size < 4 {
			return false
		}
		typ := make([]byte, 4)
		if _, err := f.ReadAt(typ, c.bodyOffset()); err != nil {
			return false
		}
		return isInfoList(typ)
	}
}

// Kind reports the tag dialect.
func (e *infoEditor) Kind() types.TagKind {
	return types.TagRIFFInfo
}

func nativeKeys(key types.FieldKey) ([]string, error) {
	native := types.TagRIFFInfo.NativeKeys(key)
	if len(native) == 0 {
		return nil, &types.UnsupportedKeyError{Key: key, Kind: types.TagRIFFInfo}
	}
	return native, nil
}

// Get returns the first value stored under any native key for key.
func (e *infoEditor) Get(key types.FieldKey) (string, error) {
	native, err := nativeKeys(key)
	if err != nil {
		return "", err
	}
	for _, id := range native {
		for _, en := range e.entries {
			if en.id == id {
				return en.value, nil
			}
		}
	}
	return "", nil
}

// Set stores value under the primary native key and removes the
// fallbacks. An empty value deletes the field.
func (e *infoEditor) Set(key types.FieldKey, value string) error {
	native, err := nativeKeys(key)
	if err != nil {
		return err
	}
	if strings.ContainsRune(value, 0) {
		return &types.InvalidValueError{Key: key, Value: value, Reason: "INFO values cannot contain NUL"}
	}

	kept := e.entries[:0]
	replaced := false
	for _, en := range e.entries {
		switch {
		case en.id == native[0] && value != "" && !replaced:
			en.value = value
			replaced = true
			kept = append(kept, en)
		case slices.Contains(native, en.id):
			// dropped
		default:
			kept = append(kept, en)
		}
	}
	e.entries = kept
	if value != "" && !replaced {
		e.entries = append(e.entries, infoEntry{id: native[0], value: value})
	}
	return nil
}

// Delete removes the field.
func (e *infoEditor) Delete(key types.FieldKey) error {
	return e.Set(key, "")
}

func (e *infoEditor) Save() error {
	src, err := os.Open(e.riff.path)
	if err != nil {
		return err
	}
	i := e.riff.find(e.isInfoChunk(src))
	src.Close()

	var body []byte
	if len(e.entries) > 0 {
		body = encodeInfo(e.entries)
	}
	if i < 0 && body == nil {
		return nil
	}
	return e.riff.rewrite(i, "LIST", body)
}

func (e *infoEditor) Close() error {
	return nil
}
