// Package registry maps audio formats to their parsers and tag editors.
// Format packages register themselves from init functions.
package registry

import (
	"io"
	"sync"

	"github.com/simonhull/audiolib/internal/types"
)

// FormatParser is the interface all format parsers implement.
type FormatParser interface {
	// Parse reads tags and technical info. Path, Format and Size are set
	// by the caller.
	Parse(r io.ReaderAt, size int64, path string) (*types.File, error)
}

// ArtworkExtractor is an optional interface for parsers that support artwork extraction.
type ArtworkExtractor interface {
	ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error)
}

// Editor is an in-memory tag handle for one file. Changes are applied to
// the handle immediately and reach the file on Save.
//
// Get, Set and Delete return *types.UnsupportedKeyError for keys the
// file's tag dialect cannot carry and *types.InvalidValueError for values
// that cannot be encoded. An empty value passed to Set deletes the field.
type Editor interface {
	Kind() types.TagKind
	Get(key types.FieldKey) (string, error)
	Set(key types.FieldKey, value string) error
	Delete(key types.FieldKey) error
	Save() error
	Close() error
}

// EditorOpener opens an Editor for the file at path.
type EditorOpener func(path string) (Editor, error)

var (
	mu      sync.RWMutex
	parsers = make(map[types.Format]FormatParser)
	openers = make(map[types.Format]EditorOpener)
)

// Register registers a parser for a format.
func Register(format types.Format, parser FormatParser) {
	mu.Lock()
	defer mu.Unlock()
	parsers[format] = parser
}

// Get returns the parser for a given format, or nil.
func Get(format types.Format) FormatParser {
	mu.RLock()
	defer mu.RUnlock()
	return parsers[format]
}

// RegisterEditor registers an editor opener for a format.
func RegisterEditor(format types.Format, opener EditorOpener) {
	mu.Lock()
	defer mu.Unlock()
	openers[format] = opener
}

// GetEditor returns the editor opener for a given format, or nil.
func GetEditor(format types.Format) EditorOpener {
	mu.RLock()
	defer mu.RUnlock()
	return openers[format]
}
