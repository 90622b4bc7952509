package audiolib

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// HasURI is implemented by anything with a stable resource identifier.
type HasURI interface {
	URI() string
}

// FileBased is implemented by items that may be backed by a local file.
// File is only meaningful when IsFileBased reports true.
type FileBased interface {
	IsFileBased() bool
	File() string
}

// Corruptible is implemented by items that can be flagged unreadable.
type Corruptible interface {
	IsCorrupt() bool
}

// Item is the capability set metadata can be read for. Metadata itself
// and playlist items implement it independently.
type Item interface {
	HasURI
	FileBased
	Corruptible
}

// FileURI returns the file:// URI of path, made absolute when possible.
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// pathFromURI returns the local path of a file:// URI, or "".
func pathFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

// FileItem is a plain local file.
type FileItem string

func (f FileItem) URI() string       { return FileURI(string(f)) }
func (f FileItem) IsFileBased() bool { return true }
func (f FileItem) File() string      { return string(f) }
func (f FileItem) IsCorrupt() bool   { return false }

// PlaylistItem is a lightweight playlist entry: a URI plus whatever the
// playlist already knows about it. FromStub turns it into Metadata
// without touching the file.
type PlaylistItem struct {
	Location string
	Name     string // "Artist - Title" or just a title
	Length   time.Duration
	Corrupt  bool
}

// URI returns Location as is when it has a scheme, else its file URI.
func (p PlaylistItem) URI() string {
	if strings.Contains(p.Location, "://") {
		return p.Location
	}
	return FileURI(p.Location)
}

func (p PlaylistItem) IsFileBased() bool {
	return pathFromURI(p.URI()) != ""
}

func (p PlaylistItem) File() string {
	return pathFromURI(p.URI())
}

func (p PlaylistItem) IsCorrupt() bool { return p.Corrupt }

// Playback is suspended around a write of the file it is playing. The
// default does nothing.
type Playback interface {
	Suspend(path string)
	Resume(path string)
}

type noPlayback struct{}

func (noPlayback) Suspend(string) {}
func (noPlayback) Resume(string)  {}

// Notifier surfaces a short user-facing message, e.g. after a rating
// change. A nil Notifier is ignored.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }
