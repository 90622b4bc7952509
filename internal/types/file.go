// Package types provides the data structures shared by the format
// parsers and editors: the parsed File, its raw Tags, AudioInfo, artwork,
// the symbolic field keys and the error types.
package types

// File is the result of parsing one audio file.
//
// Tags are keyed in the dialect named by TagKind. Artwork is not part of
// File; it is extracted on demand through the registry.
type File struct {
	Path     string
	Warnings []Warning
	Tags     Tags
	Audio    AudioInfo
	Format   Format
	TagKind  TagKind
	Size     int64
}

// Warn records a non-fatal parse problem.
func (f *File) Warn(stage, message string, offset int64) {
	f.Warnings = append(f.Warnings, Warning{Stage: stage, Message: message, Offset: offset})
}

// Lookup returns the first non-empty value stored under any native key
// for key in the file's dialect. It returns an *UnsupportedKeyError when
// the dialect cannot carry key.
func (f *File) Lookup(key FieldKey) (string, error) {
	native := f.TagKind.NativeKeys(key)
	if len(native) == 0 {
		return "", &UnsupportedKeyError{Key: key, Kind: f.TagKind}
	}
	return f.Tags.GetBest(native...), nil
}
