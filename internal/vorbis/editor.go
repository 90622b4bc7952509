package vorbis

import (
	"github.com/simonhull/audiolib/internal/types"
)

// KeyEditor applies symbolic field edits to a comment block. The FLAC and
// Ogg editors embed it and add their own Save.
type KeyEditor struct {
	Block *Block
}

// Kind reports the tag dialect.
func (e *KeyEditor) Kind() types.TagKind {
	return types.TagVorbis
}

// Get returns the first value stored under any native key for key.
func (e *KeyEditor) Get(key types.FieldKey) (string, error) {
	native, err := nativeKeys(key)
	if err != nil {
		return "", err
	}
	for _, k := range native {
		if values := e.Block.Get(k); len(values) > 0 && values[0] != "" {
			return values[0], nil
		}
	}
	return "", nil
}

// Set stores value under the primary native key and clears the
// fallbacks. An empty value deletes the field.
func (e *KeyEditor) Set(key types.FieldKey, value string) error {
	native, err := nativeKeys(key)
	if err != nil {
		return err
	}
	e.Block.Delete(native...)
	if value != "" {
		e.Block.Set(native[0], value)
	}
	return nil
}

// Delete removes the field.
func (e *KeyEditor) Delete(key types.FieldKey) error {
	return e.Set(key, "")
}

func nativeKeys(key types.FieldKey) ([]string, error) {
	native := types.TagVorbis.NativeKeys(key)
	if len(native) == 0 {
		return nil, &types.UnsupportedKeyError{Key: key, Kind: types.TagVorbis}
	}
	return native, nil
}
