// Package vorbis provides the Vorbis comment codec shared by FLAC and Ogg.
//
// A comment block is a vendor string followed by a list of UTF-8
// "KEY=VALUE" strings, all length-prefixed little-endian. Keys are
// case-insensitive; they are stored upper-cased in types.Tags.
package vorbis

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

// Block is a decoded comment block.
type Block struct {
	Vendor   string
	Comments []string
}

// Decode reads a comment block body (without any packet type prefix).
// A truncated list returns the comments read so far together with an error.
func Decode(data []byte, path string) (*Block, error) {
	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)
	r := binary.NewReader(sr, 0)

	vendorLen, err := binary.ReadValueLE[uint32](r, "vendor string length")
	if err != nil {
		return nil, err
	}
	vendor, err := r.ReadString(int(vendorLen), "vendor string")
	if err != nil {
		return nil, err
	}

	block := &Block{Vendor: vendor}

	count, err := binary.ReadValueLE[uint32](r, "number of comments")
	if err != nil {
		return block, err
	}

	for i := uint32(0); i < count; i++ {
		n, err := binary.ReadValueLE[uint32](r, "comment length")
		if err != nil {
			return block, fmt.Errorf("comment %d: %w", i, err)
		}
		if int64(n) > r.Remaining() {
			return block, &types.CorruptedFileError{
				Path:   path,
				Offset: r.Offset(),
				Reason: fmt.Sprintf("comment %d length %d exceeds block", i, n),
			}
		}
		comment, err := r.ReadString(int(n), "comment")
		if err != nil {
			return block, fmt.Errorf("comment %d: %w", i, err)
		}
		block.Comments = append(block.Comments, comment)
	}

	return block, nil
}

// Encode serializes the block body.
func (b *Block) Encode() []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = binary.WriteLE[uint32](sw, uint32(len(b.Vendor)))
	_ = sw.WriteString(b.Vendor)
	_ = binary.WriteLE[uint32](sw, uint32(len(b.Comments)))
	for _, c := range b.Comments {
		_ = binary.WriteLE[uint32](sw, uint32(len(c)))
		_ = sw.WriteString(c)
	}
	return buf.Bytes()
}

// Get returns the values stored under key, compared case-insensitively.
func (b *Block) Get(key string) []string {
	var values []string
	for _, c := range b.Comments {
		if k, v, ok := strings.Cut(c, "="); ok && strings.EqualFold(k, key) {
			values = append(values, v)
		}
	}
	return values
}

// Delete removes every comment stored under any of keys.
func (b *Block) Delete(keys ...string) {
	kept := b.Comments[:0]
	for _, c := range b.Comments {
		k, _, _ := strings.Cut(c, "=")
		if !matchesAny(k, keys) {
			kept = append(kept, c)
		}
	}
	b.Comments = kept
}

// Set replaces every comment stored under key with values.
func (b *Block) Set(key string, values ...string) {
	b.Delete(key)
	key = strings.ToUpper(key)
	for _, v := range values {
		b.Comments = append(b.Comments, key+"="+v)
	}
}

// Apply stores every comment into file.Tags, recording malformed ones as
// warnings.
func (b *Block) Apply(file *types.File) {
	for _, c := range b.Comments {
		if err := ParseComment(c, &file.Tags); err != nil {
			file.Warn("metadata", fmt.Sprintf("invalid Vorbis comment: %v", err), 0)
		}
	}
	file.TagKind = types.TagVorbis
}

// ParseComment parses a single "KEY=VALUE" comment and appends it to tags
// under the upper-cased key.
func ParseComment(comment string, tags *types.Tags) error {
	key, value, ok := strings.Cut(comment, "=")
	if !ok {
		return fmt.Errorf("missing '=' in comment: %s", comment)
	}
	if key == "" {
		return fmt.Errorf("empty key in comment: %s", comment)
	}
	tags.Add(strings.ToUpper(key), value)
	return nil
}

func matchesAny(key string, keys []string) bool {
	for _, k := range keys {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}
