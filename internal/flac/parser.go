// Package flac reads and edits FLAC metadata blocks.
package flac

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
	"github.com/simonhull/audiolib/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeApplication   = 2
	blockTypeSeekTable     = 3
	blockTypeVorbisComment = 4
	blockTypeCueSheet      = 5
	blockTypePicture       = 6
)

// parser implements registry.FormatParser for FLAC files
type parser struct{}

// block is one metadata block header.
type block struct {
	offset int64 // start of the block body
	length int64
	typ    uint8
	last   bool
}

// walkBlocks calls fn for each metadata block until the last-block flag,
// the end of data, or fn returning false.
func walkBlocks(sr *binary.SafeReader, fn func(b block) bool) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FLAC magic bytes"); err != nil {
		return fmt.Errorf("read FLAC magic: %w", err)
	}
	if string(magic) != "fLaC" {
		return &types.CorruptedFileError{Path: sr.Path(), Offset: 0, Reason: "invalid FLAC magic bytes"}
	}

	offset := int64(4)
	for offset < sr.Size() {
		header, err := binary.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return err
		}

		b := block{
			offset: offset + 4,
			length: int64(header & 0x00FFFFFF),
			typ:    uint8((header >> 24) & 0x7F),
			last:   (header >> 31) == 1,
		}
		if b.offset+b.length > sr.Size() {
			return &types.CorruptedFileError{
				Path:   sr.Path(),
				Offset: offset,
				Reason: fmt.Sprintf("metadata block type %d overruns file", b.typ),
			}
		}

		if !fn(b) || b.last {
			return nil
		}
		offset = b.offset + b.length
	}
	return nil
}

// Parse parses a FLAC file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binary.NewSafeReader(r, size, path)

	file := &types.File{
		Path:   path,
		Format: types.FormatFLAC,
		Size:   size,
	}

	err := walkBlocks(sr, func(b block) bool {
		switch b.typ {
		case blockTypeStreamInfo:
			if err := parseStreamInfo(sr, b.offset, b.length, file); err != nil {
				file.Warn("technical", fmt.Sprintf("failed to parse STREAMINFO: %v", err), b.offset)
			}
		case blockTypeVorbisComment:
			if err := parseVorbisComment(sr, b.offset, b.length, file); err != nil {
				file.Warn("metadata", fmt.Sprintf("failed to parse Vorbis comments: %v", err), b.offset)
			}
		}
		// Pictures are read lazily through ExtractArtwork; padding,
		// application, seek table and cue sheet blocks carry no tags.
		return true
	})
	if err != nil {
		var corrupted *types.CorruptedFileError
		if !errors.As(err, &corrupted) || corrupted.Offset == 0 {
			return nil, err
		}
		// A damaged block after the header leaves what was read so far.
		file.Warn("metadata", corrupted.Reason, corrupted.Offset)
	}

	file.Audio.Container = "FLAC"
	file.Audio.Codec = "FLAC"
	file.Audio.Lossless = true

	return file, nil
}

// ExtractArtwork extracts embedded artwork from FLAC files
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	sr := binary.NewSafeReader(r, size, path)

	var artwork []types.Artwork
	err := walkBlocks(sr, func(b block) bool {
		if b.typ == blockTypePicture {
			// A damaged picture is skipped; the rest may still be fine.
			if pic, err := vorbis.DecodePicture(sr, b.offset); err == nil {
				artwork = append(artwork, pic)
			}
		}
		return true
	})
	if err != nil && len(artwork) == 0 {
		return nil, err
	}
	return artwork, nil
}

// parseStreamInfo extracts audio info from STREAMINFO block
func parseStreamInfo(sr *binary.SafeReader, offset, blockLength int64, file *types.File) error {
	if blockLength != 34 {
		return fmt.Errorf("invalid STREAMINFO size: %d (expected 34)", blockLength)
	}

	data, err := sr.Bytes(offset, 34, "STREAMINFO block")
	if err != nil {
		return err
	}

	// Bytes 10-17: sample rate (20 bits), channels-1 (3), bits-1 (5), total samples (36)
	packed := binary.Get[uint64](data, 10, binary.BigEndian)

	sampleRate := (packed >> 44) & 0xFFFFF
	channels := ((packed >> 41) & 0x7) + 1
	bitsPerSample := ((packed >> 36) & 0x1F) + 1
	totalSamples := packed & 0xFFFFFFFFF

	if sampleRate > 0 {
		durationSeconds := float64(totalSamples) / float64(sampleRate)
		file.Audio.Duration = time.Duration(durationSeconds * float64(time.Second))
	}

	file.Audio.SampleRate = int(sampleRate)
	file.Audio.Channels = int(channels)
	file.Audio.BitDepth = int(bitsPerSample)

	// FLAC is variable bitrate; estimate from size and duration.
	if file.Audio.Duration > 0 {
		file.Audio.Bitrate = int(float64(file.Size) * 8 / file.Audio.Duration.Seconds())
	}

	return nil
}

// parseVorbisComment extracts tags from VORBIS_COMMENT block
func parseVorbisComment(sr *binary.SafeReader, offset, blockLength int64, file *types.File) error {
	data, err := sr.Bytes(offset, int(blockLength), "VORBIS_COMMENT block")
	if err != nil {
		return err
	}

	block, err := vorbis.Decode(data, sr.Path())
	if block != nil {
		block.Apply(file)
	}
	return err
}

func init() {
	registry.Register(types.FormatFLAC, &parser{})
	registry.RegisterEditor(types.FormatFLAC, openEditor)
}
