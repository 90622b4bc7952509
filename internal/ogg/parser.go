package ogg

import (
	"fmt"
	"io"
	"time"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
	"github.com/simonhull/audiolib/internal/vorbis"
)

const (
	codecVorbis  = "vorbis"
	codecOpus    = "opus"
	containerOgg = "Ogg"

	// maxHeaderPages bounds the pages read while collecting header packets.
	maxHeaderPages = 512
)

// parser implements registry.FormatParser for Ogg Vorbis and Ogg Opus.
type parser struct{}

// stream is the decoded header section of a logical stream.
type stream struct {
	codec   string
	reader  *packetReader
	comment *vorbis.Block
}

// headerCount returns the number of header packets for the codec.
func headerCount(codec string) int {
	if codec == codecVorbis {
		return 3
	}
	return 2
}

// readStream reads the identification and comment headers.
func readStream(sr *binary.SafeReader) (*stream, error) {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "Ogg magic bytes"); err != nil {
		return nil, fmt.Errorf("read Ogg magic: %w", err)
	}
	if string(magic) != "OggS" {
		return nil, &types.CorruptedFileError{Path: sr.Path(), Offset: 0, Reason: "invalid Ogg magic bytes"}
	}

	pr := newPacketReader(sr)
	if err := pr.readPackets(1, 1); err != nil {
		return nil, fmt.Errorf("failed to read first Ogg page: %w", err)
	}

	s := &stream{codec: detectOggCodec(pr.packets[0]), reader: pr}
	if s.codec == "" {
		return nil, &types.UnsupportedFormatError{Path: sr.Path(), Reason: "unknown Ogg codec"}
	}

	if err := pr.readPackets(2, maxHeaderPages); err != nil {
		return s, &types.CorruptedFileError{
			Path:   sr.Path(),
			Offset: pr.offset,
			Reason: fmt.Sprintf("comment header incomplete: %v", err),
		}
	}

	var err error
	if s.codec == codecVorbis {
		s.comment, err = decodeVorbisComment(pr.packets[1], sr.Path())
	} else {
		s.comment, err = decodeOpusTags(pr.packets[1], sr.Path())
	}
	return s, err
}

// Parse parses an Ogg Vorbis or Opus file and extracts metadata.
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binary.NewSafeReader(r, size, path)

	s, err := readStream(sr)
	if s == nil {
		return nil, err
	}

	file := &types.File{
		Path:   path,
		Format: types.FormatOgg,
		Size:   size,
	}

	switch s.codec {
	case codecVorbis:
		if err := parseVorbisIdentification(s.reader.packets[0], file); err != nil {
			return nil, fmt.Errorf("failed to parse Vorbis identification header: %w", err)
		}
	case codecOpus:
		file.Format = types.FormatOpus
		if err := parseOpusHead(s.reader.packets[0], file); err != nil {
			return nil, fmt.Errorf("failed to parse OpusHead header: %w", err)
		}
	}

	if s.comment != nil {
		s.comment.Apply(file)
	}
	if err != nil {
		file.Warn("metadata", fmt.Sprintf("failed to parse comment header: %v", err), 0)
	}
	file.TagKind = types.TagVorbis

	if file.Audio.SampleRate > 0 {
		// Opus granules always count 48 kHz samples.
		duration, err := calculateDuration(sr, size, file.Audio.SampleRate)
		if err != nil {
			file.Warn("technical", fmt.Sprintf("failed to calculate duration: %v", err), 0)
		} else {
			file.Audio.Duration = duration
		}
	}

	if s.codec == codecOpus && file.Audio.Duration > 0 {
		file.Audio.Bitrate = estimateOpusBitrate(size, file.Audio.Duration)
	}

	return file, nil
}

// detectOggCodec determines whether this is Vorbis or Opus by examining
// the magic marker in the first packet. It returns "" for other codecs.
func detectOggCodec(firstPacket []byte) string {
	if len(firstPacket) >= 8 && string(firstPacket[0:8]) == "OpusHead" {
		return codecOpus
	}
	if len(firstPacket) >= 7 && firstPacket[0] == 0x01 && string(firstPacket[1:7]) == codecVorbis {
		return codecVorbis
	}
	return ""
}

// estimateOpusBitrate estimates the bitrate for an Opus file.
//
// Opus files don't have a nominal bitrate field in the header, so we
// estimate it from the file size and duration, less about 5KB of headers.
func estimateOpusBitrate(fileSize int64, duration time.Duration) int {
	seconds := duration.Seconds()
	if seconds == 0 {
		return 0
	}

	audioSize := fileSize - 5000
	if audioSize < 0 {
		audioSize = fileSize
	}

	return int((float64(audioSize) * 8) / seconds)
}

// Duration = granule_position / sample_rate.
func calculateDuration(sr *binary.SafeReader, fileSize int64, sampleRate int) (time.Duration, error) {
	if sampleRate == 0 {
		return 0, fmt.Errorf("sample rate is zero")
	}

	granule, err := findLastGranulePosition(sr, fileSize)
	if err != nil {
		return 0, err
	}

	// Granule position -1 means "not set"
	if granule < 0 {
		return 0, fmt.Errorf("granule position not set")
	}

	seconds := float64(granule) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

// init registers the Ogg parser and editor for both Vorbis and Opus.
func init() {
	p := &parser{}
	registry.Register(types.FormatOgg, p)
	registry.Register(types.FormatOpus, p)
	registry.RegisterEditor(types.FormatOgg, openEditor)
	registry.RegisterEditor(types.FormatOpus, openEditor)
}
