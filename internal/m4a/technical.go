package m4a

import (
	"errors"
	"time"

	"github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

// parseTechnicalInfo extracts duration, bitrate, sample rate, channels and
// codec from mvhd and the first sound track's sample description.
func parseTechnicalInfo(sr *binary.SafeReader, moov *Atom, file *types.File) error {
	file.Audio.Container = "MP4"

	mvhd, err := findAtom(sr, moov.DataOffset(), moov.End(), "mvhd")
	if err != nil {
		return err
	}
	if err := parseMvhd(sr, mvhd, file); err != nil {
		return err
	}

	stsd, err := soundSampleDescription(sr, moov)
	if err != nil {
		return err
	}
	if err := parseStsd(sr, stsd, file); err != nil {
		return err
	}

	// Fall back to the overall rate when esds carried no average bitrate.
	if file.Audio.Bitrate == 0 && file.Audio.Duration > 0 && file.Size > 0 {
		file.Audio.Bitrate = int(float64(file.Size) * 8 / file.Audio.Duration.Seconds())
	}
	return nil
}

// soundSampleDescription returns the stsd atom of the first track whose
// handler is "soun", or of the first track when none declares one.
func soundSampleDescription(sr *binary.SafeReader, moov *Atom) (*Atom, error) {
	var traks []*Atom
	err := walkAtoms(sr, moov.DataOffset(), moov.End(), func(a *Atom) bool {
		if a.Type == "trak" {
			traks = append(traks, a)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(traks) == 0 {
		return nil, errors.New("no trak atom")
	}

	chosen := traks[0]
	for _, trak := range traks {
		hdlr, err := findPath(sr, trak, "mdia", "hdlr")
		if err != nil {
			continue
		}
		// version/flags (4) + pre_defined (4) precede the handler type.
		if b, err := sr.Bytes(hdlr.DataOffset()+8, 4, "handler type"); err == nil && string(b) == "soun" {
			chosen = trak
			break
		}
	}
	return findPath(sr, chosen, "mdia", "minf", "stbl", "stsd")
}

// parseMvhd parses the movie header atom for duration.
func parseMvhd(sr *binary.SafeReader, mvhdAtom *Atom, file *types.File) error {
	offset := mvhdAtom.DataOffset()

	version, err := binary.Read[uint8](sr, offset, "mvhd version")
	if err != nil {
		return err
	}
	// Skip version and flags
	offset += 4

	var timescale uint32
	var duration uint64

	if version == 1 {
		timescale, duration, err = parseMvhdVersion1(sr, offset)
	} else {
		timescale, duration, err = parseMvhdVersion0(sr, offset)
	}
	if err != nil {
		return err
	}

	if timescale > 0 {
		seconds := duration / uint64(timescale)
		rest := duration % uint64(timescale)
		file.Audio.Duration = time.Duration(seconds)*time.Second +
			time.Duration(rest*uint64(time.Second)/uint64(timescale))
	}

	return nil
}

// parseMvhdVersion0 parses 32-bit mvhd (version 0).
func parseMvhdVersion0(sr *binary.SafeReader, offset int64) (timescale uint32, duration uint64, err error) {
	// Skip creation time (4 bytes) and modification time (4 bytes)
	offset += 8

	timescale, err = binary.Read[uint32](sr, offset, "mvhd timescale")
	if err != nil {
		return 0, 0, err
	}
	offset += 4

	duration32, err := binary.Read[uint32](sr, offset, "mvhd duration")
	if err != nil {
		return 0, 0, err
	}

	return timescale, uint64(duration32), nil
}

// parseMvhdVersion1 parses 64-bit mvhd (version 1).
func parseMvhdVersion1(sr *binary.SafeReader, offset int64) (timescale uint32, duration uint64, err error) {
	// Skip creation time (8 bytes) and modification time (8 bytes)
	offset += 16

	timescale, err = binary.Read[uint32](sr, offset, "mvhd timescale")
	if err != nil {
		return 0, 0, err
	}
	offset += 4

	duration, err = binary.Read[uint64](sr, offset, "mvhd duration")
	if err != nil {
		return 0, 0, err
	}

	return timescale, duration, nil
}

// parseStsd parses the sample description atom for codec, sample rate,
// channels and bit depth.
func parseStsd(sr *binary.SafeReader, stsdAtom *Atom, file *types.File) error {
	// [4] version/flags [4] entry count, then the first sample entry:
	// [4] size [4] format [6] reserved [2] data reference index
	// [2] version [2] revision [4] vendor
	// [2] channels [2] sample size [2] compression ID [2] packet size
	// [4] sample rate (16.16 fixed point)
	r := binary.NewReader(sr, stsdAtom.DataOffset()+4)

	numEntries, err := binary.ReadValue[uint32](r, "stsd entry count")
	if err != nil {
		return err
	}
	if numEntries == 0 {
		return nil
	}

	entryOffset := r.Offset()
	entrySize, err := binary.ReadValue[uint32](r, "stsd entry size")
	if err != nil {
		return err
	}
	fourCC, err := r.ReadString(4, "stsd format")
	if err != nil {
		return err
	}
	r.Skip(8 + 8)

	channels, err := binary.ReadValue[uint16](r, "channels")
	if err != nil {
		return err
	}
	sampleSize, err := binary.ReadValue[uint16](r, "sample size")
	if err != nil {
		return err
	}
	r.Skip(4)
	sampleRate, err := binary.ReadValue[uint32](r, "sample rate")
	if err != nil {
		return err
	}

	file.Audio.Channels = int(channels)
	file.Audio.SampleRate = int(sampleRate >> 16)
	file.Audio.Codec = codecName(fourCC)
	file.Audio.Lossless = losslessCodecs[fourCC]
	if file.Audio.Lossless {
		file.Audio.BitDepth = int(sampleSize)
	}

	if fourCC == "mp4a" {
		entryEnd := min(entryOffset+int64(entrySize), stsdAtom.End())
		details := parseESDS(sr, r.Offset(), entryEnd)
		if details.profile != "" {
			file.Audio.Codec = details.profile
		}
		if details.avgBitrate > 0 {
			file.Audio.Bitrate = details.avgBitrate
		}
	}

	return nil
}
