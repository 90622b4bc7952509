package mp3

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	binutil "github.com/simonhull/audiolib/internal/binary"
	"github.com/simonhull/audiolib/internal/types"
)

const headerSize = 10

var errNoTag = errors.New("no ID3v2 tag")

// header represents an ID3v2 tag header
type header struct {
	Version  byte // Major version (2, 3 or 4)
	Revision byte
	Flags    byte
	Size     uint32 // Tag size excluding header, decoded from synchsafe
}

// frame is a single ID3v2 frame with its body already unsynchronised,
// decompressed and normalized to a four-character ID.
type frame struct {
	ID   string
	Data []byte
}

// tag is a decoded ID3v2 tag.
type tag struct {
	header
	frames []frame
}

// size returns the number of bytes the tag occupies, including the header
// and footer.
func (t *tag) size() int64 {
	n := int64(headerSize) + int64(t.Size)
	if t.Version == 4 && t.Flags&0x10 != 0 {
		n += headerSize
	}
	return n
}

// ID3v2.2 frame IDs that carry fields we read, mapped to their 2.3 names.
var v22Frames = map[string]string{
	"TT1": "TIT1", "TT2": "TIT2", "TAL": "TALB", "TP1": "TPE1",
	"TP2": "TPE2", "TCM": "TCOM", "TPB": "TPUB", "TRK": "TRCK",
	"TPA": "TPOS", "TCO": "TCON", "TYE": "TYER", "TXX": "TXXX",
	"COM": "COMM", "ULT": "USLT", "POP": "POPM", "CNT": "PCNT",
	"PIC": "APIC",
}

func parseHeader(buf []byte, path string) (header, error) {
	if len(buf) < headerSize || string(buf[0:3]) != "ID3" {
		return header{}, errNoTag
	}

	h := header{
		Version:  buf[3],
		Revision: buf[4],
		Flags:    buf[5],
		Size:     decodeSynchsafe(buf[6:10]),
	}
	if h.Version < 2 || h.Version > 4 {
		return header{}, &types.UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported ID3v2 version: 2.%d", h.Version),
		}
	}
	return h, nil
}

// readTag reads the ID3v2 tag starting at off.
func readTag(sr *binutil.SafeReader, off int64, file *types.File) (*tag, error) {
	buf := make([]byte, headerSize)
	if err := sr.ReadAt(buf, off, "ID3v2 header"); err != nil {
		return nil, errNoTag
	}
	h, err := parseHeader(buf, sr.Path())
	if err != nil {
		return nil, err
	}

	body, err := sr.Bytes(off+headerSize, int(h.Size), "ID3v2 tag body")
	if err != nil {
		return nil, &types.CorruptedFileError{
			Path:   sr.Path(),
			Offset: off,
			Reason: fmt.Sprintf("ID3v2 tag size %d exceeds file", h.Size),
		}
	}

	return &tag{header: h, frames: splitFrames(body, h, file)}, nil
}

// ParseTag decodes a complete ID3v2 tag held in data and stores its
// frames in file.Tags. It is used for tags embedded in other containers.
func ParseTag(data []byte, path string, file *types.File) error {
	h, err := parseHeader(data, path)
	if err != nil {
		return err
	}
	body := data[headerSize:]
	if int64(h.Size) > int64(len(body)) {
		file.Warn("metadata", fmt.Sprintf("ID3v2 tag size %d exceeds chunk", h.Size), 0)
	} else {
		body = body[:h.Size]
	}

	applyFrames(&tag{header: h, frames: splitFrames(body, h, file)}, file)
	return nil
}

// splitFrames walks the frames of a tag body. Malformed frames are
// reported on file and the walk stops at the first frame that overruns
// the body.
func splitFrames(body []byte, h header, file *types.File) []frame {
	if h.Flags&0x80 != 0 && h.Version < 4 {
		body = removeUnsync(body)
	}

	pos := 0
	if h.Flags&0x40 != 0 && h.Version >= 3 && len(body) >= 4 {
		if h.Version == 4 {
			pos = int(decodeSynchsafe(body[0:4]))
		} else {
			pos = int(binary.BigEndian.Uint32(body[0:4])) + 4
		}
	}

	frameHeader := 10
	if h.Version == 2 {
		frameHeader = 6
	}

	var frames []frame
	for pos+frameHeader <= len(body) {
		if body[pos] == 0 {
			break // padding
		}

		var (
			id    string
			size  int
			flags uint16
		)
		if h.Version == 2 {
			id = string(body[pos : pos+3])
			size = int(body[pos+3])<<16 | int(body[pos+4])<<8 | int(body[pos+5])
		} else {
			id = string(body[pos : pos+4])
			if h.Version == 4 {
				size = int(decodeSynchsafe(body[pos+4 : pos+8]))
			} else {
				size = int(binary.BigEndian.Uint32(body[pos+4 : pos+8]))
			}
			flags = binary.BigEndian.Uint16(body[pos+8 : pos+10])
		}

		if !validFrameID(id) {
			file.Warn("metadata", fmt.Sprintf("invalid frame ID %q, stopping", id), int64(pos))
			break
		}
		start := pos + frameHeader
		if size < 0 || start+size > len(body) {
			file.Warn("metadata", fmt.Sprintf("frame %s overruns tag", id), int64(pos))
			break
		}
		data := body[start : start+size]
		pos = start + size

		if h.Version == 2 {
			mapped, ok := v22Frames[id]
			if !ok {
				continue
			}
			id = mapped
		}

		data, err := frameBody(data, flags, h.Version)
		if err != nil {
			file.Warn("metadata", fmt.Sprintf("frame %s: %v", id, err), int64(pos))
			continue
		}
		frames = append(frames, frame{ID: id, Data: data})
	}

	return frames
}

// frameBody undoes the per-frame transformations announced by flags.
func frameBody(data []byte, flags uint16, version byte) ([]byte, error) {
	var compressed, encrypted bool

	switch version {
	case 3:
		compressed = flags&0x0080 != 0
		encrypted = flags&0x0040 != 0
		if compressed {
			if len(data) < 4 {
				return nil, errors.New("compressed frame too short")
			}
			data = data[4:]
		}
		if flags&0x0020 != 0 && len(data) > 0 {
			data = data[1:]
		}
	case 4:
		compressed = flags&0x0008 != 0
		encrypted = flags&0x0004 != 0
		if flags&0x0040 != 0 && len(data) > 0 {
			data = data[1:]
		}
		if flags&0x0001 != 0 {
			if len(data) < 4 {
				return nil, errors.New("data length indicator truncated")
			}
			data = data[4:]
		}
		if flags&0x0002 != 0 {
			data = removeUnsync(data)
		}
	}

	if encrypted {
		return nil, errors.New("encrypted frames are not supported")
	}
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decompress: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompress: %w", err)
		}
		data = out
	}
	return data, nil
}

// applyFrames stores the text-bearing frames of t in file.Tags.
func applyFrames(t *tag, file *types.File) {
	for _, f := range t.frames {
		if err := applyFrame(f, &file.Tags); err != nil {
			file.Warn("metadata", fmt.Sprintf("frame %s: %v", f.ID, err), 0)
		}
	}
	file.TagKind = types.TagID3v2
}

func applyFrame(f frame, tags *types.Tags) error {
	switch {
	case f.ID == "TXXX":
		if len(f.Data) < 2 {
			return errors.New("frame too short")
		}
		desc, value := splitDescribed(f.Data[1:], f.Data[0])
		tags.Add(types.ID3UserTextPrefix+desc, value)

	case f.ID[0] == 'T':
		if len(f.Data) < 1 {
			return nil
		}
		for _, v := range textValues(f.Data[1:], f.Data[0]) {
			tags.Add(f.ID, v)
		}

	case f.ID == "COMM", f.ID == "USLT":
		// [encoding][language(3)][description\0][text]
		if len(f.Data) < 4 {
			return errors.New("frame too short")
		}
		desc, text := splitDescribed(f.Data[4:], f.Data[0])
		if f.ID == "COMM" {
			tags.Add(types.ID3CommentPrefix+desc, text)
		} else {
			tags.Add("USLT", text)
		}

	case f.ID == "POPM":
		// [email\0][rating(1)][counter(4+)]
		idx := bytes.IndexByte(f.Data, 0)
		if idx < 0 || idx+1 >= len(f.Data) {
			return errors.New("frame truncated")
		}
		tags.Set(types.ID3PopmEmail, string(f.Data[:idx]))
		tags.Set(types.ID3PopmRating, fmt.Sprint(f.Data[idx+1]))
		if counter := f.Data[idx+2:]; len(counter) > 0 {
			tags.Set(types.ID3PopmCounter, new(big.Int).SetBytes(counter).String())
		}

	case f.ID == "PCNT":
		if len(f.Data) == 0 {
			return errors.New("empty counter")
		}
		tags.Set(types.ID3PlayCounter, new(big.Int).SetBytes(f.Data).String())
	}
	return nil
}

// decodeSynchsafe decodes a synchsafe integer (7 bits per byte)
func decodeSynchsafe(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

// removeUnsync reverses unsynchronisation: every 0xFF 0x00 becomes 0xFF.
func removeUnsync(data []byte) []byte {
	if bytes.IndexByte(data, 0xFF) < 0 {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == 0xFF && i+1 < len(data) && data[i+1] == 0x00 {
			i++
		}
	}
	return out
}

func validFrameID(id string) bool {
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
