// Package ogg reads and edits the comment headers of Ogg Vorbis and Ogg
// Opus streams.
package ogg

import (
	"bytes"
	"fmt"

	"github.com/simonhull/audiolib/internal/binary"
)

// Header type flags
const (
	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

const (
	pageHeaderSize = 27
	maxSegments    = 255
)

// Page represents an Ogg page.
//
// An Ogg page is the fundamental unit of the Ogg container format.
// Each page contains a header, a segment (lacing) table and payload data.
type Page struct {
	HeaderType      byte   // Bit flags: 0x01=continued, 0x02=BOS, 0x04=EOS
	GranulePosition int64  // Position in samples
	SerialNumber    uint32 // Logical bitstream identifier
	SequenceNumber  uint32 // Page sequence number
	Checksum        uint32
	Segments        []byte // Lacing values
	Data            []byte // Page payload (one or more packets)
}

// Size returns the encoded length of the page.
func (p *Page) Size() int64 {
	return int64(pageHeaderSize + len(p.Segments) + len(p.Data))
}

// Encode serializes the page with a freshly computed checksum.
func (p *Page) Encode() []byte {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	_ = sw.WriteString("OggS")
	_ = binary.Write[uint8](sw, 0)
	_ = binary.Write(sw, p.HeaderType)
	_ = binary.WriteLE(sw, uint64(p.GranulePosition))
	_ = binary.WriteLE(sw, p.SerialNumber)
	_ = binary.WriteLE(sw, p.SequenceNumber)
	_ = binary.WriteLE[uint32](sw, 0)
	_ = binary.Write(sw, uint8(len(p.Segments)))
	_ = sw.WriteBytes(p.Segments)
	_ = sw.WriteBytes(p.Data)

	out := buf.Bytes()
	p.Checksum = checksum(out)
	binary.Put(out, 22, p.Checksum, binary.LittleEndian)
	return out
}

// readPage reads an Ogg page at the given offset.
//
// Returns the page, next offset, and any error encountered.
func readPage(sr *binary.SafeReader, offset int64) (*Page, int64, error) {
	head, err := sr.Bytes(offset, pageHeaderSize, "Ogg page header")
	if err != nil {
		return nil, 0, err
	}
	if string(head[0:4]) != "OggS" {
		return nil, 0, fmt.Errorf("invalid Ogg page at offset %d", offset)
	}
	if head[4] != 0 {
		return nil, 0, fmt.Errorf("unsupported Ogg version: %d", head[4])
	}

	page := &Page{
		HeaderType:      head[5],
		GranulePosition: int64(binary.Get[uint64](head, 6, binary.LittleEndian)),
		SerialNumber:    binary.Get[uint32](head, 14, binary.LittleEndian),
		SequenceNumber:  binary.Get[uint32](head, 18, binary.LittleEndian),
		Checksum:        binary.Get[uint32](head, 22, binary.LittleEndian),
	}

	segmentCount := int(head[26])
	page.Segments, err = sr.Bytes(offset+pageHeaderSize, segmentCount, "segment table")
	if err != nil {
		return nil, 0, err
	}

	dataSize := 0
	for _, seg := range page.Segments {
		dataSize += int(seg)
	}

	dataOffset := offset + pageHeaderSize + int64(segmentCount)
	page.Data, err = sr.Bytes(dataOffset, dataSize, "page data")
	if err != nil {
		return nil, 0, err
	}

	return page, dataOffset + int64(dataSize), nil
}

// packetReader reassembles packets from consecutive pages using the
// lacing values: a segment shorter than 255 bytes ends a packet.
type packetReader struct {
	sr      *binary.SafeReader
	offset  int64
	pending []byte
	packets [][]byte
	pages   []*Page
	// ends[i] is the index into pages of the page on which packet i ends.
	ends []int
}

func newPacketReader(sr *binary.SafeReader) *packetReader {
	return &packetReader{sr: sr}
}

// readPackets reads pages until n packets are complete. It stops early
// with an error when the data runs out or after maxPages pages.
func (pr *packetReader) readPackets(n, maxPages int) error {
	for len(pr.packets) < n {
		if len(pr.pages) >= maxPages {
			return fmt.Errorf("header packets not complete after %d pages", maxPages)
		}
		page, next, err := readPage(pr.sr, pr.offset)
		if err != nil {
			return err
		}
		if len(pr.pages) > 0 && page.SerialNumber != pr.pages[0].SerialNumber {
			return fmt.Errorf("interleaved logical stream %d in header pages", page.SerialNumber)
		}
		pr.pages = append(pr.pages, page)
		pr.offset = next

		pos := 0
		for _, seg := range page.Segments {
			pr.pending = append(pr.pending, page.Data[pos:pos+int(seg)]...)
			pos += int(seg)
			if seg < 255 {
				pr.packets = append(pr.packets, pr.pending)
				pr.ends = append(pr.ends, len(pr.pages)-1)
				pr.pending = nil
			}
		}
	}
	return nil
}

// paginate lays packets out on new pages of one logical stream. Every
// page gets the given granule position and consecutive sequence numbers
// starting at seq. The last packet ends its page.
func paginate(packets [][]byte, serial, seq uint32, granule int64) []*Page {
	var pages []*Page
	page := &Page{SerialNumber: serial, SequenceNumber: seq, GranulePosition: granule}

	flush := func(continued bool) {
		pages = append(pages, page)
		seq++
		page = &Page{SerialNumber: serial, SequenceNumber: seq, GranulePosition: granule}
		if continued {
			page.HeaderType = flagContinued
		}
	}

	for _, packet := range packets {
		rest := packet
		for {
			if len(page.Segments) == maxSegments {
				flush(true)
			}
			n := min(len(rest), 255)
			page.Segments = append(page.Segments, byte(n))
			page.Data = append(page.Data, rest[:n]...)
			rest = rest[n:]
			if n < 255 {
				break
			}
		}
		if len(page.Segments) == maxSegments {
			flush(false)
		}
	}
	if len(page.Segments) > 0 {
		pages = append(pages, page)
	}
	return pages
}

// findLastGranulePosition searches backwards from the end of file
// to find the last Ogg page's granule position.
func findLastGranulePosition(sr *binary.SafeReader, fileSize int64) (int64, error) {
	// Search last 64KB for final page (typical max page size)
	searchStart := max(fileSize-65536, 0)

	buf, err := sr.Bytes(searchStart, int(fileSize-searchStart), "search region")
	if err != nil {
		return 0, err
	}

	idx := bytes.LastIndex(buf, []byte("OggS"))
	if idx < 0 {
		return 0, fmt.Errorf("could not find last Ogg page")
	}

	granule, err := binary.ReadLE[uint64](sr, searchStart+int64(idx)+6, "granule position")
	if err != nil {
		return 0, err
	}

	return int64(granule), nil
}
