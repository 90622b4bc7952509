package audiolib

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Unknown is the sentinel for numeric fields without a value.
const Unknown = -1

// Metadata is the normalized, immutable metadata of one audio resource.
//
// Every accessor returns a value: absent strings are "", absent numbers
// are Unknown, an absent cover is a nil *Cover. Values are safe to share
// between goroutines. Changes go through a Writer and a fresh Read.
type Metadata struct {
	uri    string
	path   string
	format Format

	size       int64
	encoding   string
	bitrate    int // kbps
	channels   string
	sampleRate string
	length     float64 // milliseconds

	title       string
	album       string
	artist      string
	albumArtist string
	composer    string
	publisher   string
	track       int
	tracksTotal int
	disc        int
	discsTotal  int
	genre       string
	year        int
	cover       *Cover
	rating      int
	ratingMax   int
	playcount   int
	category    string
	comment     string
	lyrics      string
	mood        string
	custom      [5]string

	synthetic Synthetic
	chapters  []Chapter
}

// Empty stands for "no metadata". Compare with IsEmpty, never by value.
var Empty = newMetadata("")

func newMetadata(uri string) *Metadata {
	return &Metadata{
		uri:         uri,
		size:        Unknown,
		bitrate:     Unknown,
		track:       Unknown,
		tracksTotal: Unknown,
		disc:        Unknown,
		discsTotal:  Unknown,
		year:        Unknown,
		rating:      Unknown,
		ratingMax:   100,
		playcount:   Unknown,
	}
}

// FromStub builds partial metadata from a playlist entry without reading
// the file: the URI, a title and artist split from "Artist - Title", and
// the length.
func FromStub(item PlaylistItem) *Metadata {
	m := newMetadata(item.URI())
	m.path = item.File()
	if m.path != "" {
		m.format = formatFromPath(m.path)
	}
	if artist, title, ok := strings.Cut(item.Name, " - "); ok {
		m.artist = strings.TrimSpace(artist)
		m.title = strings.TrimSpace(title)
	} else {
		m.title = strings.TrimSpace(item.Name)
	}
	if item.Length > 0 {
		m.length = float64(item.Length) / float64(time.Millisecond)
	}
	return m
}

// IsEmpty reports whether m is the Empty singleton.
func (m *Metadata) IsEmpty() bool { return m == Empty }

func (m *Metadata) URI() string { return m.uri }

// IsFileBased reports whether the metadata belongs to a local file.
func (m *Metadata) IsFileBased() bool { return m.path != "" }

// File returns the local path, or "".
func (m *Metadata) File() string { return m.path }

// IsCorrupt reports true for Empty, which stands in for unreadable files.
func (m *Metadata) IsCorrupt() bool { return m.IsEmpty() }

func (m *Metadata) Format() Format { return m.format }

// Filename returns the base name of the file, or "".
func (m *Metadata) Filename() string {
	if m.path == "" {
		return ""
	}
	return filepath.Base(m.path)
}

// Size returns the file size in bytes, or Unknown.
func (m *Metadata) Size() int64           { return m.size }
func (m *Metadata) Encoding() string      { return m.encoding }
func (m *Metadata) Bitrate() int          { return m.bitrate }
func (m *Metadata) Channels() string      { return m.channels }
func (m *Metadata) SampleRate() string    { return m.sampleRate }
func (m *Metadata) LengthMillis() float64 { return m.length }

// Length returns the duration.
func (m *Metadata) Length() time.Duration {
	return time.Duration(m.length * float64(time.Millisecond))
}

func (m *Metadata) Title() string       { return m.title }
func (m *Metadata) Album() string       { return m.album }
func (m *Metadata) Artist() string      { return m.artist }
func (m *Metadata) AlbumArtist() string { return m.albumArtist }
func (m *Metadata) Composer() string    { return m.composer }
func (m *Metadata) Publisher() string   { return m.publisher }
func (m *Metadata) Track() int          { return m.track }
func (m *Metadata) TracksTotal() int    { return m.tracksTotal }
func (m *Metadata) Disc() int           { return m.disc }
func (m *Metadata) DiscsTotal() int     { return m.discsTotal }
func (m *Metadata) Genre() string       { return m.genre }
func (m *Metadata) Year() int           { return m.year }
func (m *Metadata) Category() string    { return m.category }
func (m *Metadata) Comment() string     { return m.comment }
func (m *Metadata) Lyrics() string      { return m.lyrics }
func (m *Metadata) Mood() string        { return m.mood }

// Cover returns the lazy artwork handle; nil when the format carries no
// artwork.
func (m *Metadata) Cover() *Cover { return m.cover }

// Custom returns custom slot n (1..5), or "" for other n.
func (m *Metadata) Custom(n int) string {
	if n < 1 || n > len(m.custom) {
		return ""
	}
	return m.custom[n-1]
}

// Rating returns the rating on the 0..RatingMax scale, or Unknown.
func (m *Metadata) Rating() int { return m.rating }

// RatingMax is 255 for ratings carried by ID3 and 100 otherwise.
func (m *Metadata) RatingMax() int { return m.ratingMax }

// RatingPercent returns the rating as a fraction in 0..1, or 0 when the
// rating is unknown.
func (m *Metadata) RatingPercent() float64 {
	if m.rating < 0 || m.ratingMax <= 0 {
		return 0
	}
	return float64(m.rating) / float64(m.ratingMax)
}

// Playcount returns the play count with Unknown mapped to 0.
func (m *Metadata) Playcount() int { return max(m.playcount, 0) }

// PlaycountRaw returns the play count or Unknown.
func (m *Metadata) PlaycountRaw() int { return m.playcount }

// TrackInfo renders "N/M" with "?" for an unknown side.
func (m *Metadata) TrackInfo() string { return pairInfo(m.track, m.tracksTotal) }

// DiscInfo renders "N/M" with "?" for an unknown side.
func (m *Metadata) DiscInfo() string { return pairInfo(m.disc, m.discsTotal) }

func pairInfo(n, total int) string {
	side := func(v int) string {
		if v < 0 {
			return "?"
		}
		return fmt.Sprint(v)
	}
	return side(n) + "/" + side(total)
}

// Synthetic returns the decoded synthetic fields.
func (m *Metadata) Synthetic() Synthetic { return m.synthetic }

func (m *Metadata) PlayedFirst() time.Time  { return m.synthetic.Time(SyntheticPlayedFirst) }
func (m *Metadata) PlayedLast() time.Time   { return m.synthetic.Time(SyntheticPlayedLast) }
func (m *Metadata) LibraryAdded() time.Time { return m.synthetic.Time(SyntheticLibraryAdded) }

// Color returns the user-assigned color, e.g. "#ff8800", or "".
func (m *Metadata) Color() string {
	v, _ := m.synthetic.Get(SyntheticColor)
	return v
}

// Tags returns the user-assigned free-form tags.
func (m *Metadata) Tags() []string { return m.synthetic.List(SyntheticTags) }

// Chapters returns the chapters sorted by time.
func (m *Metadata) Chapters() []Chapter { return slices.Clone(m.chapters) }

// Fulltext joins the text of every string-representable field for
// search indexing.
func (m *Metadata) Fulltext() string {
	var parts []string
	for _, f := range Fields() {
		if !f.IsStringRepresentable() || f == FieldFulltext {
			continue
		}
		if s := f.Format(m); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Equal reports whether m and o describe the same resource.
func (m *Metadata) Equal(o *Metadata) bool {
	return m.uri == o.uri
}

// Compare orders by artist, album, disc, track and title.
func (m *Metadata) Compare(o *Metadata) int {
	return cmp.Or(
		strings.Compare(m.artist, o.artist),
		strings.Compare(m.album, o.album),
		cmp.Compare(m.disc, o.disc),
		cmp.Compare(m.track, o.track),
		strings.Compare(m.title, o.title),
	)
}

func (m *Metadata) String() string {
	if m.IsEmpty() {
		return "<empty>"
	}
	if m.artist == "" {
		return m.title
	}
	return m.artist + " - " + m.title
}
