package audiolib

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Field names one attribute of Metadata. Each Field carries a static
// descriptor and dispatches Get, Format and Group over a switch, so
// callers can treat metadata generically, e.g. as table columns.
type Field int

const (
	FieldPath Field = iota
	FieldFilename
	FieldFormat
	FieldFilesize
	FieldEncoding
	FieldBitrate
	FieldChannels
	FieldSampleRate
	FieldLength
	FieldTitle
	FieldAlbum
	FieldArtist
	FieldAlbumArtist
	FieldComposer
	FieldPublisher
	FieldTrack
	FieldTracksTotal
	FieldTrackInfo
	FieldDisc
	FieldDiscsTotal
	FieldDiscInfo
	FieldGenre
	FieldYear
	FieldCover
	FieldCoverInfo
	FieldRating
	FieldRatingRaw
	FieldPlaycount
	FieldCategory
	FieldComment
	FieldLyrics
	FieldMood
	FieldColor
	FieldTags
	FieldChapters
	FieldPlayedFirst
	FieldPlayedLast
	FieldLibraryAdded
	FieldCustom1
	FieldCustom2
	FieldCustom3
	FieldCustom4
	FieldCustom5
	FieldFulltext

	fieldCount
)

// ValueType is the Go type Field.Get returns.
type ValueType int

const (
	TypeString   ValueType = iota // string
	TypeInt                       // int, Unknown when absent
	TypeInt64                     // int64, Unknown when absent
	TypeDuration                  // time.Duration
	TypeFloat                     // float64 in 0..1
	TypeTime                      // time.Time, zero when absent
	TypeFormat                    // Format
	TypeStrings                   // []string
	TypeChapters                  // []Chapter
	TypeCover                     // *Cover
)

type fieldInfo struct {
	name        string
	description string
	typ         ValueType
	text        bool // string representable
	visible     bool
	width       int
}

var fieldInfos = [fieldCount]fieldInfo{
	FieldPath:         {"PATH", "Location of the file", TypeString, true, false, 200},
	FieldFilename:     {"FILENAME", "Name of the file", TypeString, true, false, 150},
	FieldFormat:       {"FORMAT", "Container format", TypeFormat, true, false, 60},
	FieldFilesize:     {"FILESIZE", "File size", TypeInt64, true, false, 60},
	FieldEncoding:     {"ENCODING", "Codec of the audio stream", TypeString, true, false, 60},
	FieldBitrate:      {"BITRATE", "Bitrate in kbps", TypeInt, true, false, 60},
	FieldChannels:     {"CHANNELS", "Channel layout", TypeString, true, false, 60},
	FieldSampleRate:   {"SAMPLE_RATE", "Sample rate", TypeString, true, false, 60},
	FieldLength:       {"LENGTH", "Duration", TypeDuration, true, true, 60},
	FieldTitle:        {"TITLE", "Song title", TypeString, true, true, 150},
	FieldAlbum:        {"ALBUM", "Album name", TypeString, true, true, 150},
	FieldArtist:       {"ARTIST", "Performing artist", TypeString, true, true, 150},
	FieldAlbumArtist:  {"ALBUM_ARTIST", "Artist credited for the album", TypeString, true, false, 150},
	FieldComposer:     {"COMPOSER", "Composer", TypeString, true, false, 150},
	FieldPublisher:    {"PUBLISHER", "Publisher or label", TypeString, true, false, 150},
	FieldTrack:        {"TRACK", "Track number", TypeInt, true, true, 50},
	FieldTracksTotal:  {"TRACKS_TOTAL", "Number of tracks on the disc", TypeInt, true, false, 50},
	FieldTrackInfo:    {"TRACK_INFO", "Track number and total", TypeString, true, false, 60},
	FieldDisc:         {"DISC", "Disc number", TypeInt, true, false, 50},
	FieldDiscsTotal:   {"DISCS_TOTAL", "Number of discs", TypeInt, true, false, 50},
	FieldDiscInfo:     {"DISC_INFO", "Disc number and total", TypeString, true, false, 60},
	FieldGenre:        {"GENRE", "Genre", TypeString, true, false, 100},
	FieldYear:         {"YEAR", "Year of release", TypeInt, true, false, 50},
	FieldCover:        {"COVER", "Embedded cover image", TypeCover, false, false, 50},
	FieldCoverInfo:    {"COVER_INFO", "Cover image type and size", TypeString, false, false, 100},
	FieldRating:       {"RATING", "Rating as a fraction of the maximum", TypeFloat, true, true, 60},
	FieldRatingRaw:    {"RATING_RAW", "Rating in the tag's own scale", TypeInt, true, false, 50},
	FieldPlaycount:    {"PLAYCOUNT", "Number of times played", TypeInt, true, false, 50},
	FieldCategory:     {"CATEGORY", "Category or grouping", TypeString, true, false, 100},
	FieldComment:      {"COMMENT", "Comment", TypeString, true, false, 200},
	FieldLyrics:       {"LYRICS", "Lyrics", TypeString, true, false, 200},
	FieldMood:         {"MOOD", "Mood", TypeString, true, false, 100},
	FieldColor:        {"COLOR", "User color", TypeString, true, false, 60},
	FieldTags:         {"TAGS", "User tags", TypeStrings, true, false, 150},
	FieldChapters:     {"CHAPTERS", "Chapters", TypeChapters, false, false, 100},
	FieldPlayedFirst:  {"FIRST_PLAYED", "Time of first playback", TypeTime, true, false, 120},
	FieldPlayedLast:   {"LAST_PLAYED", "Time of last playback", TypeTime, true, false, 120},
	FieldLibraryAdded: {"ADDED_TO_LIBRARY", "Time the file joined the library", TypeTime, true, false, 120},
	FieldCustom1:      {"CUSTOM1", "Custom field 1", TypeString, true, false, 100},
	FieldCustom2:      {"CUSTOM2", "Custom field 2", TypeString, true, false, 100},
	FieldCustom3:      {"CUSTOM3", "Custom field 3", TypeString, true, false, 100},
	FieldCustom4:      {"CUSTOM4", "Custom field 4", TypeString, true, false, 100},
	FieldCustom5:      {"CUSTOM5", "Custom field 5", TypeString, true, false, 100},
	FieldFulltext:     {"FULLTEXT", "All text fields", TypeString, false, false, 200},
}

// Fields returns every field in declaration order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// ParseField looks a field up by name, ignoring case.
func ParseField(name string) (Field, error) {
	for f := Field(0); f < fieldCount; f++ {
		if strings.EqualFold(fieldInfos[f].name, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

func (f Field) valid() bool { return f >= 0 && f < fieldCount }

func (f Field) info() fieldInfo {
	if !f.valid() {
		return fieldInfo{name: "UNKNOWN"}
	}
	return fieldInfos[f]
}

func (f Field) String() string              { return f.info().name }
func (f Field) Description() string         { return f.info().description }
func (f Field) Type() ValueType             { return f.info().typ }
func (f Field) IsStringRepresentable() bool { return f.info().text }
func (f Field) IsVisible() bool             { return f.info().visible }
func (f Field) Width() int                  { return f.info().width }

// Get returns the field's value in m with the Go type named by Type.
func (f Field) Get(m *Metadata) any {
	switch f {
	case FieldPath:
		return m.File()
	case FieldFilename:
		return m.Filename()
	case FieldFormat:
		return m.Format()
	case FieldFilesize:
		return m.Size()
	case FieldEncoding:
		return m.Encoding()
	case FieldBitrate:
		return m.Bitrate()
	case FieldChannels:
		return m.Channels()
	case FieldSampleRate:
		return m.SampleRate()
	case FieldLength:
		return m.Length()
	case FieldTitle:
		return m.Title()
	case FieldAlbum:
		return m.Album()
	case FieldArtist:
		return m.Artist()
	case FieldAlbumArtist:
		return m.AlbumArtist()
	case FieldComposer:
		return m.Composer()
	case FieldPublisher:
		return m.Publisher()
	case FieldTrack:
		return m.Track()
	case FieldTracksTotal:
		return m.TracksTotal()
	case FieldTrackInfo:
		return m.TrackInfo()
	case FieldDisc:
		return m.Disc()
	case FieldDiscsTotal:
		return m.DiscsTotal()
	case FieldDiscInfo:
		return m.DiscInfo()
	case FieldGenre:
		return m.Genre()
	case FieldYear:
		return m.Year()
	case FieldCover:
		return m.Cover()
	case FieldCoverInfo:
		return m.Cover().Info()
	case FieldRating:
		return m.RatingPercent()
	case FieldRatingRaw:
		return m.Rating()
	case FieldPlaycount:
		return m.Playcount()
	case FieldCategory:
		return m.Category()
	case FieldComment:
		return m.Comment()
	case FieldLyrics:
		return m.Lyrics()
	case FieldMood:
		return m.Mood()
	case FieldColor:
		return m.Color()
	case FieldTags:
		return m.Tags()
	case FieldChapters:
		return m.Chapters()
	case FieldPlayedFirst:
		return m.PlayedFirst()
	case FieldPlayedLast:
		return m.PlayedLast()
	case FieldLibraryAdded:
		return m.LibraryAdded()
	case FieldCustom1, FieldCustom2, FieldCustom3, FieldCustom4, FieldCustom5:
		return m.Custom(int(f-FieldCustom1) + 1)
	case FieldFulltext:
		return m.Fulltext()
	}
	return nil
}

// Format renders the field's value in m as text. Sentinels render as "".
func (f Field) Format(m *Metadata) string {
	return formatValue(f.Get(m))
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		if v < 0 {
			return ""
		}
		return strconv.Itoa(v)
	case int64:
		if v < 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Duration:
		return formatLength(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.DateTime)
	case Format:
		if v == FormatUnknown {
			return ""
		}
		return v.String()
	case []string:
		return strings.Join(v, ", ")
	case []Chapter:
		return FormatChapters(v)
	case *Cover:
		return v.Info()
	case SizeBand:
		return v.String()
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// formatLength renders d as m:ss or h:mm:ss.
func formatLength(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	s := int64(d / time.Second)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// AllValue is the group value of a pseudo-group spanning every item: ""
// for string fields, nil otherwise.
func (f Field) AllValue() any {
	if f.Type() == TypeString {
		return ""
	}
	return nil
}

// Group returns the value items are grouped by. It is the raw value for
// most fields and a coarser bucket for numeric ones: file sizes group into
// power-of-two bands, ratings into 5% bins, lengths into whole minutes.
// The result is always comparable.
func (f Field) Group(m *Metadata) any {
	switch f {
	case FieldFilesize:
		return sizeBandOf(m.Size())
	case FieldRating:
		if m.Rating() < 0 {
			return Unknown
		}
		return int(math.Floor(m.RatingPercent()*20)) * 5
	case FieldLength:
		return int(m.Length() / time.Minute)
	}
	switch v := f.Get(m).(type) {
	case []string, []Chapter, *Cover:
		return formatValue(v)
	default:
		return v
	}
}

// SizeBand is a power-of-two file size range [Min, Max).
type SizeBand struct {
	Min, Max int64
}

func (b SizeBand) String() string {
	if b.Max == 0 {
		return "unknown"
	}
	return humanSize(b.Min) + " - " + humanSize(b.Max)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.0f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// sizeBands holds the band for every bit length of a file size. It is
// built once and never modified.
var sizeBands = sync.OnceValue(func() [64]SizeBand {
	var out [64]SizeBand
	out[0] = SizeBand{Min: 0, Max: 1}
	for i := 1; i < 63; i++ {
		out[i] = SizeBand{Min: 1 << (i - 1), Max: 1 << i}
	}
	out[63] = SizeBand{Min: 1 << 62, Max: math.MaxInt64}
	return out
})

func sizeBandOf(size int64) SizeBand {
	if size < 0 {
		return SizeBand{}
	}
	return sizeBands()[bits.Len64(uint64(size))]
}
