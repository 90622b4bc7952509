package types

// FieldKey is a format-agnostic tag field identifier. Each tag dialect maps
// it to zero or more native keys; the first native key is the one editors
// write, the rest are read as fallbacks and cleared on write.
type FieldKey int

const (
	KeyTitle FieldKey = iota
	KeyAlbum
	KeyArtist
	KeyAlbumArtist
	KeyComposer
	KeyPublisher
	KeyTrack
	KeyTrackTotal
	KeyDisc
	KeyDiscTotal
	KeyGenre
	KeyYear
	KeyCategory
	KeyCategoryFallback
	KeyComment
	KeyLyrics
	KeyMood
	KeyCustom1
	KeyCustom2
	KeyCustom3
	KeyCustom4
	KeyCustom5
	KeyRating
	KeyPlaycount
)

var fieldKeyNames = [...]string{
	KeyTitle:            "title",
	KeyAlbum:            "album",
	KeyArtist:           "artist",
	KeyAlbumArtist:      "album artist",
	KeyComposer:         "composer",
	KeyPublisher:        "publisher",
	KeyTrack:            "track",
	KeyTrackTotal:       "track total",
	KeyDisc:             "disc",
	KeyDiscTotal:        "disc total",
	KeyGenre:            "genre",
	KeyYear:             "year",
	KeyCategory:         "category",
	KeyCategoryFallback: "category (extended)",
	KeyComment:          "comment",
	KeyLyrics:           "lyrics",
	KeyMood:             "mood",
	KeyCustom1:          "custom1",
	KeyCustom2:          "custom2",
	KeyCustom3:          "custom3",
	KeyCustom4:          "custom4",
	KeyCustom5:          "custom5",
	KeyRating:           "rating",
	KeyPlaycount:        "playcount",
}

func (k FieldKey) String() string {
	if k < 0 || int(k) >= len(fieldKeyNames) {
		return "unknown"
	}
	return fieldKeyNames[k]
}

// CustomKey returns the key of custom slot n (1..5).
func CustomKey(n int) FieldKey {
	return KeyCustom1 + FieldKey(n-1)
}

// Native key spellings shared by parsers and editors.
const (
	// ID3CommentPrefix prefixes COMM frames; the description follows.
	ID3CommentPrefix = "COMM:"
	// ID3UserTextPrefix prefixes TXXX frames; the description follows.
	ID3UserTextPrefix = "TXXX:"
	// ID3PopmRating and ID3PopmCounter hold the POPM rating byte and
	// play counter as decimal strings.
	ID3PopmRating  = "POPM:rating"
	ID3PopmCounter = "POPM:counter"
	ID3PopmEmail   = "POPM:email"
	// ID3PlayCounter holds the PCNT counter as a decimal string.
	ID3PlayCounter = "PCNT"

	// MP4Freeform prefixes iTunes freeform ("----") atoms; the name follows.
	MP4Freeform = "----:com.apple.iTunes:"
	// MP4Rating is the ilst rating item.
	MP4Rating = "rate"

	// CustomDescription is the description or name prefix used for the
	// custom slots in ID3 COMM frames and MP4 freeform atoms.
	CustomDescription = "Songs-DB_Custom"
)

var nativeKeys = map[TagKind]map[FieldKey][]string{
	TagID3v2: {
		KeyTitle:            {"TIT2"},
		KeyAlbum:            {"TALB"},
		KeyArtist:           {"TPE1"},
		KeyAlbumArtist:      {"TPE2"},
		KeyComposer:         {"TCOM"},
		KeyPublisher:        {"TPUB"},
		KeyTrack:            {"TRCK"},
		KeyDisc:             {"TPOS"},
		KeyGenre:            {"TCON"},
		KeyYear:             {"TDRC", "TYER"},
		KeyCategory:         {"TIT1"},
		KeyCategoryFallback: {ID3UserTextPrefix + "CATEGORY"},
		KeyComment:          {ID3CommentPrefix},
		KeyLyrics:           {"USLT"},
		KeyMood:             {"TMOO"},
		KeyCustom1:          {ID3CommentPrefix + CustomDescription + "1"},
		KeyCustom2:          {ID3CommentPrefix + CustomDescription + "2"},
		KeyCustom3:          {ID3CommentPrefix + CustomDescription + "3"},
		KeyCustom4:          {ID3CommentPrefix + CustomDescription + "4"},
		KeyCustom5:          {ID3CommentPrefix + CustomDescription + "5"},
		KeyRating:           {ID3PopmRating},
		KeyPlaycount:        {ID3PopmCounter, ID3PlayCounter},
	},
	TagVorbis: {
		KeyTitle:            {"TITLE"},
		KeyAlbum:            {"ALBUM"},
		KeyArtist:           {"ARTIST"},
		KeyAlbumArtist:      {"ALBUMARTIST", "ALBUM ARTIST"},
		KeyComposer:         {"COMPOSER"},
		KeyPublisher:        {"PUBLISHER", "ORGANIZATION", "LABEL"},
		KeyTrack:            {"TRACKNUMBER"},
		KeyTrackTotal:       {"TRACKTOTAL", "TOTALTRACKS"},
		KeyDisc:             {"DISCNUMBER"},
		KeyDiscTotal:        {"DISCTOTAL", "TOTALDISCS"},
		KeyGenre:            {"GENRE"},
		KeyYear:             {"DATE", "YEAR"},
		KeyCategory:         {"GROUPING"},
		KeyCategoryFallback: {"CATEGORY"},
		KeyComment:          {"COMMENT", "DESCRIPTION"},
		KeyLyrics:           {"LYRICS", "UNSYNCEDLYRICS"},
		KeyMood:             {"MOOD"},
		KeyCustom1:          {"CUSTOM1"},
		KeyCustom2:          {"CUSTOM2"},
		KeyCustom3:          {"CUSTOM3"},
		KeyCustom4:          {"CUSTOM4"},
		KeyCustom5:          {"CUSTOM5"},
		KeyRating:           {"RATING"},
		KeyPlaycount:        {"PLAYCOUNT"},
	},
	TagMP4: {
		KeyTitle:            {"\xa9nam"},
		KeyAlbum:            {"\xa9alb"},
		KeyArtist:           {"\xa9ART"},
		KeyAlbumArtist:      {"aART"},
		KeyComposer:         {"\xa9wrt"},
		KeyPublisher:        {MP4Freeform + "PUBLISHER", MP4Freeform + "LABEL"},
		KeyTrack:            {"trkn"},
		KeyDisc:             {"disk"},
		KeyGenre:            {"\xa9gen"},
		KeyYear:             {"\xa9day"},
		KeyCategory:         {"\xa9grp"},
		KeyCategoryFallback: {"catg"},
		KeyComment:          {"\xa9cmt"},
		KeyLyrics:           {"\xa9lyr"},
		KeyMood:             {MP4Freeform + "MOOD"},
		KeyCustom1:          {MP4Freeform + CustomDescription + "1"},
		KeyCustom2:          {MP4Freeform + CustomDescription + "2"},
		KeyCustom3:          {MP4Freeform + CustomDescription + "3"},
		KeyCustom4:          {MP4Freeform + CustomDescription + "4"},
		KeyCustom5:          {MP4Freeform + CustomDescription + "5"},
		KeyRating:           {MP4Rating},
		KeyPlaycount:        {MP4Freeform + "PLAYCOUNT"},
	},
	TagRIFFInfo: {
		KeyTitle:    {"INAM"},
		KeyAlbum:    {"IPRD"},
		KeyArtist:   {"IART"},
		KeyComposer: {"IMUS"},
		KeyTrack:    {"ITRK", "IPRT"},
		KeyGenre:    {"IGNR"},
		KeyYear:     {"ICRD"},
		KeyComment:  {"ICMT"},
	},
}

// NativeKeys returns the native keys for key in this dialect, primary
// first. It returns nil when the dialect cannot carry key.
func (k TagKind) NativeKeys(key FieldKey) []string {
	return nativeKeys[k][key]
}

// Supports reports whether the dialect can carry key.
func (k TagKind) Supports(key FieldKey) bool {
	return len(k.NativeKeys(key)) > 0
}
