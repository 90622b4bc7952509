package audiolib

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiolib/internal/logger"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"

	// Format packages register their parsers and editors.
	_ "github.com/simonhull/audiolib/internal/flac"
	_ "github.com/simonhull/audiolib/internal/m4a"
	_ "github.com/simonhull/audiolib/internal/mp3"
	_ "github.com/simonhull/audiolib/internal/ogg"
	_ "github.com/simonhull/audiolib/internal/wav"
)

// Read extracts the metadata of the file at path. Any failure, including
// a panic inside a parser, yields Empty; the cause is logged.
func Read(ctx context.Context, path string, opts ...Option) *Metadata {
	m, err := ReadFile(ctx, path, opts...)
	if err != nil {
		logger.Debug("metadata read failed", zap.String("path", path), zap.Error(err))
		return Empty
	}
	return m
}

// ReadItem extracts the metadata of a file-based item. Items that are not
// file based or are flagged corrupt yield Empty.
func ReadItem(ctx context.Context, item Item, opts ...Option) *Metadata {
	if item.IsCorrupt() {
		logger.Debug("metadata read skipped", zap.String("uri", item.URI()), zap.Error(ErrCorruptItem))
		return Empty
	}
	if !item.IsFileBased() {
		return Empty
	}
	return Read(ctx, item.File(), opts...)
}

// ReadMany reads items in parallel and returns their metadata in input
// order, Empty for each item that could not be read. A cancelled context
// stops scheduling; unread items are Empty.
func ReadMany(ctx context.Context, items []Item, opts ...Option) []*Metadata {
	options := newOptions(opts)
	results := make([]*Metadata, len(items))
	for i := range results {
		results[i] = Empty
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(options.workers)
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = ReadItem(ctx, item, opts...)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ReadFile is Read with the failure reported. The error is an
// *UnsupportedFormatError, *CorruptedFileError, I/O error or a recovered
// parser panic.
func ReadFile(ctx context.Context, path string, opts ...Option) (m *Metadata, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := newOptions(opts)

	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%s: parser panic: %v", path, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	size := stat.Size()

	format, err := registry.DetectFormat(f, size, path)
	if err != nil {
		return nil, err
	}
	parser := registry.Get(format)
	if parser == nil {
		return nil, &UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("no parser available for format %s", format)}
	}

	file, err := parser.Parse(f, size, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}
	file.Path, file.Format, file.Size = path, format, size

	for _, w := range file.Warnings {
		logger.Debug("parse warning", zap.String("path", path), zap.Stringer("warning", w))
	}
	if options.strictParsing && len(file.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", file.Warnings[0])
	}

	m = extract(file)
	if options.preloadArtwork {
		if _, err := m.cover.Load(); err != nil {
			logger.Debug("preload artwork failed", zap.String("path", path), zap.Error(err))
		}
	}
	return m, nil
}

func formatFromPath(path string) Format {
	return types.FormatFromPath(path)
}

// extract normalizes a parsed file into Metadata.
func extract(file *types.File) *Metadata {
	m := newMetadata(FileURI(file.Path))
	m.path = file.Path
	m.format = file.Format
	m.size = file.Size

	audio := file.Audio
	m.encoding = audio.Codec
	if audio.Bitrate > 0 {
		m.bitrate = audio.Bitrate / 1000
	}
	m.channels = types.ChannelDescription(audio.Channels)
	m.sampleRate = types.SampleRateDescription(audio.SampleRate)
	m.length = float64(audio.Duration) / float64(time.Millisecond)
	m.cover = newCover(file.Path, file.Format)

	x := extractor{file: file}
	m.title = x.lookup(types.KeyTitle)
	m.album = x.lookup(types.KeyAlbum)
	m.artist = x.lookup(types.KeyArtist)
	m.albumArtist = x.lookup(types.KeyAlbumArtist)
	m.composer = x.lookup(types.KeyComposer)
	m.publisher = x.lookup(types.KeyPublisher)
	m.genre = x.lookup(types.KeyGenre)
	m.lyrics = x.lookup(types.KeyLyrics)
	m.mood = x.lookup(types.KeyMood)
	m.year = parseYear(x.lookup(types.KeyYear))

	m.track, m.tracksTotal = x.pair(types.KeyTrack, types.KeyTrackTotal)
	m.disc, m.discsTotal = x.pair(types.KeyDisc, types.KeyDiscTotal)

	m.category = x.lookup(types.KeyCategory)
	if m.category == "" {
		m.category = x.lookup(types.KeyCategoryFallback)
	}
	m.comment = x.comment()

	for i := range m.custom {
		m.custom[i] = x.lookup(types.CustomKey(i + 1))
	}
	m.synthetic = DecodeSynthetic(m.custom[4])
	m.chapters = ParseChapters(m.custom[1])

	m.rating, m.ratingMax, m.playcount = x.ratingAndPlaycount()
	return m
}

// extractor reads fields out of a parsed file. Lookups never fail: a key
// the dialect cannot carry reads as "".
type extractor struct {
	file *types.File
}

func (x extractor) lookup(key types.FieldKey) string {
	v, err := x.file.Lookup(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// pair reads a number that may be stored as "N/M" in numKey, with the
// total falling back to totalKey.
func (x extractor) pair(numKey, totalKey types.FieldKey) (n, total int) {
	raw := x.lookup(numKey)
	num, tot, combined := strings.Cut(raw, "/")
	n = parseNumber(num)
	if combined {
		total = parseNumber(tot)
	} else {
		total = parseNumber(x.lookup(totalKey))
	}
	return n, total
}

// comment returns the tag's real comment. ID3 files often carry several
// COMM frames, the custom slots among them; the comment is the one
// without a description.
func (x extractor) comment() string {
	if x.file.TagKind != types.TagID3v2 {
		return x.lookup(types.KeyComment)
	}
	for key, values := range x.file.Tags.All() {
		if !strings.HasPrefix(key, types.ID3CommentPrefix) {
			continue
		}
		if strings.TrimPrefix(key, types.ID3CommentPrefix) != "" {
			continue
		}
		for _, v := range values {
			if v != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// MP4 rating values written by one popular tagger. The items hold the
// ASCII digits of the rating read as a big-endian integer.
var mp4RatingTable = map[int]int{
	12592: 100,
	14384: 80,
	13872: 60,
	13360: 40,
	12848: 20,
}

func (x extractor) ratingAndPlaycount() (rating, ratingMax, playcount int) {
	rating, ratingMax, playcount = Unknown, 100, Unknown
	tags := &x.file.Tags

	switch x.file.TagKind {
	case types.TagID3v2:
		ratingMax = 255
		if v := tags.GetFirst(types.ID3PopmRating); v != "" {
			if r, ok := parseBounded(v, 0, 255); ok {
				rating = r
			}
		}
		for _, key := range []string{types.ID3PopmCounter, types.ID3PlayCounter} {
			if c, ok := parseCounter(tags.GetFirst(key)); ok {
				playcount = c
				break
			}
		}

	case types.TagMP4:
		if raw, err := strconv.Atoi(tags.GetFirst(types.MP4Rating)); err == nil {
			rating = mapMP4Rating(raw)
		}

	case types.TagVorbis:
		rating = mapVorbisRating(x.lookup(types.KeyRating))
	}

	// Dialects with a plain playcount field fill it only when no
	// dialect-specific source did.
	if playcount == Unknown && x.file.TagKind != types.TagID3v2 {
		if c, ok := parseCounter(x.lookup(types.KeyPlaycount)); ok {
			playcount = c
		}
	}
	return rating, ratingMax, playcount
}

func mapMP4Rating(raw int) int {
	if r, ok := mp4RatingTable[raw]; ok {
		return r
	}
	if raw >= 0 && raw <= 100 {
		return raw
	}
	return Unknown
}

// mapVorbisRating expands a single-digit 1..5 star value to 0..100. Other
// values in 0..100 are taken as they are, so a zero-padded "05" is 5.
func mapVorbisRating(s string) int {
	s = strings.TrimSpace(s)
	raw, err := strconv.Atoi(s)
	switch {
	case err != nil:
		return Unknown
	case len(s) == 1 && raw >= 1 && raw <= 5:
		return raw * 20
	case raw >= 0 && raw <= 100:
		return raw
	default:
		return Unknown
	}
}

// parseCounter parses a play counter. Values that do not fit an int32
// are ignored.
func parseCounter(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	c, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil || c < 0 {
		return 0, false
	}
	return int(c), true
}

func parseBounded(s string, lo, hi int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// parseNumber parses a non-negative integer, Unknown otherwise.
func parseNumber(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return Unknown
	}
	return v
}

// parseYear takes the leading four digits of a year or date value.
func parseYear(s string) int {
	if len(s) < 4 {
		return Unknown
	}
	return parseNumber(s[:4])
}

func defaultWorkers() int {
	return runtime.NumCPU()
}
