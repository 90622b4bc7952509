package audiolib

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/simonhull/audiolib/internal/atomicfile"
	"github.com/simonhull/audiolib/internal/logger"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

// Writer stages field changes for one file and commits them with Write.
//
// Setters never fail the batch: a value that cannot be applied (invalid,
// unsupported by the tag dialect, or a file that cannot be opened for
// editing) is logged and skipped, and the next setter proceeds. Changed
// counts the fields that were applied. An empty string deletes a field;
// so does Unknown for numeric setters.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	path    string
	options *writeOptions

	editor  registry.Editor
	changed int
}

// NewWriter returns a Writer bound to item's file. It returns
// ErrNotFileBased for items without a local file.
func NewWriter(item FileBased, opts ...WriteOption) (*Writer, error) {
	if !item.IsFileBased() || item.File() == "" {
		return nil, ErrNotFileBased
	}
	options := defaultWriteOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Writer{path: item.File(), options: options}, nil
}

// Path returns the file the writer is bound to.
func (w *Writer) Path() string { return w.path }

// Changed returns the number of fields staged since the last Write.
func (w *Writer) Changed() int { return w.changed }

// open returns the editor, opening it on first use.
func (w *Writer) open() (registry.Editor, error) {
	if w.editor != nil {
		return w.editor, nil
	}
	format, err := registry.DetectFile(w.path)
	if err != nil {
		return nil, err
	}
	opener := registry.GetEditor(format)
	if opener == nil {
		return nil, &UnsupportedWriteError{Format: format, Reason: "no editor registered"}
	}
	ed, err := opener(w.path)
	if err != nil {
		return nil, err
	}
	w.editor = ed
	return ed, nil
}

func (w *Writer) skip(field string, value any, err error) {
	logger.Warn("field not written",
		zap.String("path", w.path),
		zap.String("field", field),
		zap.Any("value", value),
		zap.Error(err),
	)
}

// apply stages value under key; "" deletes.
func (w *Writer) apply(key types.FieldKey, value string) bool {
	ed, err := w.open()
	if err == nil {
		if value == "" {
			err = ed.Delete(key)
		} else {
			err = ed.Set(key, value)
		}
	}
	if err != nil {
		w.skip(key.String(), value, err)
		return false
	}
	w.changed++
	return true
}

// get reads the staged value of key, "" when unavailable.
func (w *Writer) get(key types.FieldKey) string {
	ed, err := w.open()
	if err != nil {
		return ""
	}
	v, err := ed.Get(key)
	if err != nil {
		return ""
	}
	return v
}

func (w *Writer) SetTitle(v string)       { w.apply(types.KeyTitle, v) }
func (w *Writer) SetAlbum(v string)       { w.apply(types.KeyAlbum, v) }
func (w *Writer) SetArtist(v string)      { w.apply(types.KeyArtist, v) }
func (w *Writer) SetAlbumArtist(v string) { w.apply(types.KeyAlbumArtist, v) }
func (w *Writer) SetComposer(v string)    { w.apply(types.KeyComposer, v) }
func (w *Writer) SetPublisher(v string)   { w.apply(types.KeyPublisher, v) }
func (w *Writer) SetGenre(v string)       { w.apply(types.KeyGenre, v) }
func (w *Writer) SetCategory(v string)    { w.apply(types.KeyCategory, v) }
func (w *Writer) SetComment(v string)     { w.apply(types.KeyComment, v) }
func (w *Writer) SetLyrics(v string)      { w.apply(types.KeyLyrics, v) }
func (w *Writer) SetMood(v string)        { w.apply(types.KeyMood, v) }

// SetCustom sets custom slot n (1..5). Slots 2 and 5 hold chapters and
// synthetic fields; prefer the dedicated setters for those.
func (w *Writer) SetCustom(n int, v string) {
	if n < 1 || n > 5 {
		w.skip("custom", v, fmt.Errorf("custom slot %d out of range 1..5", n))
		return
	}
	w.apply(types.CustomKey(n), v)
}

// SetYear sets the year; Unknown deletes it.
func (w *Writer) SetYear(year int) {
	switch {
	case year == Unknown:
		w.apply(types.KeyYear, "")
	case year < 0 || year > 9999:
		w.skip("year", year, fmt.Errorf("year %d out of range 0..9999", year))
	default:
		w.apply(types.KeyYear, strconv.Itoa(year))
	}
}

func (w *Writer) SetTrack(n int)       { w.setPair(types.KeyTrack, types.KeyTrackTotal, n, false) }
func (w *Writer) SetTracksTotal(n int) { w.setPair(types.KeyTrack, types.KeyTrackTotal, n, true) }
func (w *Writer) SetDisc(n int)        { w.setPair(types.KeyDisc, types.KeyDiscTotal, n, false) }
func (w *Writer) SetDiscsTotal(n int)  { w.setPair(types.KeyDisc, types.KeyDiscTotal, n, true) }

// setPair changes one side of a number/total pair. Dialects with a
// separate total field store the halves apart; the others store "N/M"
// in the number field, so the other half is read back and kept.
func (w *Writer) setPair(numKey, totalKey types.FieldKey, v int, total bool) {
	name := numKey.String()
	if total {
		name = totalKey.String()
	}
	if v < Unknown {
		w.skip(name, v, fmt.Errorf("negative value %d", v))
		return
	}
	ed, err := w.open()
	if err != nil {
		w.skip(name, v, err)
		return
	}

	num, tot, combined := strings.Cut(w.get(numKey), "/")
	n, t := parseNumber(num), parseNumber(tot)
	separate := ed.Kind().Supports(totalKey)
	if !combined && separate {
		t = parseNumber(w.get(totalKey))
	}
	if total {
		t = v
	} else {
		n = v
	}

	if separate {
		if !combined {
			key, val := numKey, n
			if total {
				key, val = totalKey, t
			}
			w.apply(key, numberText(val))
			return
		}
		// A combined value is split while rewriting it; both halves
		// count as one field.
		if w.apply(numKey, numberText(n)) && w.apply(totalKey, numberText(t)) {
			w.changed--
		}
		return
	}

	switch {
	case n == Unknown && t == Unknown:
		w.apply(numKey, "")
	case t == Unknown:
		w.apply(numKey, strconv.Itoa(n))
	default:
		w.apply(numKey, strconv.Itoa(max(n, 0))+"/"+strconv.Itoa(t))
	}
}

func numberText(v int) string {
	if v < 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// ratingMax returns the rating scale of the file's tag dialect.
func (w *Writer) ratingMax() (int, error) {
	ed, err := w.open()
	if err != nil {
		return 0, err
	}
	if ed.Kind() == types.TagID3v2 {
		return 255, nil
	}
	return 100, nil
}

// SetRating sets the rating on the dialect's scale (0..255 for ID3,
// 0..100 otherwise). Values above the maximum are clipped; Unknown
// removes the rating. Vorbis ratings are written with at least two
// digits so 1..5 is not read back as a star value.
func (w *Writer) SetRating(r int) {
	if r == Unknown {
		w.apply(types.KeyRating, "")
		return
	}
	if r < 0 {
		w.skip("rating", r, fmt.Errorf("negative rating %d", r))
		return
	}
	limit, err := w.ratingMax()
	if err != nil {
		w.skip("rating", r, err)
		return
	}
	w.apply(types.KeyRating, formatRating(w.editor.Kind(), min(r, limit)))
}

func formatRating(kind types.TagKind, r int) string {
	if kind == types.TagVorbis {
		return fmt.Sprintf("%02d", r)
	}
	return strconv.Itoa(r)
}

// SetRatingPercent sets the rating as a fraction of the maximum. Values
// outside 0..1 are rejected.
func (w *Writer) SetRatingPercent(p float64) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		w.skip("rating", p, fmt.Errorf("percent %v out of range 0..1", p))
		return
	}
	limit, err := w.ratingMax()
	if err != nil {
		w.skip("rating", p, err)
		return
	}
	w.SetRating(int(math.Round(p * float64(limit))))
}

// SetPlaycount sets the play count; Unknown removes it.
func (w *Writer) SetPlaycount(n int) {
	switch {
	case n == Unknown:
		w.apply(types.KeyPlaycount, "")
	case n < 0:
		w.skip("playcount", n, fmt.Errorf("negative playcount %d", n))
	default:
		w.apply(types.KeyPlaycount, strconv.Itoa(n))
	}
}

// IncrementPlaycount adds one to the staged play count.
func (w *Writer) IncrementPlaycount() {
	n, ok := parseCounter(w.get(types.KeyPlaycount))
	if !ok {
		n = 0
	}
	w.SetPlaycount(n + 1)
}

// synthetic returns the staged synthetic fields.
func (w *Writer) synthetic() Synthetic {
	return DecodeSynthetic(w.get(types.KeyCustom5))
}

func (w *Writer) setSynthetic(s Synthetic) {
	w.apply(types.KeyCustom5, s.Encode())
}

// SetColor sets the user color; "" removes it.
func (w *Writer) SetColor(color string) {
	if err := validSyntheticValue(color); err != nil {
		w.skip("color", color, err)
		return
	}
	if color == "" {
		w.setSynthetic(w.synthetic().Without(SyntheticColor))
		return
	}
	w.setSynthetic(w.synthetic().With(SyntheticColor, color))
}

// SetTags replaces the user tags; empty tags are dropped.
func (w *Writer) SetTags(tags []string) {
	var clean []string
	for _, t := range tags {
		if err := validSyntheticValue(t); err != nil {
			w.skip("tags", tags, err)
			return
		}
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(clean, t) {
			clean = append(clean, t)
		}
	}
	w.setSynthetic(w.synthetic().WithList(SyntheticTags, clean))
}

// SetPlayedFirst sets the first-played time; the zero time removes it.
func (w *Writer) SetPlayedFirst(t time.Time) {
	w.setSynthetic(w.synthetic().WithTime(SyntheticPlayedFirst, t))
}

// SetPlayedLast sets the last-played time; the zero time removes it.
func (w *Writer) SetPlayedLast(t time.Time) {
	w.setSynthetic(w.synthetic().WithTime(SyntheticPlayedLast, t))
}

// SetLibraryAdded sets the library-added time; the zero time removes it.
func (w *Writer) SetLibraryAdded(t time.Time) {
	w.setSynthetic(w.synthetic().WithTime(SyntheticLibraryAdded, t))
}

// SetChapters replaces the chapter list; nil removes it.
func (w *Writer) SetChapters(chapters []Chapter) {
	for _, c := range chapters {
		if err := validChapter(c); err != nil {
			w.skip("chapters", c.String(), err)
			return
		}
	}
	w.apply(types.KeyCustom2, FormatChapters(chapters))
}

// AddChapter adds c to the staged chapters.
func (w *Writer) AddChapter(c Chapter) {
	if err := validChapter(c); err != nil {
		w.skip("chapters", c.String(), err)
		return
	}
	chapters := ParseChapters(w.get(types.KeyCustom2))
	w.apply(types.KeyCustom2, FormatChapters(append(chapters, c)))
}

// RemoveChapter removes every chapter equal to c.
func (w *Writer) RemoveChapter(c Chapter) {
	chapters := ParseChapters(w.get(types.KeyCustom2))
	kept := slices.DeleteFunc(chapters, func(o Chapter) bool { return o == c })
	w.apply(types.KeyCustom2, FormatChapters(kept))
}

// Set parses value for field and stages it. Fields that are derived or
// technical cannot be set.
func (w *Writer) Set(field Field, value string) {
	intValue := func(set func(int)) {
		if value == "" {
			set(Unknown)
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			w.skip(field.String(), value, err)
			return
		}
		set(n)
	}
	timeValue := func(set func(time.Time)) {
		if value == "" {
			set(time.Time{})
			return
		}
		t, err := time.ParseInLocation(time.DateTime, value, time.Local)
		if err != nil {
			w.skip(field.String(), value, err)
			return
		}
		set(t)
	}

	switch field {
	case FieldTitle:
		w.SetTitle(value)
	case FieldAlbum:
		w.SetAlbum(value)
	case FieldArtist:
		w.SetArtist(value)
	case FieldAlbumArtist:
		w.SetAlbumArtist(value)
	case FieldComposer:
		w.SetComposer(value)
	case FieldPublisher:
		w.SetPublisher(value)
	case FieldGenre:
		w.SetGenre(value)
	case FieldCategory:
		w.SetCategory(value)
	case FieldComment:
		w.SetComment(value)
	case FieldLyrics:
		w.SetLyrics(value)
	case FieldMood:
		w.SetMood(value)
	case FieldColor:
		w.SetColor(value)
	case FieldCustom1, FieldCustom2, FieldCustom3, FieldCustom4, FieldCustom5:
		w.SetCustom(int(field-FieldCustom1)+1, value)
	case FieldTrack:
		intValue(w.SetTrack)
	case FieldTracksTotal:
		intValue(w.SetTracksTotal)
	case FieldDisc:
		intValue(w.SetDisc)
	case FieldDiscsTotal:
		intValue(w.SetDiscsTotal)
	case FieldYear:
		intValue(w.SetYear)
	case FieldRatingRaw:
		intValue(w.SetRating)
	case FieldPlaycount:
		intValue(w.SetPlaycount)
	case FieldRating:
		if value == "" {
			w.SetRating(Unknown)
			return
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			w.skip(field.String(), value, err)
			return
		}
		w.SetRatingPercent(p)
	case FieldTags:
		var tags []string
		if value != "" {
			tags = strings.Split(value, ",")
		}
		w.SetTags(tags)
	case FieldChapters:
		w.SetChapters(ParseChapters(value))
	case FieldPlayedFirst:
		timeValue(w.SetPlayedFirst)
	case FieldPlayedLast:
		timeValue(w.SetPlayedLast)
	case FieldLibraryAdded:
		timeValue(w.SetLibraryAdded)
	default:
		w.skip(field.String(), value, fmt.Errorf("field %s is not writable", field))
	}
}

// Write commits the staged changes in one pass and resets the writer for
// a new batch. It returns false when nothing was staged or the commit
// failed; the staged changes are discarded either way.
func (w *Writer) Write(ctx context.Context) bool {
	ed := w.editor
	changed := w.changed
	defer w.reset()
	if changed == 0 {
		logger.Debug("write skipped", zap.String("path", w.path), zap.Error(ErrNoChanges))
		return false
	}

	if err := w.commit(ctx, ed); err != nil {
		logger.Error("metadata write failed", zap.String("path", w.path), zap.Int("fields", changed), zap.Error(err))
		return false
	}
	logger.Info("metadata written", zap.String("path", w.path), zap.Int("fields", changed))
	return true
}

// reset drops the staged changes and releases the editor.
func (w *Writer) reset() {
	w.changed = 0
	if w.editor == nil {
		return
	}
	if err := w.editor.Close(); err != nil {
		logger.Debug("close editor", zap.String("path", w.path), zap.Error(err))
	}
	w.editor = nil
}

// Discard drops the staged changes without writing.
func (w *Writer) Discard() { w.reset() }

func (w *Writer) commit(ctx context.Context, ed registry.Editor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var modTime time.Time
	if w.options.preserveModTime {
		if info, err := os.Stat(w.path); err == nil {
			modTime = info.ModTime()
		}
	}
	if w.options.backupSuffix != "" {
		if err := atomicfile.Copy(w.path, w.path+w.options.backupSuffix); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
	}

	w.options.playback.Suspend(w.path)
	err := ed.Save()
	w.options.playback.Resume(w.path)
	if err != nil {
		return err
	}

	if !modTime.IsZero() {
		_ = os.Chtimes(w.path, modTime, modTime) //nolint:errcheck // Non-fatal: file was written successfully
	}
	return nil
}

// IncrementPlaycount adds one play to item's file and notifies n on
// success.
func IncrementPlaycount(ctx context.Context, item FileBased, n Notifier, opts ...WriteOption) bool {
	return writeOne(ctx, item, n, opts, func(w *Writer) string {
		w.IncrementPlaycount()
		return "Playcount incremented"
	})
}

// RateByPercent sets item's rating as a fraction of the maximum and
// notifies n on success.
func RateByPercent(ctx context.Context, item FileBased, p float64, n Notifier, opts ...WriteOption) bool {
	return writeOne(ctx, item, n, opts, func(w *Writer) string {
		w.SetRatingPercent(p)
		return fmt.Sprintf("Rated %.0f%%", p*100)
	})
}

// MarkPlayed increments the play count and records the play time, also
// as first play when none is recorded.
func MarkPlayed(ctx context.Context, item FileBased, at time.Time, n Notifier, opts ...WriteOption) bool {
	return writeOne(ctx, item, n, opts, func(w *Writer) string {
		w.IncrementPlaycount()
		s := w.synthetic().WithTime(SyntheticPlayedLast, at)
		if s.Time(SyntheticPlayedFirst).IsZero() {
			s = s.WithTime(SyntheticPlayedFirst, at)
		}
		w.setSynthetic(s)
		return "Marked as played"
	})
}

func writeOne(ctx context.Context, item FileBased, n Notifier, opts []WriteOption, stage func(*Writer) string) bool {
	w, err := NewWriter(item, opts...)
	if err != nil {
		logger.Warn("cannot write item", zap.Error(err))
		return false
	}
	msg := stage(w)
	if !w.Write(ctx) {
		return false
	}
	if n != nil {
		n.Notify(msg)
	}
	return true
}
