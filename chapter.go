package audiolib

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// chapterSeparator delimits chapters inside the custom slot holding them.
const chapterSeparator = "|"

// Chapter is a named position in a track. Chapters order by Time.
type Chapter struct {
	Time time.Duration
	Text string
}

// String renders the stored form "<millis>-<text>".
func (c Chapter) String() string {
	return strconv.FormatInt(c.Time.Milliseconds(), 10) + "-" + c.Text
}

// Compare orders chapters by time, then text.
func (c Chapter) Compare(o Chapter) int {
	if r := cmp.Compare(c.Time, o.Time); r != 0 {
		return r
	}
	return strings.Compare(c.Text, o.Text)
}

// ParseChapter parses "<millis>-<text>". The time ends at the first '-';
// the text keeps any further dashes, including a leading one.
func ParseChapter(s string) (Chapter, error) {
	millis, text, ok := strings.Cut(s, "-")
	if !ok {
		return Chapter{}, fmt.Errorf("chapter %q: missing '-' separator", s)
	}
	ms, err := strconv.ParseUint(millis, 10, 63)
	if err != nil {
		return Chapter{}, fmt.Errorf("chapter %q: invalid time: %w", s, err)
	}
	return Chapter{Time: time.Duration(ms) * time.Millisecond, Text: text}, nil
}

// ParseChapters decodes a pipe-delimited chapter list, sorted by time.
// Malformed entries are dropped.
func ParseChapters(s string) []Chapter {
	if s == "" {
		return nil
	}
	var out []Chapter
	for _, part := range strings.Split(s, chapterSeparator) {
		if c, err := ParseChapter(part); err == nil {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, Chapter.Compare)
	return out
}

// FormatChapters encodes chapters sorted by time.
func FormatChapters(chapters []Chapter) string {
	sorted := slices.Clone(chapters)
	slices.SortStableFunc(sorted, Chapter.Compare)
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = c.String()
	}
	return strings.Join(parts, chapterSeparator)
}

// validChapter reports whether c survives a round trip through the
// stored list form.
func validChapter(c Chapter) error {
	if c.Time < 0 {
		return fmt.Errorf("negative chapter time %v", c.Time)
	}
	if strings.Contains(c.Text, chapterSeparator) {
		return fmt.Errorf("chapter text %q contains %q", c.Text, chapterSeparator)
	}
	return nil
}
