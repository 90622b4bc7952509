package mp3

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

const commentLanguage = "eng"

// TagEditor applies symbolic field edits to a parsed ID3v2 tag. Tags are
// written as version 2.4 with UTF-8 text. The MP3 and WAV editors embed it
// and supply their own Save.
type TagEditor struct {
	Tag *id3v2.Tag
}

// NewTagEditor prepares t for writing.
func NewTagEditor(t *id3v2.Tag) TagEditor {
	t.SetVersion(4)
	t.SetDefaultEncoding(id3v2.EncodingUTF8)
	return TagEditor{Tag: t}
}

// Kind reports the tag dialect.
func (e *TagEditor) Kind() types.TagKind {
	return types.TagID3v2
}

// Get returns the first non-empty value stored under any native key for key.
func (e *TagEditor) Get(key types.FieldKey) (string, error) {
	native, err := nativeKeys(key)
	if err != nil {
		return "", err
	}
	for _, k := range native {
		if v := e.get(k); v != "" {
			return v, nil
		}
	}
	return "", nil
}

// Set writes value to the primary native key and clears the fallbacks.
// An empty value deletes the field.
func (e *TagEditor) Set(key types.FieldKey, value string) error {
	if value == "" {
		return e.Delete(key)
	}
	native, err := nativeKeys(key)
	if err != nil {
		return err
	}
	primary := e.primary(native)
	if err := e.set(primary, value); err != nil {
		var invalid *types.InvalidValueError
		if errors.As(err, &invalid) {
			invalid.Key = key
		}
		return err
	}
	for _, k := range native {
		if k != primary {
			e.delete(k)
		}
	}
	return nil
}

// primary picks the native key a value is written to. A play count goes
// into POPM only when the tag already has one; creating POPM would also
// set a rating.
func (e *TagEditor) primary(native []string) string {
	if native[0] == types.ID3PopmCounter {
		if _, ok := e.popm(); !ok {
			return types.ID3PlayCounter
		}
	}
	return native[0]
}

// Delete removes the field.
func (e *TagEditor) Delete(key types.FieldKey) error {
	native, err := nativeKeys(key)
	if err != nil {
		return err
	}
	for _, k := range native {
		e.delete(k)
	}
	return nil
}

func nativeKeys(key types.FieldKey) ([]string, error) {
	native := types.TagID3v2.NativeKeys(key)
	if len(native) == 0 {
		return nil, &types.UnsupportedKeyError{Key: key, Kind: types.TagID3v2}
	}
	return native, nil
}

func (e *TagEditor) get(k string) string {
	switch {
	case strings.HasPrefix(k, types.ID3CommentPrefix):
		desc := strings.TrimPrefix(k, types.ID3CommentPrefix)
		for _, f := range e.Tag.GetFrames("COMM") {
			if cf, ok := f.(id3v2.CommentFrame); ok && cf.Description == desc {
				return cf.Text
			}
		}
	case strings.HasPrefix(k, types.ID3UserTextPrefix):
		desc := strings.TrimPrefix(k, types.ID3UserTextPrefix)
		for _, f := range e.Tag.GetFrames("TXXX") {
			if uf, ok := f.(id3v2.UserDefinedTextFrame); ok && uf.Description == desc {
				return uf.Value
			}
		}
	case k == "USLT":
		for _, f := range e.Tag.GetFrames("USLT") {
			if lf, ok := f.(id3v2.UnsynchronisedLyricsFrame); ok {
				return lf.Lyrics
			}
		}
	case k == types.ID3PopmRating:
		if p, ok := e.popm(); ok {
			return strconv.Itoa(int(p.Rating))
		}
	case k == types.ID3PopmCounter:
		if p, ok := e.popm(); ok && p.Counter != nil {
			return p.Counter.String()
		}
	case k == types.ID3PopmEmail:
		if p, ok := e.popm(); ok {
			return p.Email
		}
	case k == types.ID3PlayCounter:
		if c, ok := e.pcnt(); ok {
			return c.String()
		}
	default:
		text := e.Tag.GetTextFrame(k).Text
		if i := strings.IndexByte(text, 0); i >= 0 {
			text = text[:i]
		}
		return text
	}
	return ""
}

func (e *TagEditor) set(k, v string) error {
	switch {
	case strings.HasPrefix(k, types.ID3CommentPrefix):
		desc := strings.TrimPrefix(k, types.ID3CommentPrefix)
		e.deleteComment(desc)
		e.Tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    commentLanguage,
			Description: desc,
			Text:        v,
		})
	case strings.HasPrefix(k, types.ID3UserTextPrefix):
		desc := strings.TrimPrefix(k, types.ID3UserTextPrefix)
		e.deleteUserText(desc)
		e.Tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: desc,
			Value:       v,
		})
	case k == "USLT":
		e.Tag.DeleteFrames("USLT")
		e.Tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: commentLanguage,
			Lyrics:   v,
		})
	case k == types.ID3PopmRating:
		rating, err := strconv.Atoi(v)
		if err != nil || rating < 0 || rating > 255 {
			return &types.InvalidValueError{Value: v, Reason: "POPM rating must be 0..255"}
		}
		p := e.popmOrNew()
		p.Rating = uint8(rating)
		e.Tag.AddFrame("POPM", p)
	case k == types.ID3PopmCounter:
		counter, err := parseCounter(v)
		if err != nil {
			return err
		}
		p := e.popmOrNew()
		p.Counter = counter
		e.Tag.AddFrame("POPM", p)
	case k == types.ID3PopmEmail:
		p := e.popmOrNew()
		p.Email = v
		e.Tag.AddFrame("POPM", p)
	case k == types.ID3PlayCounter:
		counter, err := parseCounter(v)
		if err != nil {
			return err
		}
		e.Tag.AddFrame("PCNT", id3v2.UnknownFrame{Body: encodeCounter(counter)})
	default:
		e.Tag.AddTextFrame(k, id3v2.EncodingUTF8, v)
	}
	return nil
}

func (e *TagEditor) delete(k string) {
	switch {
	case strings.HasPrefix(k, types.ID3CommentPrefix):
		e.deleteComment(strings.TrimPrefix(k, types.ID3CommentPrefix))
	case strings.HasPrefix(k, types.ID3UserTextPrefix):
		e.deleteUserText(strings.TrimPrefix(k, types.ID3UserTextPrefix))
	case k == types.ID3PopmRating:
		// Dropping the rating drops POPM; a play count it carried moves
		// to PCNT.
		p, ok := e.popm()
		if !ok {
			return
		}
		e.Tag.DeleteFrames("POPM")
		if p.Counter != nil && p.Counter.Sign() > 0 {
			e.Tag.AddFrame("PCNT", id3v2.UnknownFrame{Body: encodeCounter(p.Counter)})
		}
	case k == types.ID3PopmCounter:
		if p, ok := e.popm(); ok {
			p.Counter = big.NewInt(0)
			e.Tag.AddFrame("POPM", p)
		}
	case k == types.ID3PopmEmail:
		if p, ok := e.popm(); ok {
			p.Email = ""
			e.Tag.AddFrame("POPM", p)
		}
	default:
		e.Tag.DeleteFrames(k)
	}
}

func (e *TagEditor) deleteComment(desc string) {
	var keep []id3v2.CommentFrame
	for _, f := range e.Tag.GetFrames("COMM") {
		if cf, ok := f.(id3v2.CommentFrame); ok && cf.Description != desc {
			keep = append(keep, cf)
		}
	}
	e.Tag.DeleteFrames("COMM")
	for _, cf := range keep {
		e.Tag.AddCommentFrame(cf)
	}
}

func (e *TagEditor) deleteUserText(desc string) {
	var keep []id3v2.UserDefinedTextFrame
	for _, f := range e.Tag.GetFrames("TXXX") {
		if uf, ok := f.(id3v2.UserDefinedTextFrame); ok && uf.Description != desc {
			keep = append(keep, uf)
		}
	}
	e.Tag.DeleteFrames("TXXX")
	for _, uf := range keep {
		e.Tag.AddUserDefinedTextFrame(uf)
	}
}

func (e *TagEditor) popm() (id3v2.PopularimeterFrame, bool) {
	p, ok := e.Tag.GetLastFrame("POPM").(id3v2.PopularimeterFrame)
	return p, ok
}

// popmOrNew returns the existing POPM frame or a new one seeded with the
// PCNT counter, which it replaces.
func (e *TagEditor) popmOrNew() id3v2.PopularimeterFrame {
	if p, ok := e.popm(); ok {
		if p.Counter == nil {
			p.Counter = big.NewInt(0)
		}
		return p
	}
	p := id3v2.PopularimeterFrame{Counter: big.NewInt(0)}
	if c, ok := e.pcnt(); ok {
		p.Counter = c
		e.Tag.DeleteFrames("PCNT")
	}
	return p
}

func (e *TagEditor) pcnt() (*big.Int, bool) {
	f, ok := e.Tag.GetLastFrame("PCNT").(id3v2.UnknownFrame)
	if !ok || len(f.Body) == 0 {
		return nil, false
	}
	return new(big.Int).SetBytes(f.Body), true
}

func parseCounter(v string) (*big.Int, error) {
	c, ok := new(big.Int).SetString(v, 10)
	if !ok || c.Sign() < 0 {
		return nil, &types.InvalidValueError{Value: v, Reason: "counter must be a non-negative integer"}
	}
	return c, nil
}

// encodeCounter encodes c big-endian in at least four bytes.
func encodeCounter(c *big.Int) []byte {
	b := c.Bytes()
	if len(b) >= 4 {
		return b
	}
	out := make([]byte, 4)
	copy(out[4-len(b):], b)
	return out
}

// editor edits the ID3v2 tag at the head of an MP3 file.
type editor struct {
	TagEditor
}

func openEditor(path string) (registry.Editor, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		if errors.Is(err, id3v2.ErrUnsupportedVersion) {
			return nil, &types.UnsupportedWriteError{Format: types.FormatMP3, Reason: "ID3v2.2 tags cannot be rewritten"}
		}
		return nil, fmt.Errorf("open ID3 tag of %s: %w", path, err)
	}
	return &editor{TagEditor: NewTagEditor(t)}, nil
}

func (e *editor) Save() error {
	return e.Tag.Save()
}

func (e *editor) Close() error {
	return e.Tag.Close()
}
