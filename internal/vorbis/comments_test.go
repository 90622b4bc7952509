package vorbis

import (
	"errors"
	"slices"
	"testing"

	"github.com/simonhull/audiolib/internal/types"
)

func TestParseComment(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		key     string
		want    string
	}{
		{"title", "TITLE=Test Song", "TITLE", "Test Song"},
		{"lowercase key normalized", "artist=Test Artist", "ARTIST", "Test Artist"},
		{"value with equals", "COMMENT=a=b=c", "COMMENT", "a=b=c"},
		{"empty value", "GENRE=", "GENRE", ""},
		{"rating", "RATING=4", "RATING", "4"},
		{"custom slot", "CUSTOM5=\x1dPLAYED_LST1700000000000", "CUSTOM5", "\x1dPLAYED_LST1700000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := &types.Tags{}
			if err := ParseComment(tt.comment, tags); err != nil {
				t.Fatalf("ParseComment(%q) error = %v", tt.comment, err)
			}
			if !tags.Has(tt.key) && tt.want != "" {
				t.Fatalf("key %q not stored", tt.key)
			}
			if got := tags.GetFirst(tt.key); got != tt.want {
				t.Errorf("tags[%q] = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseComment_Invalid(t *testing.T) {
	for _, comment := range []string{"NOEQUALS", "=value"} {
		if err := ParseComment(comment, &types.Tags{}); err == nil {
			t.Errorf("ParseComment(%q) should fail", comment)
		}
	}
}

func TestParseComment_MultipleValues(t *testing.T) {
	tags := &types.Tags{}
	_ = ParseComment("GENRE=Rock", tags)
	_ = ParseComment("genre=Pop", tags)

	if got := tags.Get("GENRE"); !slices.Equal(got, []string{"Rock", "Pop"}) {
		t.Errorf("GENRE = %v", got)
	}
}

func TestBlock_EncodeDecode(t *testing.T) {
	block := &Block{
		Vendor:   "Xiph.Org libVorbis I 20200704",
		Comments: []string{"TITLE=Song", "ARTIST=Band", "CUSTOM2=1000-Intro|62000-Verse"},
	}

	decoded, err := Decode(block.Encode(), "test.ogg")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.Vendor != block.Vendor {
		t.Errorf("Vendor = %q, want %q", decoded.Vendor, block.Vendor)
	}
	if !slices.Equal(decoded.Comments, block.Comments) {
		t.Errorf("Comments = %v, want %v", decoded.Comments, block.Comments)
	}
}

func TestDecode_Truncated(t *testing.T) {
	block := &Block{Vendor: "v", Comments: []string{"TITLE=Song", "ARTIST=Band"}}
	data := block.Encode()

	decoded, err := Decode(data[:len(data)-3], "test.flac")
	if err == nil {
		t.Fatal("expected error for truncated block")
	}
	var corrupted *types.CorruptedFileError
	if !errors.As(err, &corrupted) {
		t.Errorf("expected CorruptedFileError, got %T", err)
	}
	if decoded == nil || len(decoded.Comments) != 1 {
		t.Errorf("expected first comment to survive, got %+v", decoded)
	}
}

func TestBlock_SetGetDelete(t *testing.T) {
	block := &Block{Comments: []string{"title=Old", "ARTIST=Band", "Title=Older"}}

	block.Set("TITLE", "New")
	if got := block.Get("title"); !slices.Equal(got, []string{"New"}) {
		t.Errorf("Get(title) = %v", got)
	}

	block.Delete("artist")
	if len(block.Get("ARTIST")) != 0 {
		t.Error("ARTIST should be deleted")
	}
	if len(block.Comments) != 1 {
		t.Errorf("Comments = %v", block.Comments)
	}
}

func TestBlock_Apply(t *testing.T) {
	block := &Block{Comments: []string{"TITLE=Song", "broken"}}
	file := &types.File{}

	block.Apply(file)

	if file.TagKind != types.TagVorbis {
		t.Errorf("TagKind = %v", file.TagKind)
	}
	if file.Tags.GetFirst("TITLE") != "Song" {
		t.Errorf("TITLE = %q", file.Tags.GetFirst("TITLE"))
	}
	if len(file.Warnings) != 1 {
		t.Errorf("Warnings = %v", file.Warnings)
	}
}

func TestKeyEditor(t *testing.T) {
	ed := &KeyEditor{Block: &Block{Comments: []string{"ALBUM ARTIST=Old", "TITLE=Song"}}}

	if got, _ := ed.Get(types.KeyAlbumArtist); got != "Old" {
		t.Errorf("Get(album artist) = %q, want fallback value", got)
	}

	if err := ed.Set(types.KeyAlbumArtist, "New"); err != nil {
		t.Fatal(err)
	}
	if len(ed.Block.Get("ALBUM ARTIST")) != 0 {
		t.Error("fallback key should be cleared on write")
	}
	if got := ed.Block.Get("ALBUMARTIST"); !slices.Equal(got, []string{"New"}) {
		t.Errorf("ALBUMARTIST = %v", got)
	}

	if err := ed.Set(types.KeyTitle, ""); err != nil {
		t.Fatal(err)
	}
	if got, _ := ed.Get(types.KeyTitle); got != "" {
		t.Errorf("title should be deleted, got %q", got)
	}

	if ed.Kind() != types.TagVorbis {
		t.Errorf("Kind() = %v", ed.Kind())
	}
}
