package types

import (
	"slices"
	"strings"
	"testing"
)

func TestTags_InsertionOrder(t *testing.T) {
	tags := &Tags{}
	tags.Add("COMM:Songs-DB_Custom1", "custom")
	tags.Add("TIT2", "Title")
	tags.Add("COMM:", "real comment")
	tags.Add("TIT2", "Second title")

	want := []string{"COMM:Songs-DB_Custom1", "TIT2", "COMM:"}
	if got := tags.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	var seen []string
	for key := range tags.All() {
		seen = append(seen, key)
	}
	if !slices.Equal(seen, want) {
		t.Errorf("All() order = %v, want %v", seen, want)
	}

	if got := tags.Get("TIT2"); !slices.Equal(got, []string{"Title", "Second title"}) {
		t.Errorf("Get(TIT2) = %v", got)
	}
}

func TestTags_Get(t *testing.T) {
	tags := &Tags{}
	tags.Set("ARTIST", "Test Artist")
	tags.Set("GENRE", "Rock", "Pop")

	tests := []struct {
		key  string
		want []string
	}{
		{"ARTIST", []string{"Test Artist"}},
		{"GENRE", []string{"Rock", "Pop"}},
		{"NONEXISTENT", nil},
	}

	for _, tc := range tests {
		if got := tags.Get(tc.key); !slices.Equal(got, tc.want) {
			t.Errorf("Get(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestTags_Get_ReturnsClone(t *testing.T) {
	tags := &Tags{}
	tags.Set("GENRE", "Rock", "Pop")

	got := tags.Get("GENRE")
	got[0] = "Modified"

	if tags.GetFirst("GENRE") != "Rock" {
		t.Error("Get() should return a copy")
	}
}

func TestTags_GetBest(t *testing.T) {
	tags := &Tags{}
	tags.Set("ALBUM ARTIST", "Fallback")
	tags.Set("EMPTY", "")

	if got := tags.GetBest("ALBUMARTIST", "EMPTY", "ALBUM ARTIST"); got != "Fallback" {
		t.Errorf("GetBest() = %q, want Fallback", got)
	}
	if got := tags.GetBest("MISSING"); got != "" {
		t.Errorf("GetBest(MISSING) = %q, want empty", got)
	}
}

func TestTags_SetAndDelete(t *testing.T) {
	tags := &Tags{}
	tags.Set("A", "1")
	tags.Set("B", "2")
	tags.Set("A", "3")

	if !slices.Equal(tags.Keys(), []string{"A", "B"}) {
		t.Errorf("re-Set should keep position, got %v", tags.Keys())
	}

	tags.Set("A")
	if tags.Has("A") || tags.Len() != 1 {
		t.Errorf("Set with no values should delete, keys = %v", tags.Keys())
	}

	tags.Delete("B")
	tags.Delete("missing")
	if tags.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tags.Len())
	}
}

func TestTags_CloneEqual(t *testing.T) {
	tags := &Tags{}
	tags.Set("TITLE", "Song")
	tags.Set("GENRE", "Rock", "Pop")

	clone := tags.Clone()
	if !tags.Equal(clone) {
		t.Fatal("clone should equal original")
	}

	clone.Add("GENRE", "Jazz")
	if tags.Equal(clone) {
		t.Error("modified clone should differ")
	}
	if len(tags.Get("GENRE")) != 2 {
		t.Error("modifying clone changed original")
	}

	var nilTags *Tags
	if nilTags.Clone() != nil || !nilTags.Equal(nil) || nilTags.Equal(tags) {
		t.Error("nil handling wrong")
	}
}

func TestTags_Filter(t *testing.T) {
	tags := &Tags{}
	tags.Add("COMM:", "comment")
	tags.Add("TIT2", "title")
	tags.Add("COMM:Songs-DB_Custom2", "1000-Intro")

	var keys []string
	for key := range tags.Filter(func(k string) bool { return strings.HasPrefix(k, ID3CommentPrefix) }) {
		keys = append(keys, key)
	}

	if !slices.Equal(keys, []string{"COMM:", "COMM:Songs-DB_Custom2"}) {
		t.Errorf("Filter() = %v", keys)
	}
}
