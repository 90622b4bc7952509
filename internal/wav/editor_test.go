package wav

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/bogem/id3v2/v2"

	"github.com/simonhull/audiolib/internal/types"
)

func reparse(t *testing.T, path string) *types.File {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	file, err := parseBytes(t, data)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	return file
}

// dataBody returns the body of the data chunk of the file at path.
func dataBody(t *testing.T, path string) []byte {
	t.Helper()
	riff, f, err := loadRIFF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	i := riff.find(func(c chunk) bool { return c.id == "data" })
	if i < 0 {
		t.Fatal("no data chunk")
	}
	c := riff.chunks[i]
	body := make([]byte, c.size)
	if _, err := f.ReadAt(body, c.bodyOffset()); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestInfoEditor_CreatesChunk(t *testing.T) {
	path := writeWAV(t, buildWAV(fmtChunk(), riffChunk("data", audioSamples())))

	ed, err := openEditor(path)
	if err != nil {
		t.Fatalf("openEditor failed: %v", err)
	}
	if ed.Kind() != types.TagRIFFInfo {
		t.Fatalf("Kind = %v, want RIFF INFO", ed.Kind())
	}
	if err := ed.Set(types.KeyTitle, "New"); err != nil {
		t.Fatal(err)
	}
	if err := ed.Set(types.KeyArtist, "Odd"); err != nil {
		t.Fatal(err)
	}
	if err := ed.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	file := reparse(t, path)
	if got, _ := file.Lookup(types.KeyTitle); got != "New" {
		t.Errorf("title = %q, want New", got)
	}
	if got, _ := file.Lookup(types.KeyArtist); got != "Odd" {
		t.Errorf("artist = %q, want Odd", got)
	}
	if !bytes.Equal(dataBody(t, path), audioSamples()) {
		t.Error("audio data changed")
	}
}

func TestInfoEditor_UpdateAndDelete(t *testing.T) {
	path := writeWAV(t, buildWAV(fmtChunk(),
		infoChunk("INAM", "Old", "IPRT", "3", "ISFT", "encoder"),
		riffChunk("data", audioSamples())))

	ed, err := openEditor(path)
	if err != nil {
		t.Fatalf("openEditor failed: %v", err)
	}
	if got, _ := ed.Get(types.KeyTrack); got != "3" {
		t.Errorf("Get(track) = %q, want fallback 3", got)
	}
	if err := ed.Set(types.KeyTrack, "4"); err != nil {
		t.Fatal(err)
	}
	if err := ed.Delete(types.KeyTitle); err != nil {
		t.Fatal(err)
	}
	if err := ed.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	file := reparse(t, path)
	if got := file.Tags.GetFirst("ITRK"); got != "4" {
		t.Errorf("ITRK = %q, want 4", got)
	}
	if file.Tags.Has("IPRT") || file.Tags.Has("INAM") {
		t.Errorf("fallback or deleted key survived: %v", file.Tags.Keys())
	}
	if got := file.Tags.GetFirst("ISFT"); got != "encoder" {
		t.Errorf("unmapped ISFT = %q, want it kept", got)
	}

	// Deleting the remaining entries drops the chunk.
	ed, err = openEditor(path)
	if err != nil {
		t.Fatal(err)
	}
	ie := ed.(*infoEditor)
	ie.entries = nil
	if err := ed.Save(); err != nil {
		t.Fatal(err)
	}
	riff, f, err := loadRIFF(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if i := riff.find(func(c chunk) bool { return c.id == "LIST" }); i >= 0 {
		t.Error("empty INFO chunk should be removed")
	}
}

func TestInfoEditor_Errors(t *testing.T) {
	path := writeWAV(t, buildWAV(fmtChunk(), riffChunk("data", audioSamples())))
	ed, err := openEditor(path)
	if err != nil {
		t.Fatal(err)
	}

	var unsupported *types.UnsupportedKeyError
	if err := ed.Set(types.KeyRating, "50"); !errors.As(err, &unsupported) {
		t.Errorf("Set(rating) = %v, want UnsupportedKeyError", err)
	}
	var invalid *types.InvalidValueError
	if err := ed.Set(types.KeyTitle, "a\x00b"); !errors.As(err, &invalid) {
		t.Errorf("Set with NUL = %v, want InvalidValueError", err)
	}
}

func TestID3Editor_RoundTrip(t *testing.T) {
	path := writeWAV(t, buildWAV(fmtChunk(), riffChunk("data", audioSamples()),
		id3Chunk(t, func(tag *id3v2.Tag) { tag.SetTitle("Before") })))

	ed, err := openEditor(path)
	if err != nil {
		t.Fatalf("openEditor failed: %v", err)
	}
	if ed.Kind() != types.TagID3v2 {
		t.Fatalf("Kind = %v, want ID3v2", ed.Kind())
	}
	if got, _ := ed.Get(types.KeyTitle); got != "Before" {
		t.Errorf("Get(title) = %q, want Before", got)
	}
	if err := ed.Set(types.KeyTitle, "After"); err != nil {
		t.Fatal(err)
	}
	if err := ed.Set(types.KeyRating, "255"); err != nil {
		t.Fatal(err)
	}
	if err := ed.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	file := reparse(t, path)
	if file.TagKind != types.TagID3v2 {
		t.Fatalf("TagKind = %v, want ID3v2", file.TagKind)
	}
	if got, _ := file.Lookup(types.KeyTitle); got != "After" {
		t.Errorf("title = %q, want After", got)
	}
	if got, _ := file.Lookup(types.KeyRating); got != "255" {
		t.Errorf("rating = %q, want 255", got)
	}
	if !bytes.Equal(dataBody(t, path), audioSamples()) {
		t.Error("audio data changed")
	}
}

func TestOpenEditor_TruncatedData(t *testing.T) {
	data := riffChunk("data", audioSamples())
	data[4] = 0xFF
	data[5] = 0xFF
	path := writeWAV(t, buildWAV(fmtChunk(), data))

	_, err := openEditor(path)
	var unsupported *types.UnsupportedWriteError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedWriteError, got %v", err)
	}
}

func TestRewrite_PadsOddChunks(t *testing.T) {
	odd := []byte("abc")
	path := writeWAV(t, buildWAV(fmtChunk(), riffChunk("junk", odd), riffChunk("data", audioSamples())))

	riff, f, err := loadRIFF(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := riff.rewrite(-1, "LIST", encodeInfo([]infoEntry{{id: "INAM", value: "x"}})); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw)%2 != 0 {
		t.Errorf("file length %d is odd", len(raw))
	}
	if declared := int(raw[4]) | int(raw[5])<<8 | int(raw[6])<<16 | int(raw[7])<<24; declared != len(raw)-8 {
		t.Errorf("RIFF size = %d, want %d", declared, len(raw)-8)
	}
	ids := make([]string, len(riff.chunks))
	for i, c := range riff.chunks {
		ids[i] = c.id
	}
	want := []string{"fmt ", "junk", "data", "LIST"}
	if len(ids) != len(want) {
		t.Fatalf("chunks = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, ids[i], want[i])
		}
	}
}
