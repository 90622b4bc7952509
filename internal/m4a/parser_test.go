package m4a

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/simonhull/audiolib/internal/types"
)

func parseBytes(t *testing.T, data []byte) (*types.File, error) {
	t.Helper()
	p := &parser{}
	return p.Parse(bytes.NewReader(data), int64(len(data)), "test.m4a")
}

func TestParse_Success(t *testing.T) {
	data := buildM4A("M4A ",
		textItem("\xa9nam", "Song Title"),
		textItem("\xa9ART", "Artist Name"),
		textItem("\xa9gen", "Jazz"),
		textItem("catg", "Podcasts"),
		pairItem("trkn", 3, 12),
		pairItem("disk", 1, 2),
		createMockAtom(types.MP4Rating, dataAtom(dataSigned, []byte{80})),
		freeformItem("MOOD", "Mellow"),
		freeformItem(types.CustomDescription+"1", "slot one"),
	)

	file, err := parseBytes(t, data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Format != types.FormatM4A {
		t.Errorf("Format = %v, want M4A", file.Format)
	}
	if file.TagKind != types.TagMP4 {
		t.Errorf("TagKind = %v, want MP4", file.TagKind)
	}

	want := map[types.FieldKey]string{
		types.KeyTitle:            "Song Title",
		types.KeyArtist:           "Artist Name",
		types.KeyGenre:            "Jazz",
		types.KeyCategoryFallback: "Podcasts",
		types.KeyTrack:            "3/12",
		types.KeyDisc:             "1/2",
		types.KeyRating:           "80",
		types.KeyMood:             "Mellow",
		types.KeyCustom1:          "slot one",
	}
	for key, value := range want {
		got, err := file.Lookup(key)
		if err != nil {
			t.Errorf("Lookup(%v): %v", key, err)
			continue
		}
		if got != value {
			t.Errorf("Lookup(%v) = %q, want %q", key, got, value)
		}
	}
	if len(file.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", file.Warnings)
	}
}

func TestParse_Technical(t *testing.T) {
	file, err := parseBytes(t, buildM4A("M4A ", textItem("\xa9nam", "x")))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	audio := file.Audio
	if audio.Duration != 180*time.Second+500*time.Millisecond {
		t.Errorf("Duration = %v, want 3m0.5s", audio.Duration)
	}
	if audio.Codec != "AAC" || audio.Container != "MP4" {
		t.Errorf("Codec/Container = %q/%q, want AAC/MP4", audio.Codec, audio.Container)
	}
	if audio.SampleRate != 44100 || audio.Channels != 2 {
		t.Errorf("SampleRate/Channels = %d/%d, want 44100/2", audio.SampleRate, audio.Channels)
	}
	if audio.Bitrate != 128000 {
		t.Errorf("Bitrate = %d, want 128000 from esds", audio.Bitrate)
	}
	if audio.Lossless {
		t.Error("AAC reported as lossless")
	}
}

func TestParse_AudiobookBrand(t *testing.T) {
	file, err := parseBytes(t, buildM4A("M4B ", textItem("\xa9nam", "Book")))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.Format != types.FormatM4B {
		t.Errorf("Format = %v, want M4B", file.Format)
	}
}

func TestParse_Untagged(t *testing.T) {
	file, err := parseBytes(t, buildM4A("M4A "))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if file.Tags.Len() != 0 {
		t.Errorf("expected no tags, got %v", file.Tags.Keys())
	}
	if file.TagKind != types.TagMP4 {
		t.Errorf("TagKind = %v, want MP4", file.TagKind)
	}
}

func TestParse_NoMoov(t *testing.T) {
	data := append(ftypAtom("M4A "), createMockAtom("mdat", []byte("x"))...)

	_, err := parseBytes(t, data)
	var corrupted *types.CorruptedFileError
	if !errors.As(err, &corrupted) {
		t.Fatalf("expected CorruptedFileError, got %v", err)
	}
}

func TestParse_ItemPastParent(t *testing.T) {
	bad := textItem("\xa9nam", "Title")
	binary.BigEndian.PutUint32(bad, 400)

	_, err := parseBytes(t, buildM4A("M4A ", bad))
	var corrupted *types.CorruptedFileError
	if !errors.As(err, &corrupted) {
		t.Fatalf("expected CorruptedFileError, got %v", err)
	}
}

func TestParse_UnknownBrand(t *testing.T) {
	_, err := parseBytes(t, buildM4A("qt  "))
	var unsupported *types.UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
}

func pngImage(width, height uint32) []byte {
	img := []byte("\x89PNG\r\n\x1a\n")
	img = binary.BigEndian.AppendUint32(img, 13)
	img = append(img, "IHDR"...)
	img = binary.BigEndian.AppendUint32(img, width)
	img = binary.BigEndian.AppendUint32(img, height)
	return append(img, 8, 6, 0, 0, 0)
}

func TestExtractArtwork(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F'}
	data := buildM4A("M4A ",
		textItem("\xa9nam", "With Cover"),
		coverItem(dataPNG, pngImage(64, 32), jpeg),
	)

	p := &parser{}
	artwork, err := p.ExtractArtwork(bytes.NewReader(data), int64(len(data)), "test.m4a")
	if err != nil {
		t.Fatalf("ExtractArtwork failed: %v", err)
	}
	if len(artwork) != 2 {
		t.Fatalf("got %d images, want 2", len(artwork))
	}
	if artwork[0].MIMEType != "image/png" || artwork[0].Width != 64 || artwork[0].Height != 32 {
		t.Errorf("first image = %s", artwork[0])
	}
	if artwork[0].Type != types.ArtworkFrontCover {
		t.Errorf("Type = %v, want front cover", artwork[0].Type)
	}
	// The sniffed type wins over the declared one.
	if artwork[1].MIMEType != "image/jpeg" {
		t.Errorf("second MIMEType = %q, want image/jpeg", artwork[1].MIMEType)
	}

	file, err := parseBytes(t, data)
	if err != nil {
		t.Fatal(err)
	}
	if file.Tags.Has("covr") {
		t.Error("cover art leaked into text tags")
	}
}

func TestExtractArtwork_None(t *testing.T) {
	for name, data := range map[string][]byte{
		"untagged": buildM4A("M4A "),
		"no covr":  buildM4A("M4A ", textItem("\xa9nam", "x")),
	} {
		p := &parser{}
		artwork, err := p.ExtractArtwork(bytes.NewReader(data), int64(len(data)), "test.m4a")
		if err != nil || artwork != nil {
			t.Errorf("%s: got %v, %v; want nil, nil", name, artwork, err)
		}
	}
}

func TestParseESDescriptors(t *testing.T) {
	esds := esdsAtom()
	details := parseESDescriptors(esds[12:])
	if details.profile != "AAC" || details.avgBitrate != 128000 {
		t.Errorf("details = %+v", details)
	}

	if got := parseESDescriptors([]byte{0x03}); got != (esdsDetails{}) {
		t.Errorf("truncated descriptor = %+v", got)
	}
}

func TestCodecName(t *testing.T) {
	tests := map[string]string{
		"mp4a": "AAC",
		"alac": "ALAC",
		"ec-3": "E-AC-3",
		"UNKN": "UNKN",
	}
	for fourCC, want := range tests {
		if got := codecName(fourCC); got != want {
			t.Errorf("codecName(%q) = %q, want %q", fourCC, got, want)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	data := buildM4A("M4A ", textItem("\xa9nam", "Title"), pairItem("trkn", 1, 10))
	p := &parser{}
	b.ResetTimer()
	for range b.N {
		_, _ = p.Parse(bytes.NewReader(data), int64(len(data)), "bench.m4a")
	}
}
