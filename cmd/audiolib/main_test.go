package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiolib"
)

func flacFile(t *testing.T, comments ...string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	buf.WriteString("fLaC")
	buf.Write([]byte{0x00, 0x00, 0x00, 0x22})
	binary.Write(buf, binary.BigEndian, uint16(4096))
	binary.Write(buf, binary.BigEndian, uint16(4096))
	buf.Write(make([]byte, 6))
	binary.Write(buf, binary.BigEndian, uint64(44100)<<44|uint64(15)<<36|uint64(44100))
	buf.Write(make([]byte, 16))

	block := &bytes.Buffer{}
	binary.Write(block, binary.LittleEndian, uint32(3))
	block.WriteString("cli")
	binary.Write(block, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(block, binary.LittleEndian, uint32(len(c)))
		block.WriteString(c)
	}
	n := block.Len()
	buf.Write([]byte{0x84, byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(block.Bytes())
	buf.Write([]byte{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00, 0x00, 0x00})

	path := filepath.Join(t.TempDir(), "song.flac")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// run executes the CLI with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AUDIOLIB_DB", filepath.Join(t.TempDir(), "lib.db"))
	t.Setenv("AUDIOLIB_LOG_LEVEL", "error")
	readFields, chapterAdd, chapterRemove = nil, nil, nil
	addReplace, addStamp, dumpAtoms = false, false, false

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseAssignment(t *testing.T) {
	f, v, err := parseAssignment("Title=A = B")
	require.NoError(t, err)
	assert.Equal(t, audiolib.FieldTitle, f)
	assert.Equal(t, "A = B", v)

	f, v, err = parseAssignment("genre=")
	require.NoError(t, err)
	assert.Equal(t, audiolib.FieldGenre, f)
	assert.Empty(t, v)

	_, _, err = parseAssignment("title")
	assert.Error(t, err)
	_, _, err = parseAssignment("nosuchfield=x")
	assert.Error(t, err)
}

func TestParseFields(t *testing.T) {
	all, err := parseFields(nil)
	require.NoError(t, err)
	assert.Contains(t, all, audiolib.FieldTitle)
	assert.NotContains(t, all, audiolib.FieldCover)

	some, err := parseFields([]string{"artist", "TITLE"})
	require.NoError(t, err)
	assert.Equal(t, []audiolib.Field{audiolib.FieldArtist, audiolib.FieldTitle}, some)
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "0:00:00.000", formatOffset(0))
	assert.Equal(t, "1:02:03.045", formatOffset(time.Hour+2*time.Minute+3*time.Second+45*time.Millisecond))
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, "plain", printable("plain"))
	assert.Equal(t, "<3 bytes>", printable("a\x00b"))
	assert.Len(t, printable(string(bytes.Repeat([]byte("x"), 500))), 123)
}

func TestSetThenRead(t *testing.T) {
	path := flacFile(t, "TITLE=Old")

	out, err := run(t, "set", path, "title=New", "artist=Band", "track=3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 of 3 fields written")

	out, err = run(t, "read", "-f", "title,artist", path)
	require.NoError(t, err)
	assert.Contains(t, out, "New")
	assert.Contains(t, out, "Band")
}

func TestRateAndChapters(t *testing.T) {
	path := flacFile(t)

	out, err := run(t, "rate", path, "60")
	require.NoError(t, err)
	assert.Contains(t, out, "Rated 60%")
	assert.Equal(t, 60, audiolib.Read(context.Background(), path).Rating())

	out, err = run(t, "chapters", path, "--add", "90000-Second", "--add", "0-First")
	require.NoError(t, err)
	assert.Equal(t, "0:00:00.000  First\n0:01:30.000  Second\n", out)
}

func TestDump(t *testing.T) {
	path := flacFile(t, "TITLE=Dumped", "CUSTOM1=raw")

	out, err := run(t, "dump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "format: FLAC")
	assert.Contains(t, out, "Dumped")
	assert.Contains(t, out, "CUSTOM1")
}

func TestLibraryAddList(t *testing.T) {
	path := flacFile(t, "TITLE=Listed", "ARTIST=Band")
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := run(t, "--db", db, "library", "add", filepath.Dir(path))
	require.NoError(t, err)
	assert.Contains(t, out, "added 1, updated 0, skipped 0")

	out, err = run(t, "--db", db, "library", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Listed")

	require.NoError(t, os.Remove(path))
	out, err = run(t, "--db", db, "library", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "checked 1, removed 1")
}

func TestExtensionForMIME(t *testing.T) {
	assert.Equal(t, ".jpg", extensionForMIME("IMAGE/JPEG"))
	assert.Equal(t, ".png", extensionForMIME("image/png"))
	assert.Equal(t, ".tiff", extensionForMIME("image/tiff"))
	assert.Equal(t, ".bin", extensionForMIME("application/octet-stream"))
}

func TestCover_None(t *testing.T) {
	path := flacFile(t, "TITLE=Plain")
	out, err := run(t, "cover", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no cover")
}
