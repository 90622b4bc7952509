package audiolib

import (
	"io"

	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

// Format is the detected audio container format.
type Format = types.Format

const (
	FormatUnknown = types.FormatUnknown
	FormatFLAC    = types.FormatFLAC
	FormatMP3     = types.FormatMP3
	FormatM4A     = types.FormatM4A
	FormatM4B     = types.FormatM4B
	FormatOgg     = types.FormatOgg
	FormatOpus    = types.FormatOpus
	FormatWAV     = types.FormatWAV
	FormatAIFF    = types.FormatAIFF
)

// DetectFormat identifies the container by its magic bytes.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return registry.DetectFormat(r, size, path)
}

// IsAudioPath reports whether path has the extension of a format this
// package reads. It does not look at the file.
func IsAudioPath(path string) bool {
	f := types.FormatFromPath(path)
	return f != FormatUnknown && registry.Get(f) != nil
}
