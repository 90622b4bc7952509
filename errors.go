package audiolib

import (
	"errors"

	"github.com/simonhull/audiolib/internal/types"
)

// Re-exported error types of the format packages.
type (
	OutOfBoundsError       = types.OutOfBoundsError
	UnsupportedFormatError = types.UnsupportedFormatError
	CorruptedFileError     = types.CorruptedFileError
	UnsupportedWriteError  = types.UnsupportedWriteError
	UnsupportedKeyError    = types.UnsupportedKeyError
	InvalidValueError      = types.InvalidValueError
	Warning                = types.Warning
)

var (
	// ErrNotFileBased is returned by NewWriter for items without a file.
	ErrNotFileBased = errors.New("item is not file based")
	// ErrCorruptItem is returned when reading an item marked corrupt.
	ErrCorruptItem = errors.New("item is marked corrupt")
	// ErrNoChanges is logged when Write is called with nothing staged.
	ErrNoChanges = errors.New("no staged changes")
)
