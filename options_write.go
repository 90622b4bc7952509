package audiolib

// WriteOption configures a Writer.
//
// Example:
//
//	w, err := audiolib.NewWriter(item,
//	    audiolib.WithBackup(".bak"),
//	    audiolib.WithPlayback(player),
//	)
type WriteOption func(*writeOptions)

type writeOptions struct {
	backupSuffix    string   // Copy the original to path+suffix before writing
	preserveModTime bool     // Keep the original modification time
	playback        Playback // Suspended around each commit
}

func defaultWriteOptions() *writeOptions {
	return &writeOptions{playback: noPlayback{}}
}

// WithBackup copies the original file to path+suffix before each commit.
// An existing backup is overwritten.
func WithBackup(suffix string) WriteOption {
	return func(o *writeOptions) {
		o.backupSuffix = suffix
	}
}

// WithPreserveModTime keeps the file's modification time across commits.
func WithPreserveModTime() WriteOption {
	return func(o *writeOptions) {
		o.preserveModTime = true
	}
}

// WithPlayback suspends p around each commit so a player holding the
// file open does not race the rewrite.
func WithPlayback(p Playback) WriteOption {
	return func(o *writeOptions) {
		if p != nil {
			o.playback = p
		}
	}
}
