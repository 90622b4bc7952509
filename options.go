package audiolib

// Option configures reading.
//
// Example:
//
//	items := audiolib.ReadMany(ctx, files,
//	    audiolib.WithWorkers(4),
//	    audiolib.WithArtworkPreload(),
//	)
type Option func(*readOptions)

type readOptions struct {
	strictParsing  bool // Fail on any parse warning
	preloadArtwork bool // Load the cover during the read instead of lazily
	workers        int  // Parallel reads in ReadMany
}

func newOptions(opts []Option) *readOptions {
	o := &readOptions{workers: defaultWorkers()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithStrictParsing treats any parse warning as a failed read, so the
// file yields Empty.
func WithStrictParsing() Option {
	return func(o *readOptions) {
		o.strictParsing = true
	}
}

// WithArtworkPreload loads the cover during the read. By default it is
// loaded on first access.
func WithArtworkPreload() Option {
	return func(o *readOptions) {
		o.preloadArtwork = true
	}
}

// WithWorkers bounds the number of files ReadMany reads at once. The
// default is runtime.NumCPU(); values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *readOptions) {
		if n >= 1 {
			o.workers = n
		}
	}
}
