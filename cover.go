package audiolib

import (
	"fmt"
	"os"
	"sync"

	"github.com/simonhull/audiolib/internal/registry"
)

// Cover is a lazily loaded handle on a file's embedded artwork. Nothing
// is decoded until the first Load; the result, including a failure, is
// cached. A nil *Cover is valid and holds no image.
type Cover struct {
	path   string
	format Format

	once sync.Once
	art  *Artwork
	err  error
}

func newCover(path string, format Format) *Cover {
	if _, ok := registry.Get(format).(registry.ArtworkExtractor); !ok {
		return nil
	}
	return &Cover{path: path, format: format}
}

// Load returns the front cover, or the first image when there is no
// front cover. It returns nil, nil when the file has no artwork.
func (c *Cover) Load() (*Artwork, error) {
	if c == nil {
		return nil, nil
	}
	c.once.Do(func() {
		c.art, c.err = c.load()
	})
	return c.art, c.err
}

func (c *Cover) load() (*Artwork, error) {
	extractor, ok := registry.Get(c.format).(registry.ArtworkExtractor)
	if !ok {
		return nil, nil
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	artwork, err := extractor.ExtractArtwork(f, stat.Size(), c.path)
	if err != nil {
		return nil, fmt.Errorf("extract artwork: %w", err)
	}
	if len(artwork) == 0 {
		return nil, nil
	}
	for i := range artwork {
		if artwork[i].Type == ArtworkFrontCover {
			return &artwork[i], nil
		}
	}
	return &artwork[0], nil
}

// Data returns the image bytes, or nil.
func (c *Cover) Data() []byte {
	art, _ := c.Load()
	if art == nil {
		return nil
	}
	return art.Data
}

// Info describes the image, e.g. "image/jpeg 500x500", or "" when there
// is none.
func (c *Cover) Info() string {
	art, _ := c.Load()
	if art == nil {
		return ""
	}
	if art.Width > 0 && art.Height > 0 {
		return fmt.Sprintf("%s %dx%d", art.MIMEType, art.Width, art.Height)
	}
	return art.MIMEType
}
