package audiolib

import "github.com/simonhull/audiolib/internal/types"

// Artwork is one embedded image.
type Artwork = types.Artwork

// ArtworkType is the ID3v2 APIC / FLAC PICTURE picture type.
type ArtworkType = types.ArtworkType

const (
	ArtworkOther      = types.ArtworkOther
	ArtworkFrontCover = types.ArtworkFrontCover
	ArtworkBackCover  = types.ArtworkBackCover
	ArtworkMedia      = types.ArtworkMedia
	ArtworkArtist     = types.ArtworkArtist
)
