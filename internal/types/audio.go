package types

import (
	"fmt"
	"strings"
	"time"
)

// AudioInfo represents technical audio properties.
type AudioInfo struct {
	Codec      string
	Container  string
	Duration   time.Duration
	SampleRate int
	BitDepth   int
	Channels   int
	Bitrate    int // bits per second
	Lossless   bool
	VBR        bool
}

// String returns a human-readable representation of the audio info.
// Example output: "FLAC 44.1kHz 16-bit stereo lossless".
func (a AudioInfo) String() string {
	parts := []string{a.Codec}
	if a.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("%.1fkHz", float64(a.SampleRate)/1000))
	}
	if a.BitDepth > 0 {
		parts = append(parts, fmt.Sprintf("%d-bit", a.BitDepth))
	}
	parts = append(parts, ChannelDescription(a.Channels))

	if a.Lossless {
		parts = append(parts, "lossless")
	} else if a.Bitrate > 0 {
		quality := fmt.Sprintf("%dkbps", a.Bitrate/1000)
		if a.VBR {
			quality += " VBR"
		}
		parts = append(parts, quality)
	}

	return join(parts, " ")
}

// ChannelDescription returns a human-readable channel description.
func ChannelDescription(channels int) string {
	switch channels {
	case 0:
		return ""
	case 1:
		return "mono"
	case 2:
		return "stereo"
	case 4:
		return "quad"
	case 6:
		return "5.1"
	case 8:
		return "7.1"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// SampleRateDescription renders a sample rate such as "44.1 kHz".
func SampleRateDescription(rate int) string {
	if rate <= 0 {
		return ""
	}
	if rate%1000 == 0 {
		return fmt.Sprintf("%d kHz", rate/1000)
	}
	return fmt.Sprintf("%.1f kHz", float64(rate)/1000)
}

// join concatenates strings with a separator, skipping empty strings.
func join(parts []string, sep string) string {
	nonEmpty := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, sep)
}
