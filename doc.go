// Package audiolib reads and writes the tag metadata of audio files.
//
// It normalizes ID3v1/ID3v2 (MP3, WAV), Vorbis comments (FLAC, Ogg
// Vorbis, Opus), MP4 atoms (M4A, M4B) and RIFF INFO (WAV) into one
// immutable Metadata value, and writes changes back field by field.
//
// # Reading
//
//	m := audiolib.Read(ctx, "song.flac")
//	if m.IsEmpty() {
//		// unreadable or unsupported
//	}
//	fmt.Println(m.Artist(), "-", m.Title(), m.TrackInfo())
//
// Read never fails: anything that cannot be read yields the Empty
// singleton. ReadFile returns the underlying error instead.
//
// # Writing
//
//	w, err := audiolib.NewWriter(audiolib.FileItem("song.mp3"))
//	if err != nil {
//		return err
//	}
//	w.SetTitle("New Title")
//	w.SetArtist("") // removes the field
//	w.SetRatingPercent(0.8)
//	ok := w.Write(ctx)
//
// A field the file's tag dialect rejects is logged and skipped; the other
// fields are still written.
//
// # Synthetic fields
//
// Play dates, the library-added date, a color and free-form tags are
// packed into the fifth custom slot using the ASCII group, record and unit
// separators. Chapters live in the second custom slot as
// "<millis>-<text>" entries joined by "|".
//
// # Grouping
//
// GroupsOf partitions metadata by the group value of a Field and
// aggregates counts, lengths, sizes, ratings and year ranges per group.
package audiolib
