package vorbis

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/simonhull/audiolib/internal/types"
)

// pictureBlock encodes a FLAC picture structure.
func pictureBlock(kind uint32, mime, desc string, w, h uint32, data []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, kind)
	b = binary.BigEndian.AppendUint32(b, uint32(len(mime)))
	b = append(b, mime...)
	b = binary.BigEndian.AppendUint32(b, uint32(len(desc)))
	b = append(b, desc...)
	b = binary.BigEndian.AppendUint32(b, w)
	b = binary.BigEndian.AppendUint32(b, h)
	b = binary.BigEndian.AppendUint32(b, 24)
	b = binary.BigEndian.AppendUint32(b, 0)
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	return append(b, data...)
}

func TestDecodePictureComment(t *testing.T) {
	tests := []struct {
		name  string
		block []byte
		want  types.Artwork
	}{
		{
			name:  "front cover",
			block: pictureBlock(3, "image/jpeg", "Front", 100, 90, []byte{0xFF, 0xD8, 0xFF, 0xE0}),
			want: types.Artwork{Type: types.ArtworkFrontCover, MIMEType: "image/jpeg", Description: "Front",
				Width: 100, Height: 90, Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}},
		},
		{
			name:  "back cover without description",
			block: pictureBlock(4, "image/png", "", 1, 1, []byte{0x89}),
			want:  types.Artwork{Type: types.ArtworkBackCover, MIMEType: "image/png", Width: 1, Height: 1, Data: []byte{0x89}},
		},
		{
			name:  "out-of-range type",
			block: pictureBlock(99, "image/gif", "", 0, 0, []byte("GIF")),
			want:  types.Artwork{Type: types.ArtworkOther, MIMEType: "image/gif", Data: []byte("GIF")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePictureComment(base64.StdEncoding.EncodeToString(tt.block), "test.ogg")
			if err != nil {
				t.Fatalf("DecodePictureComment: %v", err)
			}
			if got.Type != tt.want.Type || got.MIMEType != tt.want.MIMEType || got.Description != tt.want.Description ||
				got.Width != tt.want.Width || got.Height != tt.want.Height || !bytes.Equal(got.Data, tt.want.Data) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodePictureComment_Invalid(t *testing.T) {
	block := pictureBlock(3, "image/jpeg", "", 1, 1, []byte{1, 2, 3})
	overlong := bytes.Clone(block)
	binary.BigEndian.PutUint32(overlong[4:], 1000)

	for name, value := range map[string]string{
		"bad base64":     "not valid base64!!!",
		"too short":      base64.StdEncoding.EncodeToString([]byte{0, 0, 0, 3}),
		"MIME past end":  base64.StdEncoding.EncodeToString(overlong),
		"data truncated": base64.StdEncoding.EncodeToString(block[:len(block)-1]),
	} {
		if _, err := DecodePictureComment(value, "test.ogg"); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
