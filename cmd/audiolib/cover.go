package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiolib"
)

var coverCmd = &cobra.Command{
	Use:   "cover <file> [output_dir]",
	Short: "Save the embedded cover image next to the file or into output_dir",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		outDir := filepath.Dir(path)
		if len(args) > 1 {
			outDir = args[1]
		}

		m, err := audiolib.ReadFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		art, err := m.Cover().Load()
		if err != nil {
			return err
		}
		if art == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: no cover\n", path)
			return nil
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(outDir, base+extensionForMIME(art.MIMEType))
		if err := os.WriteFile(out, art.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d bytes\n", out, m.Cover().Info(), len(art.Data))
		return nil
	},
}

// extensionForMIME returns the file extension for an image MIME type.
func extensionForMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	default:
		if ext, ok := strings.CutPrefix(mimeType, "image/"); ok && ext != "" {
			return "." + ext
		}
		return ".bin"
	}
}

func init() {
	rootCmd.AddCommand(coverCmd)
}
