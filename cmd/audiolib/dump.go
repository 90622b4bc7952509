package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiolib/internal/m4a"
	"github.com/simonhull/audiolib/internal/registry"
	"github.com/simonhull/audiolib/internal/types"
)

var dumpAtoms bool

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the raw native tags of a file",
	Long: `Print the tag dialect, the native tag keys and values, technical info
and parse warnings of a file, exactly as the format parser sees them.
With --atoms, MP4 files also get their atom tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dump(cmd.OutOrStdout(), args[0], dumpAtoms)
	},
}

func dump(w io.Writer, path string, atoms bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return err
	}
	size := stat.Size()

	format, err := registry.DetectFormat(f, size, path)
	if err != nil {
		return err
	}
	parser := registry.Get(format)
	if parser == nil {
		return fmt.Errorf("%s: no parser for %s", path, format)
	}
	file, err := parser.Parse(f, size, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n  format: %s\n  tags:   %s\n  audio:  %s\n", path, format, file.TagKind, file.Audio)
	writeTags(w, &file.Tags)
	for _, warn := range file.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}

	if atoms && (format == types.FormatM4A || format == types.FormatM4B) {
		fmt.Fprintln(w, "  atoms:")
		return m4a.WalkTree(f, size, path, func(a *m4a.Atom, depth int) bool {
			fmt.Fprintf(w, "    %s%s (size: %d, offset: %d)\n", strings.Repeat("  ", depth), a.Type, a.Size, a.Offset)
			return true
		})
	}
	return nil
}

// writeTags prints every native key in sorted order, one line per value.
// Binary payloads are summarized by length.
func writeTags(w io.Writer, tags *types.Tags) {
	keys := tags.Keys()
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range tags.Get(k) {
			fmt.Fprintf(w, "    %-40s %s\n", k, printable(v))
		}
	}
}

func printable(v string) string {
	const limit = 120
	if strings.ContainsFunc(v, func(r rune) bool { return r < 0x20 && r != '\t' }) {
		return fmt.Sprintf("<%d bytes>", len(v))
	}
	if len(v) > limit {
		return v[:limit] + "..."
	}
	return v
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpAtoms, "atoms", false, "print the MP4 atom tree")
	rootCmd.AddCommand(dumpCmd)
}
