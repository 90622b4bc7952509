package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiolib"
)

var readFields []string

var readCmd = &cobra.Command{
	Use:   "read <file>...",
	Short: "Print the tags of audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFields(readFields)
		if err != nil {
			return err
		}
		items := make([]audiolib.Item, len(args))
		for i, p := range args {
			items[i] = audiolib.FileItem(p)
		}
		out := cmd.OutOrStdout()
		for i, m := range audiolib.ReadMany(cmd.Context(), items, readOptions()...) {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if m.IsEmpty() {
				fmt.Fprintf(out, "%s: unreadable\n", args[i])
				continue
			}
			printMetadata(out, m, fields)
		}
		return nil
	},
}

// parseFields resolves field names; none means every visible text field.
func parseFields(names []string) ([]audiolib.Field, error) {
	if len(names) == 0 {
		var fields []audiolib.Field
		for _, f := range audiolib.Fields() {
			if f.IsVisible() && f.IsStringRepresentable() {
				fields = append(fields, f)
			}
		}
		return fields, nil
	}
	fields := make([]audiolib.Field, 0, len(names))
	for _, n := range names {
		f, err := audiolib.ParseField(n)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func printMetadata(w io.Writer, m *audiolib.Metadata, fields []audiolib.Field) {
	fmt.Fprintln(w, m.File())
	for _, f := range fields {
		if v := f.Format(m); v != "" {
			fmt.Fprintf(w, "  %-14s %s\n", f.Description()+":", v)
		}
	}
}

var setCmd = &cobra.Command{
	Use:   "set <file> <field>=<value>...",
	Short: "Write tag fields; an empty value deletes the field",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := audiolib.NewWriter(audiolib.FileItem(args[0]), writeOptions()...)
		if err != nil {
			return err
		}
		for _, arg := range args[1:] {
			field, value, err := parseAssignment(arg)
			if err != nil {
				return err
			}
			w.Set(field, value)
		}
		staged := w.Changed()
		if !w.Write(cmd.Context()) {
			return fmt.Errorf("%s: nothing written", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d fields written\n", args[0], staged, len(args)-1)
		return nil
	},
}

// parseAssignment splits "field=value" and resolves the field name.
func parseAssignment(s string) (audiolib.Field, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return 0, "", fmt.Errorf("%q: expected field=value", s)
	}
	f, err := audiolib.ParseField(strings.TrimSpace(name))
	if err != nil {
		return 0, "", err
	}
	return f, value, nil
}

// notifier prints user-facing messages from the one-shot helpers.
func notifier(cmd *cobra.Command) audiolib.Notifier {
	return audiolib.NotifierFunc(func(msg string) {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	})
}

var rateCmd = &cobra.Command{
	Use:   "rate <file> <percent>",
	Short: "Rate a file from 0 to 100",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("rating %q: %w", args[1], err)
		}
		if !audiolib.RateByPercent(cmd.Context(), audiolib.FileItem(args[0]), p/100, notifier(cmd), writeOptions()...) {
			return fmt.Errorf("%s: rating not written", args[0])
		}
		return nil
	},
}

var playedCmd = &cobra.Command{
	Use:   "played <file>...",
	Short: "Increment the playcount and record the play time",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		var errs []error
		for _, p := range args {
			if !audiolib.MarkPlayed(cmd.Context(), audiolib.FileItem(p), now, notifier(cmd), writeOptions()...) {
				errs = append(errs, fmt.Errorf("%s: play not recorded", p))
			}
		}
		return errors.Join(errs...)
	},
}

var (
	chapterAdd    []string
	chapterRemove []string
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters <file>",
	Short: "List, add or remove chapters (\"<millis>-<text>\")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if len(chapterAdd) > 0 || len(chapterRemove) > 0 {
			w, err := audiolib.NewWriter(audiolib.FileItem(path), writeOptions()...)
			if err != nil {
				return err
			}
			for _, s := range chapterAdd {
				c, err := audiolib.ParseChapter(s)
				if err != nil {
					return err
				}
				w.AddChapter(c)
			}
			for _, s := range chapterRemove {
				c, err := audiolib.ParseChapter(s)
				if err != nil {
					return err
				}
				w.RemoveChapter(c)
			}
			if !w.Write(cmd.Context()) {
				return fmt.Errorf("%s: chapters not written", path)
			}
		}

		m, err := audiolib.ReadFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, c := range m.Chapters() {
			fmt.Fprintf(out, "%10s  %s\n", formatOffset(c.Time), c.Text)
		}
		return nil
	},
}

// formatOffset renders a chapter position as h:mm:ss.mmm.
func formatOffset(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func init() {
	readCmd.Flags().StringSliceVarP(&readFields, "fields", "f", nil, "fields to print (default: all visible)")
	chaptersCmd.Flags().StringArrayVar(&chapterAdd, "add", nil, "chapter to add")
	chaptersCmd.Flags().StringArrayVar(&chapterRemove, "remove", nil, "chapter to remove")

	rootCmd.AddCommand(readCmd, setCmd, rateCmd, playedCmd, chaptersCmd)
}
