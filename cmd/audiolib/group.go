package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiolib"
	"github.com/simonhull/audiolib/library"
)

var groupCmd = &cobra.Command{
	Use:   "group <field> <path>...",
	Short: "Group audio files by a field and print the aggregates",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := audiolib.ParseField(args[0])
		if err != nil {
			return err
		}
		files, err := library.ExpandPaths(args[1:])
		if err != nil {
			return err
		}
		items := make([]audiolib.Item, len(files))
		for i, f := range files {
			items[i] = audiolib.FileItem(f)
		}
		metas := audiolib.ReadMany(cmd.Context(), items, readOptions()...)
		printGroups(cmd.OutOrStdout(), audiolib.GroupsOf(field, metas))
		return nil
	},
}

func printGroups(w io.Writer, groups []*audiolib.Group) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VALUE\tITEMS\tALBUMS\tLENGTH\tYEARS\tRATING")
	for _, g := range groups {
		value := fmt.Sprint(g.Value)
		if value == "" {
			value = "(none)"
		}
		length := time.Duration(g.Length * float64(time.Millisecond)).Round(time.Second)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%.0f%%\n", value, g.Count, g.Albums, length, g.Years, g.AvgRating*100)
	}
	tw.Flush()
}

func init() {
	rootCmd.AddCommand(groupCmd)
}
