package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonhull/audiolib/internal/logger"
	"github.com/simonhull/audiolib/library"
	"github.com/simonhull/audiolib/task"
)

var (
	addReplace bool
	addStamp   bool
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Maintain the metadata library",
}

// openStore opens the configured library database.
func openStore() (*library.Store, error) {
	var opts []library.StoreOption
	if cfg.LogLevel == logger.DebugLevel {
		opts = append(opts, library.WithSQLLog())
	}
	return library.Open(cfg.DBPath, opts...)
}

// addOptions are the AddTask options implied by the flags.
func addOptions(cmd *cobra.Command) []library.AddOption {
	opts := []library.AddOption{
		library.WithProgress(func(p task.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rread %d/%d (%d skipped)", p.Completed, p.Total, p.Skipped)
		}),
		// The counter line must be out before the summary.
		library.WithTaskOptions(task.WithExecutor(task.Immediate)),
	}
	if addReplace {
		opts = append(opts, library.WithReplace())
	}
	if addStamp {
		opts = append(opts, library.WithStampFiles(writeOptions()...))
	}
	return opts
}

var libraryAddCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Add files and directories to the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := library.NewAddTask(store, args, addOptions(cmd)...).Run(cmd.Context())
		fmt.Fprintln(cmd.ErrOrStderr())
		fmt.Fprintf(cmd.OutOrStdout(), "added %d, updated %d, skipped %d\n", res.Added, res.Updated, res.Skipped)
		return err
	},
}

var libraryPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries whose files no longer exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := library.NewRemoveMissingTask(store).Run(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d, removed %d\n", res.Checked, res.Removed)
		return err
	},
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.All(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ARTIST\tALBUM\tTRACK\tTITLE\tRATING\tPLAYS\tADDED")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Artist, e.Album, known(e.Track), e.Title, known(e.Rating), known(e.Playcount),
				e.LibraryAdded.Local().Format("2006-01-02"))
		}
		return tw.Flush()
	},
}

var libraryWatchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Keep the library in step with directories until interrupted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := library.NewAddTask(store, args).Run(cmd.Context()); err != nil {
			return err
		}
		w, err := library.NewWatcher(store, args,
			library.WithAddOptions(addOptionsQuiet()...),
			library.WithSyncHandler(func(s library.WatchSync) {
				if s.Err != nil {
					logger.Warn("library sync failed", zap.Error(s.Err))
				}
			}),
		)
		if err != nil {
			return err
		}
		logger.Info("watching", zap.Strings("dirs", args))
		return w.Run(cmd.Context())
	},
}

// addOptionsQuiet is addOptions without progress output, for the watcher.
func addOptionsQuiet() []library.AddOption {
	if addStamp {
		return []library.AddOption{library.WithStampFiles(writeOptions()...)}
	}
	return nil
}

func known(n int) string {
	if n < 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func init() {
	libraryAddCmd.Flags().BoolVar(&addReplace, "replace", false, "re-read files already in the library")
	libraryAddCmd.Flags().BoolVar(&addStamp, "stamp", false, "write the library-added time into the files")
	libraryWatchCmd.Flags().BoolVar(&addStamp, "stamp", false, "write the library-added time into new files")

	libraryCmd.AddCommand(libraryAddCmd, libraryPruneCmd, libraryListCmd, libraryWatchCmd)
	rootCmd.AddCommand(libraryCmd)
}
