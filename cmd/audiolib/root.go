package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonhull/audiolib"
	"github.com/simonhull/audiolib/internal/config"
	"github.com/simonhull/audiolib/internal/logger"
)

var (
	cfg *config.Config

	envFile  string
	dbPath   string
	logLevel string
	workers  int
)

var rootCmd = &cobra.Command{
	Use:           "audiolib",
	Short:         "Read and edit audio tags, and keep a tag library.",
	Version:       versionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		c, err := config.Load(files...)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Flags().Changed("db") {
			c.DBPath = dbPath
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		if cmd.Flags().Changed("workers") && workers > 0 {
			c.Workers = workers
		}
		cfg = c

		return logger.Init(logger.Config{
			Level:      c.LogLevel,
			OutputPath: c.LogFile,
			MaxSize:    c.LogMaxSizeMB,
			MaxBackups: c.LogMaxBackups,
			MaxAge:     28,
			Compress:   true,
			Console:    true,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env", "", ".env file to load (default .env)")
	flags.StringVar(&dbPath, "db", "", "library database (AUDIOLIB_DB)")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (AUDIOLIB_LOG_LEVEL)")
	flags.IntVar(&workers, "workers", 0, "parallel reads (AUDIOLIB_WORKERS)")
}

func versionString() string {
	v := audiolib.GetVersionInfo()
	return fmt.Sprintf("%s (commit %s, built %s, %s)", v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
}

// readOptions are the read options implied by the configuration.
func readOptions() []audiolib.Option {
	return []audiolib.Option{audiolib.WithWorkers(cfg.Workers)}
}

// writeOptions are the write options implied by the configuration.
func writeOptions() []audiolib.WriteOption {
	var opts []audiolib.WriteOption
	if cfg.PreserveModTime {
		opts = append(opts, audiolib.WithPreserveModTime())
	}
	if cfg.BackupSuffix != "" {
		opts = append(opts, audiolib.WithBackup(cfg.BackupSuffix))
	}
	return opts
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
