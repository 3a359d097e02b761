package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"minidb/pkg/catalog"
	"minidb/pkg/concurrency/lock"
	"minidb/pkg/config"
	"minidb/pkg/logging"
	"minidb/pkg/session"
)

var (
	flagConfig   string
	flagDataDir  string
	flagFrames   int
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "minidb",
	Short: "minidb is an embeddable single-node SQL storage engine",
	Long: `minidb stores rows in slotted 4 KiB pages behind a pinning buffer
pool, indexes integer columns with B+Trees, and answers a small SQL
dialect through a pull-model executor. Running it with no arguments
starts an interactive shell.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = flagDataDir
		}
		if cmd.Flags().Changed("frames") {
			cfg.BufferPoolFrames = flagFrames
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = flagLogLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = flagLogFile
		}

		if err := logging.Init(logging.Config{Level: cfg.LogLevel, OutputPath: cfg.LogFile}); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return err
		}

		cat := catalog.NewCatalog(cfg.DataDir, cfg.BufferPoolFrames, lock.NewManager())
		defer cat.Close()
		ses := session.New(cat, cfg.WALBuffer)

		return runRepl(ses)
	},
}

func init() {
	// Accept underscore spellings (--data_dir) alongside the dashed ones.
	rootCmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	rootCmd.Flags().StringVar(&flagConfig, "config", "minidb.hcl", "path to the HCL config file")
	rootCmd.Flags().StringVar(&flagDataDir, "data-dir", "data", "directory holding the .db table files")
	rootCmd.Flags().IntVar(&flagFrames, "frames", 64, "buffer pool frames per table")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "log file path (stderr when empty)")
}
