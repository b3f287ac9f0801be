package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chess99/BookDistill/internal/config"
	"github.com/chess99/BookDistill/internal/logging"
	"github.com/chess99/BookDistill/internal/parser"
	"github.com/chess99/BookDistill/pkg/types"
)

const version = "0.1.0"

// cli holds state shared by all subcommands
type cli struct {
	cfgFile string
	verbose bool

	cfg *types.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "distill",
		Short: "Extract plain text and metadata from books",
		Long: `distill extracts readable text, title and author from EPUB and
Markdown files so the result can be fed to a summarizer.

Examples:
  distill parse book.epub            # Print the extracted text
  distill parse --json *.epub *.md   # Parse many files as JSON
  distill detect notes.markdown      # Print the detected format
  distill formats                    # List accepted extensions`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(
		&c.cfgFile, "config", "", "config file (default: built-in defaults plus BD_* environment)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&c.verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(newParseCmd(c))
	rootCmd.AddCommand(newDetectCmd(c))
	rootCmd.AddCommand(newFormatsCmd(c))

	return rootCmd
}

func (c *cli) setup() error {
	cfg, err := config.LoadOrDefault(c.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := types.LoggingConfig{Level: "warn", Format: "console"}
	if c.verbose {
		logCfg.Level = "debug"
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	c.cfg = cfg
	c.log = log
	return nil
}

func (c *cli) registry() *parser.Registry {
	return parser.NewDefaultRegistry(c.log,
		parser.WithMaxEntrySize(int64(c.cfg.Parser.MaxEntryMB)<<20))
}
