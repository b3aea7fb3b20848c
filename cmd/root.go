// Package cmd defines the CLI commands for the eventscraper executable.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/config"
	"github.com/seyi-sanmi/atlas/internal/logging"
)

// errURLRequired is reported when no page URL was given.
var errURLRequired = errors.New("URL is required")

// cli carries state shared by the root command and its subcommands.
type cli struct {
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
	build   pipelineFactory
}

// newRootCmd creates the root command. Scraping one URL is the default
// action; "serve" runs the HTTP API.
func newRootCmd(build pipelineFactory) *cobra.Command {
	c := &cli{build: build}
	cmd := &cobra.Command{
		Use:   "eventscraper [url]",
		Short: "Scrape one event page into a JSON event record.",
		Long: `eventscraper fetches an event page, reconciles its structured metadata
with what the visible page says, and prints a single JSON event record.
Logs go to stderr; stdout carries only the record or {"error": "..."}.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: c.runScrape,
	}

	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (YAML/JSON/TOML); env vars use the "+config.EnvPrefix+"_ prefix")
	cmd.AddCommand(newServeCmd(c))
	return cmd
}

func (c *cli) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *cli) runScrape(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return errURLRequired
	}
	if len(args) > 1 {
		return fmt.Errorf("expected exactly one URL, got %d arguments", len(args))
	}

	p, err := c.build(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer p.Close()

	record, err := p.scraper.Scrape(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), record)
}

// run executes the CLI and returns the process exit status. Failures are
// reported on stdout as {"error": "..."}.
func run(args []string, stdout io.Writer, build pipelineFactory) int {
	root := newRootCmd(build)
	root.SetArgs(args)
	root.SetOut(stdout)
	if err := root.Execute(); err != nil {
		if werr := writeJSON(stdout, map[string]string{"error": err.Error()}); werr != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", werr)
		}
		return 1
	}
	return 0
}

// Execute is the main entry point.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, buildPipeline))
}

func writeJSON(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
