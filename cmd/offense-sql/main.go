package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/a3tai/offense-sql/internal/config"
	"github.com/a3tai/offense-sql/internal/logging"
	"github.com/a3tai/offense-sql/internal/mcp"
	"github.com/a3tai/offense-sql/internal/offense"
	"github.com/a3tai/offense-sql/internal/pdf"
	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "offense-sql <record.pdf>",
		Short: "Turn highlighted offense changes in a criminal record PDF into SQL updates",
		Long: `offense-sql reads a criminal record PDF in which changed values have been
highlighted and writes one SQL UPDATE statement per offense that carries
changes, numbered across the whole document:

  sqloutput0.sql, sqloutput1.sql, ...

Each highlight must cover a "Label: value" pair beside the record's label
column. Offenses are delimited by the "Offense Description" marker.

Example:
  offense-sql record.pdf
  offense-sql record.pdf --outdir ./sql --loglevel debug
  offense-sql record.pdf --stdout`,
		Args:          cobra.ExactArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(versionText())

	config.DefineFlags(root.PersistentFlags(), config.DefaultConfig())

	root.AddCommand(newHighlightsCmd(stdout, stderr))
	root.AddCommand(newServeCmd(stderr))
	root.AddCommand(newVersionCmd(stdout))
	return root
}

// loadConfig resolves the configuration from the command's parsed flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if version != "dev" {
		cfg.Version = version
	}
	return cfg, nil
}

func openDocument(cfg *config.Config, path string) (*pdf.Document, error) {
	return pdf.Open(path, pdf.Options{
		MaxFileSize: cfg.MaxFileSize,
		Layout:      layout.DefaultOptions(),
	})
}

func runGenerate(cmd *cobra.Command, path string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.ForRun(logging.Init(stderr, cfg.LogLevel), path)
	logger.Debug("configuration loaded", "config", cfg.String())

	doc, err := openDocument(cfg, path)
	if err != nil {
		return err
	}
	defer doc.Close()

	var sink offense.Sink = &offense.WriterSink{W: stdout, Prefix: cfg.Prefix}
	if !cfg.Stdout {
		if err := cfg.EnsureOutputDir(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		sink = offense.NewFileSink(cfg.OutputDir, cfg.Prefix)
	}

	result, err := offense.NewProcessor(cfg.Settings(), logger).Process(cmd.Context(), doc, sink)
	if err != nil {
		logger.Warn("processing stopped, earlier statements were kept",
			"statements_written", len(result.Statements))
		return err
	}
	return nil
}

func newServeCmd(stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the highlight and update tools over MCP stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing two tools:

  offense_highlights  list the highlighted text of a record PDF
  offense_updates     generate the UPDATE statements without writing files

Logging is disabled unless --loglevel=debug, so the protocol stream stays clean.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// In stdio mode, keep logs off the protocol stream unless debugging
			var logger *slog.Logger
			if cfg.IsDebug() {
				logger = logging.New(stderr, cfg.LogLevel)
				logger.Debug("starting with configuration", "config", cfg.String())
			} else {
				logger = logging.Discard()
			}

			server, err := mcp.NewServer(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			return server.Run(cmd.Context())
		},
	}
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(stdout)
		},
	}
}

// versionText returns the version banner
func versionText() string {
	return fmt.Sprintf("Offense SQL\nVersion: %s\nBuild Time: %s\nGit Commit: %s\nBuilt with: %s\n",
		version, buildTime, gitCommit, runtime.Version())
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprint(w, versionText())
}
