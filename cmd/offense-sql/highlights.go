package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/offense-sql/internal/logging"
	"github.com/a3tai/offense-sql/internal/offense"
)

func newHighlightsCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlights <record.pdf>",
		Short: "Print the highlighted text of every page",
		Long: `Print the text under every highlight annotation, page by page, without
generating any SQL. Useful to check what the update run will see.

Example:
  offense-sql highlights record.pdf
  offense-sql highlights record.pdf --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.ForRun(logging.Init(stderr, cfg.LogLevel), args[0])

			doc, err := openDocument(cfg, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			pages, err := offense.NewProcessor(cfg.Settings(), logger).Highlights(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeHighlights(stdout, format, pages)
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}

func writeHighlights(w io.Writer, format string, pages []offense.PageHighlights) error {
	if pages == nil {
		pages = []offense.PageHighlights{}
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pages)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(pages); err != nil {
			return err
		}
		return enc.Close()

	case "text":
		if len(pages) == 0 {
			_, err := fmt.Fprintln(w, "No highlights found.")
			return err
		}
		for _, p := range pages {
			if _, err := fmt.Fprintf(w, "Page %d:\n", p.Page); err != nil {
				return err
			}
			for _, h := range p.Highlights {
				if _, err := fmt.Fprintf(w, "  %s\n", h); err != nil {
					return err
				}
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported format %q (must be text, json or yaml)", format)
	}
}
