package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var renderFlags struct {
	source sourceFlags
	output string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the HTML of the form",
	RunE:  runRender,
}

func init() {
	renderFlags.source.register(renderCmd)
	renderCmd.Flags().StringVar(&renderFlags.output, "output", "", "Output file (stdout if empty)")
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	doc, err := renderFlags.source.document(cmd.Context())
	if err != nil {
		return err
	}
	formNode, err := doc.Query(cfg.FormSelector)
	if err != nil {
		return fmt.Errorf("form %q: %w", cfg.FormSelector, err)
	}

	out := cmd.OutOrStdout()
	if renderFlags.output != "" {
		file, err := os.OpenFile(renderFlags.output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	if err := html.Render(out, formNode); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
