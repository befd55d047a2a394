package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	config  string
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "formwizard",
	Short: "Drive HTML form wizards from the terminal",
	Long: `formwizard mounts the submission controller and the step wizard on an
HTML form, either read from a file or generated from an OpenAPI operation,
and lets you fill it in, inspect it or print it.

Configuration precedence:
  CLI flags > FORMWIZARD_* environment variables > --config file > defaults`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.config, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(renderCmd)
}

func logger() *log.Logger {
	if rootFlags.verbose {
		return log.New(os.Stderr, "formwizard: ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
