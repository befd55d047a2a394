package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/pkg/tui"
)

var runFlags struct {
	source  sourceFlags
	baseURL string
	async   bool
	strict  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fill in and submit a form interactively",
	RunE:  runSession,
}

func init() {
	runFlags.source.register(runCmd)
	runCmd.Flags().StringVar(&runFlags.baseURL, "base-url", "", "Base URL relative form actions resolve against")
	runCmd.Flags().BoolVar(&runFlags.async, "async", false, "Submit through the pipeline instead of letting native submits through")
	runCmd.Flags().BoolVar(&runFlags.strict, "strict", false, "Treat server errors for unknown fields as contract violations")
}

func runSession(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(func(cfg *formwizard.Config) {
		flags := cmd.Flags()
		if flags.Changed("base-url") {
			cfg.BaseURL = runFlags.baseURL
		}
		if flags.Changed("async") {
			cfg.Async = runFlags.async
		}
		if flags.Changed("strict") {
			cfg.StrictFieldNames = runFlags.strict
		}
	})
	if err != nil {
		return err
	}

	doc, err := runFlags.source.document(ctx)
	if err != nil {
		return err
	}
	session, err := formwizard.Mount(doc, formwizard.WithConfig(cfg), formwizard.WithLogger(logger()))
	if err != nil {
		return err
	}
	defer session.Destroy()

	runner, err := session.Runner(tui.WithOutput(cmd.OutOrStdout()), tui.WithLogger(logger()))
	if err != nil {
		return err
	}
	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
			return nil
		}
		return err
	}
	return nil
}
