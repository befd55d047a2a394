package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/internal/openapi"
	"github.com/goliatone/go-formwizard/pkg/dom"
)

// sourceFlags selects the document a command works on.
type sourceFlags struct {
	html      string
	spec      string
	operation string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.html, "html", "", "HTML file holding the form")
	cmd.Flags().StringVar(&s.spec, "openapi", "", "OpenAPI document to build the form from")
	cmd.Flags().StringVarP(&s.operation, "operation", "o", "", "Operation ID used with --openapi")
}

func (s *sourceFlags) document(ctx context.Context) (*dom.Document, error) {
	switch {
	case s.html != "" && s.spec != "":
		return nil, errors.New("use either --html or --openapi, not both")
	case s.html != "":
		file, err := os.Open(s.html)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return dom.Parse(file)
	case s.spec != "":
		if s.operation == "" {
			return nil, errors.New("--operation is required with --openapi")
		}
		raw, err := openapi.LoadFile(ctx, s.spec)
		if err != nil {
			return nil, fmt.Errorf("read openapi document: %w", err)
		}
		return openapi.FormFromOperation(ctx, raw, s.operation)
	default:
		return nil, errors.New("one of --html or --openapi is required")
	}
}

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(overrides func(*formwizard.Config)) (formwizard.Config, error) {
	cfg, err := formwizard.LoadConfig(rootFlags.config)
	if err != nil {
		return formwizard.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if overrides != nil {
		overrides(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return formwizard.Config{}, err
	}
	return cfg, nil
}
