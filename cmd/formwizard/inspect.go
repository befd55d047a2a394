package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

var inspectFlags struct {
	source sourceFlags
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the steps, groups and fields of a form",
	RunE:  runInspect,
}

func init() {
	inspectFlags.source.register(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	doc, err := inspectFlags.source.document(cmd.Context())
	if err != nil {
		return err
	}
	session, err := formwizard.Mount(doc, formwizard.WithConfig(cfg), formwizard.WithLogger(logger()))
	if err != nil {
		return err
	}
	defer session.Destroy()
	return writeInspection(cmd.OutOrStdout(), session)
}

func writeInspection(w io.Writer, session *formwizard.Session) error {
	form := session.Form
	fmt.Fprintf(w, "form action=%q enctype=%q\n", form.Action(), form.Enctype())

	fields := session.Engine.Fields()
	if session.Wizard == nil {
		for _, field := range fields {
			writeField(w, "  ", field)
		}
		return nil
	}
	for _, step := range session.Wizard.Steps() {
		fmt.Fprintf(w, "step %d group=%s\n", step.Index(), step.Group())
		for _, field := range fields {
			if dom.Contains(step.Element(), field.Element()) {
				writeField(w, "  ", field)
			}
		}
	}
	return nil
}

func writeField(w io.Writer, indent string, field *validation.Field) {
	kind := dom.Tag(field.Element())
	if kind == "input" {
		kind = dom.InputType(field.Element())
	}
	var constraints []string
	for _, key := range []string{"required", "minlength", "maxlength", "pattern", "min", "max"} {
		if value, ok := dom.Attr(field.Element(), key); ok {
			if value == "" {
				constraints = append(constraints, key)
				continue
			}
			constraints = append(constraints, key+"="+value)
		}
	}
	fmt.Fprintf(w, "%s%s (%s) %s\n", indent, field.Name(), kind, strings.Join(constraints, " "))
}
