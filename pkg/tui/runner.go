package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/events"
	"github.com/goliatone/go-formwizard/pkg/form"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type action int

const (
	actionContinue action = iota
	actionBack
	actionSubmit
	actionAbort
)

func (a action) String() string {
	switch a {
	case actionContinue:
		return "Continue"
	case actionBack:
		return "Back"
	case actionSubmit:
		return "Submit"
	default:
		return "Abort"
	}
}

// Runner drives a form, and optionally its wizard, from a terminal. Every
// round prompts the controls of the visible step, writes the answers into the
// document and then delivers the chosen action as a DOM event.
type Runner struct {
	form   *form.Form
	wizard *wizard.Wizard
	driver PromptDriver
	theme  Theme
	out    io.Writer
	logger *log.Logger
}

// NewRunner binds a runner to f. w may be nil for single page forms.
func NewRunner(f *form.Form, w *wizard.Wizard, opts ...Option) (*Runner, error) {
	if f == nil {
		return nil, ErrNoForm
	}
	r := &Runner{
		form:   f,
		wizard: w,
		theme:  DefaultTheme,
		out:    os.Stdout,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	return r, nil
}

// Run loops until a submission succeeds, the user aborts (ErrAborted) or ctx
// is done.
func (r *Runner) Run(ctx context.Context) error {
	var completed *events.SubmissionCompleted
	unsubscribe := r.form.Events().Submitted.Subscribe(func(ev events.SubmissionCompleted) {
		completed = &ev
	})
	defer unsubscribe()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		scope, title := r.scope()
		if title != "" {
			if err := r.info(ctx, r.theme.StepPrefix, title); err != nil {
				return err
			}
		}
		if err := r.promptFields(ctx, scope); err != nil {
			return err
		}

		act, err := r.chooseAction(ctx)
		if err != nil {
			return err
		}
		completed = nil
		if err := r.dispatch(ctx, act); err != nil {
			return err
		}

		if completed != nil && completed.Succeeded() {
			r.logger.Printf("submitted status=%d", completed.StatusCode)
			return r.info(ctx, r.theme.InfoPrefix, "Submitted.")
		}
		if err := r.report(ctx, completed); err != nil {
			return err
		}
	}
}

// scope is the subtree prompted in the current round.
func (r *Runner) scope() (*html.Node, string) {
	if r.wizard == nil {
		return r.form.Element(), ""
	}
	current := r.wizard.Current()
	steps := r.wizard.Steps()
	if current < 0 || current >= len(steps) {
		return r.form.Element(), ""
	}
	return steps[current].Element(), fmt.Sprintf("Step %d of %d", current+1, len(steps))
}

func (r *Runner) promptFields(ctx context.Context, scope *html.Node) error {
	for _, field := range r.form.Engine().Fields() {
		if !dom.Contains(scope, field.Element()) {
			continue
		}
		if err := r.promptField(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) promptField(ctx context.Context, field *validation.Field) error {
	el := field.Element()
	message := r.label(el)
	help := strings.Join(field.Messages(), "; ")

	switch {
	case dom.Tag(el) == "select":
		return r.promptSelect(ctx, el, message, help)
	case dom.InputType(el) == "radio":
		return r.promptRadios(ctx, field.Elements(), message, help)
	case dom.InputType(el) == "checkbox":
		return r.promptCheckboxes(ctx, field.Elements(), message, help)
	}

	validate := r.validator(ctx, field)
	switch {
	case dom.Tag(el) == "textarea":
		value, err := r.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: field.Value(), Help: help, Validate: validate})
		if err != nil {
			return err
		}
		dom.SetValue(el, value)
	case dom.InputType(el) == "password":
		value, err := r.driver.Password(ctx, InputConfig{Message: message, Default: field.Value(), Help: help, Validate: validate})
		if err != nil {
			return err
		}
		dom.SetValue(el, value)
	default:
		value, err := r.driver.Input(ctx, InputConfig{Message: message, Default: field.Value(), Help: help, Validate: validate})
		if err != nil {
			return err
		}
		dom.SetValue(el, value)
	}
	return nil
}

// validator checks a typed answer against the field's rules. The element
// keeps its previous value; the caller stores the accepted answer.
func (r *Runner) validator(ctx context.Context, field *validation.Field) Validator {
	engine := r.form.Engine()
	return func(value string) error {
		el := field.Element()
		previous := field.Value()
		dom.SetValue(el, value)
		results, err := engine.Check(ctx, field)
		dom.SetValue(el, previous)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		messages := make([]string, 0, len(results))
		for _, res := range results {
			messages = append(messages, res.Message)
		}
		return errors.New(strings.Join(messages, "; "))
	}
}

func (r *Runner) promptSelect(ctx context.Context, el *html.Node, message, help string) error {
	options := dom.SelectOptions(el)
	if len(options) == 0 {
		return nil
	}
	labels := make([]string, len(options))
	var selected []int
	for i, opt := range options {
		labels[i] = opt.Label
		if opt.Selected {
			selected = append(selected, i)
		}
	}

	if dom.IsMultiSelect(el) {
		picked, err := r.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: labels, Defaults: selected, Help: help})
		if err != nil {
			return err
		}
		values := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(options) {
				values = append(values, options[idx].Value)
			}
		}
		dom.SetSelected(el, values...)
		return nil
	}

	def := 0
	if len(selected) > 0 {
		def = selected[0]
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: def, Help: help})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(options) {
		dom.SetSelected(el, options[idx].Value)
	}
	return nil
}

func (r *Runner) promptRadios(ctx context.Context, members []*html.Node, message, help string) error {
	labels := make([]string, len(members))
	def := -1
	for i, member := range members {
		labels[i] = r.optionLabel(member)
		if dom.IsChecked(member) && def < 0 {
			def = i
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: def, Help: help})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(members) {
		return nil
	}
	for i, member := range members {
		dom.SetChecked(member, i == idx)
	}
	return nil
}

func (r *Runner) promptCheckboxes(ctx context.Context, members []*html.Node, message, help string) error {
	if len(members) == 1 {
		checked, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: dom.IsChecked(members[0]), Help: help})
		if err != nil {
			return err
		}
		dom.SetChecked(members[0], checked)
		return nil
	}

	labels := make([]string, len(members))
	var defaults []int
	for i, member := range members {
		labels[i] = r.optionLabel(member)
		if dom.IsChecked(member) {
			defaults = append(defaults, i)
		}
	}
	picked, err := r.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: labels, Defaults: defaults, Help: help})
	if err != nil {
		return err
	}
	on := make(map[int]bool, len(picked))
	for _, idx := range picked {
		on[idx] = true
	}
	for i, member := range members {
		dom.SetChecked(member, on[i])
	}
	return nil
}

// label prefers an associated <label>, then aria-label, placeholder and name.
func (r *Runner) label(el *html.Node) string {
	if text := r.labelFor(el); text != "" {
		return text
	}
	for _, key := range []string{"aria-label", "placeholder", "name"} {
		if value := strings.TrimSpace(dom.AttrOr(el, key, "")); value != "" {
			return value
		}
	}
	return dom.Tag(el)
}

func (r *Runner) optionLabel(el *html.Node) string {
	if text := r.labelFor(el); text != "" {
		return text
	}
	return dom.AttrOr(el, "value", "on")
}

func (r *Runner) labelFor(el *html.Node) string {
	if wrapper := dom.Closest(el, "label"); wrapper != nil {
		if text := strings.TrimSpace(dom.Text(wrapper)); text != "" {
			return text
		}
	}
	id := dom.AttrOr(el, "id", "")
	if id == "" {
		return ""
	}
	node, err := r.form.Document().Query(fmt.Sprintf("label[for=%q]", id))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(dom.Text(node))
}

func (r *Runner) actions() []action {
	var out []action
	if r.wizard != nil && r.wizard.Current() >= 0 {
		last := r.wizard.OnLastStep()
		if !last {
			out = append(out, actionContinue)
		}
		if r.wizard.Current() > 0 {
			out = append(out, actionBack)
		}
		if last {
			out = append(out, actionSubmit)
		}
	} else {
		out = append(out, actionSubmit)
	}
	return append(out, actionAbort)
}

func (r *Runner) chooseAction(ctx context.Context) (action, error) {
	actions := r.actions()
	labels := make([]string, len(actions))
	for i, act := range actions {
		labels[i] = act.String()
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Next", Options: labels})
	if err != nil {
		return actionAbort, err
	}
	if idx < 0 || idx >= len(actions) {
		return actionAbort, fmt.Errorf("tui: action index %d out of range", idx)
	}
	return actions[idx], nil
}

// dispatch delivers act through the document so listeners see the same
// events a browser would send.
func (r *Runner) dispatch(ctx context.Context, act action) error {
	doc := r.form.Document()
	switch act {
	case actionAbort:
		return ErrAborted
	case actionContinue:
		if trigger := r.trigger(act); trigger != nil {
			doc.Click(ctx, trigger)
			return nil
		}
		// A submit on an earlier step becomes a Continue.
		doc.Submit(ctx, r.form.Element())
	case actionBack:
		if trigger := r.trigger(act); trigger != nil {
			doc.Click(ctx, trigger)
			return nil
		}
		if err := r.wizard.Back(ctx); err != nil {
			r.logger.Printf("back: %v", err)
		}
	case actionSubmit:
		if !r.form.HandleSubmit(ctx) {
			return nil
		}
		// The native submission was let through, which a terminal host
		// carries out with the form's own pipeline.
		if err := r.form.Submit(ctx); err != nil && !errors.Is(err, form.ErrServerValidation) {
			r.logger.Printf("submit: %v", err)
		}
	}
	return nil
}

type stepTriggers interface {
	ContinueElement() *html.Node
	BackElement() *html.Node
}

func (r *Runner) trigger(act action) *html.Node {
	if r.wizard == nil {
		return nil
	}
	current := r.wizard.Current()
	steps := r.wizard.Steps()
	if current < 0 || current >= len(steps) {
		return nil
	}
	step, ok := steps[current].(stepTriggers)
	if !ok {
		return nil
	}
	if act == actionBack {
		return step.BackElement()
	}
	return step.ContinueElement()
}

// report prints every failing field, the summary and the transport failure
// of the last submission, if any.
func (r *Runner) report(ctx context.Context, completed *events.SubmissionCompleted) error {
	for _, field := range r.form.Engine().Fields() {
		if field.Valid() {
			continue
		}
		line := fmt.Sprintf("%s: %s", r.label(field.Element()), strings.Join(field.Messages(), "; "))
		if err := r.info(ctx, r.theme.ErrorPrefix, line); err != nil {
			return err
		}
	}
	if summary := r.form.Summary(); summary != "" {
		if err := r.info(ctx, r.theme.ErrorPrefix, summary); err != nil {
			return err
		}
	}
	if completed != nil && completed.Err != nil && len(completed.Errors) == 0 {
		return r.info(ctx, r.theme.ErrorPrefix, completed.Err.Error())
	}
	return nil
}

func (r *Runner) info(ctx context.Context, prefix, msg string) error {
	if prefix != "" {
		msg = prefix + " " + msg
	}
	return r.driver.Info(ctx, msg)
}
