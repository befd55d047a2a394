// Package formwizard mounts the form submission controller and the step
// wizard on a parsed document in one call.
package formwizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/internal/config"
	"github.com/goliatone/go-formwizard/internal/openapi"
	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/form"
	"github.com/goliatone/go-formwizard/pkg/transport"
	"github.com/goliatone/go-formwizard/pkg/tui"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Config aliases the loader-facing settings so callers need not import the
// internal package.
type Config = config.Config

// DefaultConfig returns the default mount settings.
func DefaultConfig() Config { return config.Default() }

// LoadConfig reads settings from a YAML file and the environment.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// Session is a mounted document.
type Session struct {
	Document *dom.Document
	Engine   *validation.DOMEngine
	Form     *form.Form
	// Wizard is nil when the form has no steps.
	Wizard *wizard.Wizard
}

type mountOptions struct {
	config     Config
	client     transport.Client
	logger     *log.Logger
	formOpts   []form.Option
	wizardOpts []wizard.Option
	engineOpts []validation.EngineOption
	withoutWiz bool
}

// Option customises Mount.
type Option func(*mountOptions)

// WithConfig replaces the default settings.
func WithConfig(cfg Config) Option {
	return func(o *mountOptions) {
		o.config = cfg
	}
}

// WithClient sends submissions through client instead of an HTTP client
// built from the settings.
func WithClient(client transport.Client) Option {
	return func(o *mountOptions) {
		if client != nil {
			o.client = client
		}
	}
}

// WithLogger traces every mounted component to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *mountOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFormOptions appends options applied after the ones derived from the
// settings.
func WithFormOptions(opts ...form.Option) Option {
	return func(o *mountOptions) {
		o.formOpts = append(o.formOpts, opts...)
	}
}

// WithWizardOptions appends options applied after the ones derived from the
// settings.
func WithWizardOptions(opts ...wizard.Option) Option {
	return func(o *mountOptions) {
		o.wizardOpts = append(o.wizardOpts, opts...)
	}
}

// WithEngineOptions appends validation engine options.
func WithEngineOptions(opts ...validation.EngineOption) Option {
	return func(o *mountOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// WithoutWizard mounts the form alone even when it has steps.
func WithoutWizard() Option {
	return func(o *mountOptions) {
		o.withoutWiz = true
	}
}

// Mount binds a validation engine, a form and, when the form holds steps, a
// wizard to doc.
func Mount(doc *dom.Document, opts ...Option) (*Session, error) {
	if doc == nil {
		return nil, errors.New("formwizard: document is nil")
	}
	o := mountOptions{
		config: config.Default(),
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	formNode, err := doc.Query(cfg.FormSelector)
	if err != nil {
		return nil, fmt.Errorf("formwizard: form %q: %w", cfg.FormSelector, err)
	}
	if cfg.Action != "" {
		dom.SetAttr(formNode, "action", cfg.Action)
	}

	engineOpts := []validation.EngineOption{validation.WithVisibleOnly(cfg.VisibleOnly)}
	if cfg.Namespace != "" {
		engineOpts = append(engineOpts, validation.WithNamespace(cfg.Namespace))
	}
	engine, err := validation.NewDOMEngine(formNode, append(engineOpts, o.engineOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("formwizard: engine: %w", err)
	}

	f, err := form.New(doc, formNode, engine, append(formOptions(cfg, o, formNode), o.formOpts...)...)
	if err != nil {
		return nil, err
	}
	session := &Session{Document: doc, Engine: engine, Form: f}

	if o.withoutWiz || !hasMatch(formNode, cfg.StepSelector) {
		return session, nil
	}
	w, err := wizard.New(formNode, f, append(wizardOptions(cfg, o), o.wizardOpts...)...)
	if err != nil {
		f.Destroy()
		return nil, err
	}
	session.Wizard = w
	return session, nil
}

// MountOperation builds the form for operationID of the OpenAPI document raw
// and mounts it.
func MountOperation(ctx context.Context, raw []byte, operationID string, opts ...Option) (*Session, error) {
	doc, err := openapi.FormFromOperation(ctx, raw, operationID)
	if err != nil {
		return nil, err
	}
	return Mount(doc, opts...)
}

func formOptions(cfg Config, o mountOptions, formNode *html.Node) []form.Option {
	client := o.client
	if client == nil {
		httpOpts := []transport.Option{
			transport.WithTimeout(cfg.Timeout),
			transport.WithBaseURL(cfg.BaseURL),
			transport.WithLogger(o.logger),
		}
		for key, value := range cfg.Headers {
			httpOpts = append(httpOpts, transport.WithHeader(key, value))
		}
		client = transport.NewHTTPClient(httpOpts...)
	}

	out := []form.Option{
		form.WithClient(client),
		form.WithAsync(cfg.Async),
		form.WithLogger(o.logger),
		form.WithHiddenFields(form.HiddenFieldsFromMap(cfg.HiddenFields)...),
	}
	if node := firstMatch(formNode, cfg.SummarySelector); node != nil {
		out = append(out, form.WithErrorsSummaryElement(node))
	}
	if node := firstMatch(formNode, cfg.SubmitSelector); node != nil {
		out = append(out, form.WithSubmitElement(node))
	}
	if cfg.StrictFieldNames {
		out = append(out, form.WithStrictFieldNames())
	}
	return out
}

func wizardOptions(cfg Config, o mountOptions) []wizard.Option {
	out := []wizard.Option{
		wizard.WithStepsElements(wizard.SelectSteps(cfg.StepSelector)),
		wizard.WithContinueElement(wizard.BySelector(cfg.ContinueSelector)),
		wizard.WithBackElement(wizard.BySelector(cfg.BackSelector)),
		wizard.WithLogger(o.logger),
	}
	if cfg.UngatedBack {
		out = append(out, wizard.WithUngatedBack())
	}
	return out
}

func firstMatch(root *html.Node, selector string) *html.Node {
	if selector == "" {
		return nil
	}
	node, err := dom.Query(root, selector)
	if err != nil {
		return nil
	}
	return node
}

func hasMatch(root *html.Node, selector string) bool {
	return firstMatch(root, selector) != nil
}

// Runner returns a terminal runner for the session.
func (s *Session) Runner(opts ...tui.Option) (*tui.Runner, error) {
	return tui.NewRunner(s.Form, s.Wizard, opts...)
}

// Destroy detaches the wizard and the form.
func (s *Session) Destroy() {
	if s.Wizard != nil {
		s.Wizard.Destroy()
	}
	s.Form.Destroy()
}
