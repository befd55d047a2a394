package form

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/events"
	"github.com/goliatone/go-formwizard/pkg/transport"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// DefaultSummaryTemplate renders unattributed server messages as one
// sentence.
func DefaultSummaryTemplate(messages []string) string {
	return fmt.Sprintf("Please correct the following errors: %s.", strings.Join(messages, ", "))
}

// Form is the submission controller bound to one form element.
type Form struct {
	doc     *dom.Document
	element *html.Node
	engine  validation.Engine
	opts    options
	bus     *events.Bus
	policy  *bluemonday.Policy

	action  string
	enctype string

	submitting atomic.Bool

	mu        sync.Mutex
	teardown  []func()
	destroyed bool
}

// New binds a Form to element. A nil engine gets a validation.DOMEngine over
// the same element. The form registers its server rule on the engine and
// intercepts native submits dispatched through doc.
func New(doc *dom.Document, element *html.Node, engine validation.Engine, opts ...Option) (*Form, error) {
	if dom.Tag(element) != "form" {
		return nil, ErrNotAForm
	}
	if doc == nil {
		return nil, errors.New("form: document is nil")
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.client == nil {
		cfg.client = transport.NewHTTPClient(transport.WithLogger(cfg.logger))
	}
	if cfg.extractor == nil {
		cfg.extractor = DefaultErrorExtractor
	}
	if cfg.summaryTemplate == nil {
		cfg.summaryTemplate = DefaultSummaryTemplate
	}

	if engine == nil {
		var err error
		engine, err = validation.NewDOMEngine(element)
		if err != nil {
			return nil, fmt.Errorf("form: engine: %w", err)
		}
	}

	f := &Form{
		doc:     doc,
		element: element,
		engine:  engine,
		opts:    cfg,
		bus:     events.NewBus(),
		policy:  bluemonday.UGCPolicy(),
		action:  dom.AttrOr(element, "action", ""),
		enctype: resolveEnctype(dom.AttrOr(element, "enctype", "")),
	}

	f.teardown = append(f.teardown,
		engine.AddRule(NewServerRule()),
		engine.OnFieldError(f.onFieldError),
		engine.OnFormError(f.onFormError),
		doc.Listeners().Add(element, dom.EventSubmit, f.onNativeSubmit),
	)
	return f, nil
}

func resolveEnctype(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", EnctypeURLEncoded:
		return EnctypeURLEncoded
	case EnctypeJSON:
		return EnctypeJSON
	default:
		return EnctypeMultipart
	}
}

// Element returns the bound form element.
func (f *Form) Element() *html.Node { return f.element }

// Document returns the document the form lives in.
func (f *Form) Document() *dom.Document { return f.doc }

// Engine returns the validation engine the form reports into.
func (f *Form) Engine() validation.Engine { return f.engine }

// Events returns the bus the form publishes validation outcomes on.
func (f *Form) Events() *events.Bus { return f.bus }

// Action is the URL requests are sent to.
func (f *Form) Action() string { return f.action }

// Enctype is the resolved body encoding.
func (f *Form) Enctype() string { return f.enctype }

// Async reports whether native submits are intercepted.
func (f *Form) Async() bool { return f.opts.async }

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool { return f.submitting.Load() }

func (f *Form) onFieldError(field *validation.Field) {
	for _, element := range field.Elements() {
		dom.SetAttr(element, "aria-describedby", field.ErrorsID())
	}
	f.bus.FieldFailed.Publish(events.FieldValidationFailed{
		Element:          field.Element(),
		FailedValidators: field.FailedRules(),
	})
}

func (f *Form) onFormError(fields []*validation.Field) {
	elements := make([]*html.Node, 0, len(fields))
	for _, field := range fields {
		elements = append(elements, field.Element())
	}
	f.bus.FormFailed.Publish(events.FormValidationFailed{
		Form:           f.element,
		FailedElements: elements,
	})
}

// onNativeSubmit validates the whole form. An invalid form never leaves the
// page. A valid one is handed to the pipeline when async, or allowed through
// otherwise.
func (f *Form) onNativeSubmit(ctx context.Context, ev *dom.Event) {
	if ev.DefaultPrevented() {
		return
	}
	if err := f.engine.Validate(ctx); err != nil {
		ev.PreventDefault()
		f.opts.logger.Printf("native submit blocked: %v", err)
		return
	}
	if !f.opts.async {
		return
	}
	ev.PreventDefault()
	if err := f.Submit(ctx); err != nil {
		f.opts.logger.Printf("submit: %v", err)
	}
}

// HandleSubmit is the native submit entry point for hosts that do not
// dispatch through the document. It reports whether the host should go on
// with its default submission.
func (f *Form) HandleSubmit(ctx context.Context) bool {
	ev := f.doc.Submit(ctx, f.element)
	return !ev.DefaultPrevented()
}

// Submit runs the submission pipeline. A call made while another submission
// is in flight returns ErrSubmitInFlight and does nothing else.
//
// Submit returns nil only when the server accepted the submission without
// validation errors.
func (f *Form) Submit(ctx context.Context) error {
	if !f.submitting.CompareAndSwap(false, true) {
		f.opts.logger.Printf("submit dropped: already in flight")
		return ErrSubmitInFlight
	}

	preRequest, err := f.prepare(ctx)
	if err != nil {
		f.submitting.Store(false)
		err = fmt.Errorf("%w: %w", ErrBeforeSubmit, err)
		f.reportError(err)
		return err
	}

	f.beforeSend(preRequest)

	var req transport.Request
	if f.opts.sender == nil {
		req, err = f.BuildRequest()
		if err != nil {
			f.submitting.Store(false)
			f.reportError(err)
			return err
		}
	}

	resp, sendErr := f.send(ctx, preRequest, req)

	f.submitting.Store(false)
	f.afterSend()

	if sendErr != nil {
		return f.handleFailure(ctx, sendErr)
	}
	return f.handleSuccess(ctx, resp)
}

func (f *Form) prepare(ctx context.Context) (any, error) {
	if f.opts.beforeSubmit == nil {
		return nil, nil
	}
	return f.opts.beforeSubmit(ctx, f)
}

func (f *Form) beforeSend(preRequest any) {
	dom.SetDisabled(f.opts.submitElement, true)
	if f.opts.hooks.OnBeforeSubmit != nil {
		f.opts.hooks.OnBeforeSubmit(preRequest)
	}
}

func (f *Form) afterSend() {
	dom.SetDisabled(f.opts.submitElement, false)
	if f.opts.hooks.OnAfterSubmit != nil {
		f.opts.hooks.OnAfterSubmit()
	}
}

func (f *Form) send(ctx context.Context, preRequest any, req transport.Request) (*transport.Response, error) {
	if f.opts.sender != nil {
		return f.opts.sender(ctx, f, preRequest)
	}
	f.opts.logger.Printf("submit action=%s enctype=%s", req.URL, f.enctype)
	return f.opts.client.Send(ctx, req)
}

func (f *Form) extract(resp *transport.Response) map[string]string {
	errs := f.opts.extractor(resp)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (f *Form) handleSuccess(ctx context.Context, resp *transport.Response) error {
	errs := f.extract(resp)
	if err := f.RenderValidationErrors(ctx, errs); err != nil {
		f.reportError(err)
		f.publish(resp, errs, err)
		return err
	}
	f.publish(resp, errs, nil)

	if len(errs) > 0 {
		f.opts.logger.Printf("submission rejected fields=%d", len(errs))
		return fmt.Errorf("%w: %d error(s)", ErrServerValidation, len(errs))
	}
	if f.opts.hooks.OnSuccess != nil {
		f.opts.hooks.OnSuccess(resp)
	}
	return nil
}

func (f *Form) handleFailure(ctx context.Context, sendErr error) error {
	resp := transport.ResponseOf(sendErr)
	errs := f.extract(resp)

	renderErr := f.RenderValidationErrors(ctx, errs)
	if renderErr != nil {
		f.reportError(renderErr)
	}
	if f.opts.hooks.OnFailure != nil {
		f.opts.hooks.OnFailure(resp)
	}

	f.opts.logger.Printf("submission failed: %v", sendErr)
	err := fmt.Errorf("form: submit: %w", sendErr)
	if renderErr != nil {
		err = errors.Join(err, renderErr)
	}
	f.publish(resp, errs, err)
	return err
}

func (f *Form) reportError(err error) {
	f.opts.logger.Printf("submit error: %v", err)
	if f.opts.hooks.OnError != nil {
		f.opts.hooks.OnError(err)
	}
}

func (f *Form) publish(resp *transport.Response, errs map[string]string, err error) {
	event := events.SubmissionCompleted{
		Form:   f.element,
		Errors: errs,
		Err:    err,
	}
	if resp != nil {
		event.StatusCode = resp.StatusCode
	}
	f.bus.Submitted.Publish(event)
}

// RenderValidationErrors routes a server error map into the form. Keys that
// resolve to a field are applied through ApplyFieldErrors, form-level and
// unresolved keys are written into the summary element, which is cleared
// when there are none. With WithStrictFieldNames an unresolved key fails
// with *UnknownFieldError before anything is rendered.
func (f *Form) RenderValidationErrors(ctx context.Context, errs map[string]string) error {
	idx := f.indexFields()

	matched := make(map[string]string)
	var rest []string
	for _, key := range sortedKeys(errs) {
		message := errs[key]
		if isFormLevelKey(key) {
			rest = append(rest, message)
			continue
		}
		if _, ok := idx.lookup(key); ok {
			matched[key] = message
			continue
		}
		if f.opts.strictNames {
			return &UnknownFieldError{Name: key}
		}
		rest = append(rest, message)
	}

	if len(matched) > 0 {
		if err := f.applyFieldErrors(ctx, idx, matched); err != nil {
			return err
		}
	}
	return f.renderSummary(normalizeMessages(rest))
}

// ApplyFieldErrors flags every named field with its server message and
// re-validates the form so the messages render. Every key must name a field:
// an unknown key fails with *UnknownFieldError and nothing is applied.
func (f *Form) ApplyFieldErrors(ctx context.Context, errs map[string]string) error {
	return f.applyFieldErrors(ctx, f.indexFields(), errs)
}

func (f *Form) applyFieldErrors(ctx context.Context, idx fieldIndex, errs map[string]string) error {
	// Keys such as "email" and "data.email" can resolve to the same field.
	var fields []*validation.Field
	messages := make(map[*validation.Field][]string)
	for _, key := range sortedKeys(errs) {
		field, ok := idx.lookup(key)
		if !ok {
			return &UnknownFieldError{Name: key}
		}
		if _, seen := messages[field]; !seen {
			fields = append(fields, field)
		}
		messages[field] = append(messages[field], errs[key])
	}

	flag := f.engine.Namespace() + ServerRuleName
	for _, field := range fields {
		message := strings.Join(normalizeMessages(messages[field]), ", ")
		dom.SetAttr(field.Element(), flag, "true")
		field.UpdateOptions(func(o *validation.FieldOptions) {
			o.ServerMessage = message
			o.ValidateIfEmpty = true
		})
		ForgetRejection(field)
	}

	if err := f.engine.Validate(ctx); err != nil && !errors.Is(err, validation.ErrInvalid) {
		return fmt.Errorf("form: apply server errors: %w", err)
	}
	return nil
}

func (f *Form) renderSummary(messages []string) error {
	summary := f.opts.summaryElement
	if summary == nil {
		return nil
	}
	if len(messages) == 0 {
		dom.RemoveChildren(summary)
		return nil
	}
	markup := f.policy.Sanitize(f.opts.summaryTemplate(messages))
	if err := dom.SetInnerHTML(summary, markup); err != nil {
		return fmt.Errorf("form: render summary: %w", err)
	}
	return nil
}

// Summary returns the text currently shown in the summary element.
func (f *Form) Summary() string {
	return strings.TrimSpace(dom.Text(f.opts.summaryElement))
}

// Destroy detaches the form from its document and engine: listeners and
// observers are removed, the server rule is unregistered and rendered
// validation state is cleared. Further Submit calls still work but native
// submits are no longer intercepted.
func (f *Form) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return
	}
	f.destroyed = true
	for _, fn := range f.teardown {
		fn()
	}
	f.teardown = nil

	flag := f.engine.Namespace() + ServerRuleName
	for _, field := range f.engine.Fields() {
		for _, element := range field.Elements() {
			dom.RemoveAttr(element, flag)
			dom.RemoveAttr(element, "aria-describedby")
		}
		ForgetRejection(field)
	}
	f.engine.Reset()
	dom.RemoveChildren(f.opts.summaryElement)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
