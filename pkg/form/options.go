package form

import (
	"context"
	"io"
	"log"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/transport"
)

// DefaultCustomNameAttribute names grouped controls that have no name
// attribute of their own, so server errors can still target them.
const DefaultCustomNameAttribute = "data-form-control-custom"

// BeforeSubmitFunc prepares a submission. The returned value is handed to the
// OnBeforeSubmit hook and the Sender. An error aborts the submission and is
// reported to OnError.
type BeforeSubmitFunc func(ctx context.Context, f *Form) (any, error)

// Sender replaces the default request building and transport call.
type Sender func(ctx context.Context, f *Form, preRequest any) (*transport.Response, error)

// ErrorExtractor pulls the field-name keyed error map out of a response. The
// response is nil when a transport failure carried none.
type ErrorExtractor func(resp *transport.Response) map[string]string

// SummaryTemplate formats the messages that could not be attributed to a
// field. The result is sanitised before it is written into the summary.
type SummaryTemplate func(messages []string) string

// FileOpener supplies the content of a file input for multipart bodies.
type FileOpener func(fieldName, value string) (io.ReadCloser, error)

// Hooks are the lifecycle callbacks of the submission pipeline. Every hook is
// optional.
type Hooks struct {
	// OnBeforeSubmit runs right before the request is sent.
	OnBeforeSubmit func(preRequest any)
	// OnAfterSubmit runs when a response or transport failure arrives.
	OnAfterSubmit func()
	// OnSuccess runs when the transport succeeded and no validation errors
	// were extracted.
	OnSuccess func(resp *transport.Response)
	// OnFailure runs on transport failure. resp is nil when none was received.
	OnFailure func(resp *transport.Response)
	// OnError runs when the pipeline itself failed.
	OnError func(err error)
}

type options struct {
	async           bool
	submitElement   *html.Node
	summaryElement  *html.Node
	client          transport.Client
	sender          Sender
	extractor       ErrorExtractor
	summaryTemplate SummaryTemplate
	beforeSubmit    BeforeSubmitFunc
	hooks           Hooks
	customNameAttr  string
	hidden          []HiddenField
	fileOpener      FileOpener
	strictNames     bool
	logger          *log.Logger
}

func defaultOptions() options {
	return options{
		async:          true,
		customNameAttr: DefaultCustomNameAttribute,
		logger:         log.New(io.Discard, "", 0),
	}
}

// Option customises a Form.
type Option func(*options)

// WithAsync toggles asynchronous submission. When off, native submits pass
// through untouched once the form validates.
func WithAsync(enabled bool) Option {
	return func(o *options) {
		o.async = enabled
	}
}

// WithSubmitElement designates the control disabled while a request is in
// flight.
func WithSubmitElement(node *html.Node) Option {
	return func(o *options) {
		o.submitElement = node
	}
}

// WithErrorsSummaryElement designates the container for errors that match
// no field.
func WithErrorsSummaryElement(node *html.Node) Option {
	return func(o *options) {
		o.summaryElement = node
	}
}

// WithClient sets the transport used by the default sender.
func WithClient(client transport.Client) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

// WithSender replaces request building and sending entirely.
func WithSender(sender Sender) Option {
	return func(o *options) {
		o.sender = sender
	}
}

// WithErrorExtractor replaces the default `errors` payload extraction.
func WithErrorExtractor(fn ErrorExtractor) Option {
	return func(o *options) {
		o.extractor = fn
	}
}

// WithSummaryTemplate replaces the default summary text.
func WithSummaryTemplate(fn SummaryTemplate) Option {
	return func(o *options) {
		o.summaryTemplate = fn
	}
}

// WithBeforeSubmit installs the preparation step run before each request.
func WithBeforeSubmit(fn BeforeSubmitFunc) Option {
	return func(o *options) {
		o.beforeSubmit = fn
	}
}

// WithHooks installs the lifecycle callbacks.
func WithHooks(hooks Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithCustomNameAttribute overrides the fallback attribute used to name
// controls without a name.
func WithCustomNameAttribute(attr string) Option {
	return func(o *options) {
		if attr != "" {
			o.customNameAttr = attr
		}
	}
}

// WithHiddenFields appends hidden values (CSRF tokens, versions) to every
// request body.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(o *options) {
		o.hidden = append(o.hidden, fields...)
	}
}

// WithFileOpener supplies file contents for multipart submissions. Without
// it, file inputs are left out of the body.
func WithFileOpener(fn FileOpener) Option {
	return func(o *options) {
		o.fileOpener = fn
	}
}

// WithStrictFieldNames makes server errors for unknown field names a
// contract violation instead of summary entries.
func WithStrictFieldNames() Option {
	return func(o *options) {
		o.strictNames = true
	}
}

// WithLogger sets the logger used for pipeline tracing.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
