package wizard

import (
	"io"
	"log"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
)

// DefaultStepSelector enumerates step elements under the wizard root.
const DefaultStepSelector = "[data-step]"

// StepsElementsFunc enumerates the step elements of a wizard, in order.
type StepsElementsFunc func(root *html.Node) []*html.Node

// StepFactory builds the controller for one step element.
type StepFactory func(element *html.Node) StepController

type options struct {
	stepsElements   StepsElementsFunc
	createStep      StepFactory
	continueTrigger Trigger
	backTrigger     Trigger
	onStart         func()
	onEnd           func()
	afterShown      func(index int)
	ungatedBack     bool
	activeClass     string
	inactiveClass   string
	validClass      string
	logger          *log.Logger
}

func defaultOptions() options {
	return options{
		stepsElements: SelectSteps(DefaultStepSelector),
		createStep: func(element *html.Node) StepController {
			return NewStep(element)
		},
		logger: log.New(io.Discard, "", 0),
	}
}

// SelectSteps enumerates steps by selector.
func SelectSteps(selector string) StepsElementsFunc {
	return func(root *html.Node) []*html.Node {
		nodes, err := dom.QueryAll(root, selector)
		if err != nil {
			return nil
		}
		return nodes
	}
}

// Option customises a Wizard.
type Option func(*options)

// WithStepsElements replaces step enumeration.
func WithStepsElements(fn StepsElementsFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.stepsElements = fn
		}
	}
}

// WithStepFactory replaces the default Step constructor.
func WithStepFactory(fn StepFactory) Option {
	return func(o *options) {
		if fn != nil {
			o.createStep = fn
		}
	}
}

// WithContinueElement sets how each step finds its continue control.
func WithContinueElement(trigger Trigger) Option {
	return func(o *options) {
		o.continueTrigger = trigger
	}
}

// WithBackElement sets how each step finds its back control.
func WithBackElement(trigger Trigger) Option {
	return func(o *options) {
		o.backTrigger = trigger
	}
}

// WithOnTransitionStart runs fn before every gated transition.
func WithOnTransitionStart(fn func()) Option {
	return func(o *options) {
		o.onStart = fn
	}
}

// WithOnTransitionEnd runs fn after every gated transition, committed or
// not.
func WithOnTransitionEnd(fn func()) Option {
	return func(o *options) {
		o.onEnd = fn
	}
}

// WithAfterStepShown runs fn with the new index after each committed step
// change, the initial one included.
func WithAfterStepShown(fn func(index int)) Option {
	return func(o *options) {
		o.afterShown = fn
	}
}

// WithUngatedBack lets Back move without validating earlier steps. The
// transition hooks still bracket the move.
func WithUngatedBack() Option {
	return func(o *options) {
		o.ungatedBack = true
	}
}

// WithStepClasses overrides the step presentation classes. Empty values keep
// the defaults.
func WithStepClasses(active, inactive, valid string) Option {
	return func(o *options) {
		o.activeClass = active
		o.inactiveClass = inactive
		o.validClass = valid
	}
}

// WithLogger sets the logger used for transition tracing.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
