package wizard

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// Default step presentation classes.
const (
	DefaultActiveClass   = "is-active"
	DefaultInactiveClass = "is-inactive"
	DefaultValidClass    = "is-valid"
)

// Check is a pending validity check. A nil error lets the transition go on.
// It runs on its own goroutine while earlier steps are validated, so it must
// not touch the document.
type Check func(ctx context.Context) error

// StepController is one page of a wizard. Custom steps usually embed *Step
// and override IsValid.
type StepController interface {
	Element() *html.Node
	Index() int
	Group() string
	// Setup assigns the position and options before Init.
	Setup(index int, opts StepOptions)
	// Init wires the triggers, tags the step's inputs with its group and
	// hides the step.
	Init() error
	Show()
	Hide()
	// AfterStepChange runs on every step after each committed transition.
	AfterStepChange(newIndex int)
	// IsValid returns an extra check run while leaving the step, or nil.
	IsValid() Check
	// Destroy removes the listeners added by Init.
	Destroy()
}

// StepOptions is what a wizard hands to each of its steps.
type StepOptions struct {
	Listeners  *dom.Listeners
	Namespace  string
	Inputs     string
	OnContinue dom.Handler
	OnBack     dom.Handler
	Continue   Trigger
	Back       Trigger

	ActiveClass   string
	InactiveClass string
	ValidClass    string
}

// Step is the default StepController.
type Step struct {
	element *html.Node
	index   int
	group   string
	opts    StepOptions

	continueElement *html.Node
	backElement     *html.Node
	removers        []func()
}

var _ StepController = (*Step)(nil)

// NewStep wraps a step element.
func NewStep(element *html.Node) *Step {
	return &Step{element: element}
}

// Element implements StepController.
func (s *Step) Element() *html.Node { return s.element }

// Index implements StepController.
func (s *Step) Index() int { return s.index }

// Group implements StepController.
func (s *Step) Group() string { return s.group }

// ContinueElement is the resolved continue control, if any.
func (s *Step) ContinueElement() *html.Node { return s.continueElement }

// BackElement is the resolved back control, if any.
func (s *Step) BackElement() *html.Node { return s.backElement }

// Setup implements StepController.
func (s *Step) Setup(index int, opts StepOptions) {
	s.index = index
	s.group = "group-" + strconv.Itoa(index)
	if opts.Namespace == "" {
		opts.Namespace = validation.DefaultNamespace
	}
	if opts.Inputs == "" {
		opts.Inputs = validation.DefaultInputs
	}
	if opts.ActiveClass == "" {
		opts.ActiveClass = DefaultActiveClass
	}
	if opts.InactiveClass == "" {
		opts.InactiveClass = DefaultInactiveClass
	}
	if opts.ValidClass == "" {
		opts.ValidClass = DefaultValidClass
	}
	s.opts = opts
}

// Init implements StepController.
func (s *Step) Init() error {
	s.continueElement = s.opts.Continue.Resolve(s.element)
	s.backElement = s.opts.Back.Resolve(s.element)

	if s.continueElement != nil && s.opts.OnContinue != nil {
		s.removers = append(s.removers, s.opts.Listeners.Add(s.continueElement, dom.EventClick, s.opts.OnContinue))
	}
	if s.backElement != nil && s.opts.OnBack != nil {
		s.removers = append(s.removers, s.opts.Listeners.Add(s.backElement, dom.EventClick, s.opts.OnBack))
	}

	inputs, err := dom.QueryAll(s.element, s.opts.Inputs)
	if err != nil {
		return fmt.Errorf("wizard: step %d: %w", s.index, err)
	}
	for _, input := range inputs {
		dom.SetAttr(input, s.opts.Namespace+validation.GroupAttribute, s.group)
	}

	s.Hide()
	return nil
}

// Show implements StepController.
func (s *Step) Show() {
	dom.AddClass(s.element, s.opts.ActiveClass)
	dom.RemoveClass(s.element, s.opts.InactiveClass)
}

// Hide implements StepController.
func (s *Step) Hide() {
	dom.RemoveClass(s.element, s.opts.ActiveClass)
	dom.AddClass(s.element, s.opts.InactiveClass)
}

// Active reports whether the step is shown.
func (s *Step) Active() bool {
	return dom.HasClass(s.element, s.opts.ActiveClass)
}

// AfterStepChange implements StepController. Steps before the new index are
// marked completed.
func (s *Step) AfterStepChange(newIndex int) {
	dom.ToggleClass(s.element, s.opts.ValidClass, s.index < newIndex)
}

// IsValid implements StepController. The default step adds no constraint.
func (s *Step) IsValid() Check {
	return nil
}

// Destroy implements StepController.
func (s *Step) Destroy() {
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
}
