package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/events"
	"github.com/goliatone/go-formwizard/pkg/form"
)

var (
	// ErrTransitionInFlight is returned when a transition is requested while
	// another one is still being gated. The request has no effect.
	ErrTransitionInFlight = errors.New("wizard: transition already in flight")
	// ErrStepOutOfRange is returned for a target index with no step.
	ErrStepOutOfRange = errors.New("wizard: step index out of range")
	// ErrGateRejected wraps the failures that kept a transition from
	// committing.
	ErrGateRejected = errors.New("wizard: transition rejected")
)

// Wizard splits a form into steps and gates moves between them on the
// validity of every earlier step.
type Wizard struct {
	element *html.Node
	form    *form.Form
	opts    options

	mu      sync.Mutex
	steps   []StepController
	current int

	inFlight atomic.Bool
	teardown []func()
}

// New builds the steps found under element (the form itself when element is
// nil), initialises them and shows the first one without gating.
func New(element *html.Node, f *form.Form, opts ...Option) (*Wizard, error) {
	if f == nil {
		return nil, errors.New("wizard: form is nil")
	}
	if element == nil {
		element = f.Element()
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	w := &Wizard{
		element: element,
		form:    f,
		opts:    cfg,
		current: -1,
	}

	listeners := f.Document().Listeners()
	w.teardown = append(w.teardown,
		listeners.AddCapture(f.Element(), dom.EventSubmit, w.onSubmit),
		f.Events().FormFailed.Subscribe(w.onFormFailed),
	)

	steps, err := w.buildSteps(listeners)
	if err != nil {
		w.Destroy()
		return nil, err
	}
	w.steps = steps
	if len(steps) > 0 {
		w.setStep(0)
	}
	return w, nil
}

func (w *Wizard) buildSteps(listeners *dom.Listeners) ([]StepController, error) {
	engine := w.form.Engine()
	stepOpts := StepOptions{
		Listeners:     listeners,
		Namespace:     engine.Namespace(),
		Inputs:        engine.Inputs(),
		OnContinue:    w.onContinue,
		OnBack:        w.onBack,
		Continue:      w.opts.continueTrigger,
		Back:          w.opts.backTrigger,
		ActiveClass:   w.opts.activeClass,
		InactiveClass: w.opts.inactiveClass,
		ValidClass:    w.opts.validClass,
	}

	elements := w.opts.stepsElements(w.element)
	steps := make([]StepController, 0, len(elements))
	for index, element := range elements {
		step := w.opts.createStep(element)
		if step == nil {
			return nil, fmt.Errorf("wizard: step factory returned nil for step %d", index)
		}
		step.Setup(index, stepOpts)
		if err := step.Init(); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Current returns the index of the active step, or -1 before the first step
// is shown.
func (w *Wizard) Current() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Steps returns the steps in order.
func (w *Wizard) Steps() []StepController {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]StepController(nil), w.steps...)
}

// Form returns the form the wizard drives.
func (w *Wizard) Form() *form.Form { return w.form }

// OnLastStep reports whether the active step is the last one.
func (w *Wizard) OnLastStep() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current >= 0 && w.current == len(w.steps)-1
}

// Continue moves to the next step once every step up to the current one
// validates. Failing fields are highlighted.
func (w *Wizard) Continue(ctx context.Context) error {
	return w.goTo(ctx, w.Current()+1, true)
}

// Back moves to the previous step. It runs the same gate as Continue unless
// the wizard was built WithUngatedBack.
func (w *Wizard) Back(ctx context.Context) error {
	target := w.Current() - 1
	if w.opts.ungatedBack {
		return w.jump(target)
	}
	return w.goTo(ctx, target, true)
}

// Navigate jumps to index once every earlier step validates. Nothing is
// highlighted on failure.
func (w *Wizard) Navigate(ctx context.Context, index int) error {
	return w.goTo(ctx, index, false)
}

func (w *Wizard) inRange(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current < 0 || index < 0 || index >= len(w.steps) {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, index)
	}
	return nil
}

func (w *Wizard) goTo(ctx context.Context, target int, highlight bool) error {
	if err := w.inRange(target); err != nil {
		return err
	}
	if !w.inFlight.CompareAndSwap(false, true) {
		w.opts.logger.Printf("transition to %d dropped: in flight", target)
		return ErrTransitionInFlight
	}
	defer w.inFlight.Store(false)

	if w.opts.onStart != nil {
		w.opts.onStart()
	}
	err := w.gate(ctx, target, highlight)
	if err == nil {
		w.setStep(target)
	} else {
		w.opts.logger.Printf("transition to %d rejected: %v", target, err)
	}
	if w.opts.onEnd != nil {
		w.opts.onEnd()
	}
	return err
}

func (w *Wizard) jump(target int) error {
	if err := w.inRange(target); err != nil {
		return err
	}
	if !w.inFlight.CompareAndSwap(false, true) {
		return ErrTransitionInFlight
	}
	defer w.inFlight.Store(false)

	if w.opts.onStart != nil {
		w.opts.onStart()
	}
	w.setStep(target)
	if w.opts.onEnd != nil {
		w.opts.onEnd()
	}
	return nil
}

// gate validates the groups of every step before target together with the
// active step's own check, as one combined wait. Group passes share the
// document, so they run one after another on the calling goroutine while the
// step check is pending. Every group is validated even after a failure so
// that all of them render.
func (w *Wizard) gate(ctx context.Context, target int, highlight bool) error {
	engine := w.form.Engine()

	w.mu.Lock()
	var groups []string
	for _, step := range w.steps {
		if step.Index() < target {
			groups = append(groups, step.Group())
		}
	}
	var check Check
	if w.current >= 0 {
		check = w.steps[w.current].IsValid()
	}
	w.mu.Unlock()

	var g errgroup.Group
	if check != nil {
		g.Go(func() error { return check(ctx) })
	}

	var failures []error
	for _, group := range groups {
		var err error
		if highlight {
			err = engine.WhenValidate(ctx, group)
		} else {
			err = engine.WhenValid(ctx, group)
		}
		if err != nil {
			failures = append(failures, err)
		}
	}
	if err := g.Wait(); err != nil {
		failures = append(failures, err)
	}
	if err := errors.Join(failures...); err != nil {
		return fmt.Errorf("%w: %w", ErrGateRejected, err)
	}
	return nil
}

// setStep commits a step change. It reads the active index under the lock,
// so it is safe after any wait.
func (w *Wizard) setStep(target int) {
	w.mu.Lock()
	if target < 0 || target >= len(w.steps) || target == w.current {
		w.mu.Unlock()
		return
	}
	if w.current >= 0 {
		w.steps[w.current].Hide()
	}
	w.steps[target].Show()
	w.current = target
	for _, step := range w.steps {
		step.AfterStepChange(target)
	}
	w.mu.Unlock()

	w.opts.logger.Printf("step=%d", target)
	if w.opts.afterShown != nil {
		w.opts.afterShown(target)
	}
}

func (w *Wizard) onContinue(ctx context.Context, _ *dom.Event) {
	if err := w.Continue(ctx); err != nil {
		w.opts.logger.Printf("continue: %v", err)
	}
}

func (w *Wizard) onBack(ctx context.Context, _ *dom.Event) {
	if err := w.Back(ctx); err != nil {
		w.opts.logger.Printf("back: %v", err)
	}
}

// onSubmit runs before the form's own submit handling. Only the last step
// may submit: anywhere else the submit becomes a Continue.
func (w *Wizard) onSubmit(ctx context.Context, ev *dom.Event) {
	w.mu.Lock()
	redirect := w.current >= 0 && w.current != len(w.steps)-1
	w.mu.Unlock()
	if !redirect {
		return
	}
	ev.PreventDefault()
	ev.StopImmediatePropagation()
	if err := w.Continue(ctx); err != nil {
		w.opts.logger.Printf("submit redirected to continue: %v", err)
	}
}

// onFormFailed shows the step holding the first failed element. The jump
// is not gated. Failures reported while a gate is being evaluated belong to
// that gate and are left alone.
func (w *Wizard) onFormFailed(ev events.FormValidationFailed) {
	if len(ev.FailedElements) == 0 || w.inFlight.Load() {
		return
	}
	first := ev.FailedElements[0]

	w.mu.Lock()
	target := -1
	for i, step := range w.steps {
		if dom.Contains(step.Element(), first) {
			target = i
			break
		}
	}
	w.mu.Unlock()

	if target >= 0 {
		w.setStep(target)
	}
}

// Destroy detaches the wizard from the form and its steps.
func (w *Wizard) Destroy() {
	for _, fn := range w.teardown {
		fn()
	}
	w.teardown = nil
	w.mu.Lock()
	steps := w.steps
	w.mu.Unlock()
	for _, step := range steps {
		step.Destroy()
	}
}
