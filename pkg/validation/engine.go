package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/events"
)

const (
	// DefaultNamespace prefixes every attribute the engine reads or writes.
	DefaultNamespace = "data-fw-"
	// GroupAttribute (namespaced) tags a field with the group it belongs to.
	GroupAttribute = "group"
	// DefaultInputs selects the controls the engine binds as fields.
	DefaultInputs = "input, textarea, select"
	// DefaultErrorClass is applied to invalid fields.
	DefaultErrorClass = "is-invalid"
	// DefaultSuccessClass is applied to valid fields after a rendered pass.
	DefaultSuccessClass = "is-valid"
)

// ErrInvalid is matched by every validation failure returned by an Engine.
var ErrInvalid = errors.New("validation: invalid")

// InvalidError lists the fields that failed a validation pass.
type InvalidError struct {
	Group  string
	Fields []string
}

func (e *InvalidError) Error() string {
	scope := "form"
	if e.Group != "" {
		scope = fmt.Sprintf("group %q", e.Group)
	}
	return fmt.Sprintf("validation: %d invalid field(s) in %s: %s", len(e.Fields), scope, strings.Join(e.Fields, ", "))
}

// Is lets errors.Is match ErrInvalid.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Engine validates the fields of one form, whole or one group at a time.
type Engine interface {
	// Form returns the form element the engine is bound to.
	Form() *html.Node
	// Namespace is the attribute prefix used by the engine.
	Namespace() string
	// Inputs is the selector used to discover fields.
	Inputs() string
	// Fields returns the currently bound fields in document order.
	Fields() []*Field
	// Validate validates every field and renders the outcome.
	Validate(ctx context.Context) error
	// WhenValid validates the fields of group without rendering or events.
	WhenValid(ctx context.Context, group string) error
	// WhenValidate validates the fields of group and renders the outcome.
	WhenValidate(ctx context.Context, group string) error
	// Check runs the rules against one field without rendering or events.
	Check(ctx context.Context, field *Field) ([]Result, error)
	// AddRule registers a rule on this engine instance only.
	AddRule(rule Rule) func()
	// OnFieldError subscribes to per-field failures of rendered passes.
	OnFieldError(fn func(*Field)) func()
	// OnFormError subscribes to failed rendered passes.
	OnFormError(fn func([]*Field)) func()
	// Reset clears rendered state from every field.
	Reset()
}

// EngineOption customises a DOMEngine.
type EngineOption func(*DOMEngine)

// WithNamespace overrides the attribute prefix.
func WithNamespace(ns string) EngineOption {
	return func(e *DOMEngine) {
		if ns != "" {
			e.ns = ns
		}
	}
}

// WithInputs overrides the field discovery selector.
func WithInputs(selector string) EngineOption {
	return func(e *DOMEngine) {
		if selector != "" {
			e.inputs = selector
		}
	}
}

// WithExcluded replaces the exclusion predicate. Excluded elements are not
// bound as fields.
func WithExcluded(fn func(*html.Node) bool) EngineOption {
	return func(e *DOMEngine) {
		if fn != nil {
			e.excluded = fn
		}
	}
}

// WithVisibleOnly excludes controls inside an element carrying the hidden
// attribute.
func WithVisibleOnly(enabled bool) EngineOption {
	return func(e *DOMEngine) {
		e.visibleOnly = enabled
	}
}

// WithClasses overrides the classes applied by rendered passes.
func WithClasses(errorClass, successClass string) EngineOption {
	return func(e *DOMEngine) {
		e.errorClass = errorClass
		e.successClass = successClass
	}
}

// WithRules registers additional rules at construction.
func WithRules(rules ...Rule) EngineOption {
	return func(e *DOMEngine) {
		for _, rule := range rules {
			if rule != nil {
				e.rules = append(e.rules, ruleEntry{id: e.nextRuleID(), rule: rule})
			}
		}
	}
}

type ruleEntry struct {
	id   int
	rule Rule
}

// DOMEngine is the bundled Engine: it discovers fields in an HTML form and
// reads their constraints from attributes.
type DOMEngine struct {
	form         *html.Node
	ns           string
	inputs       string
	excluded     func(*html.Node) bool
	visibleOnly  bool
	errorClass   string
	successClass string

	mu      sync.Mutex
	ruleSeq int
	rules   []ruleEntry
	fields  map[*html.Node]*Field
	idSeq   int

	fieldFailed events.Topic[*Field]
	formFailed  events.Topic[[]*Field]
}

var _ Engine = (*DOMEngine)(nil)

// NewDOMEngine binds an engine to the given form element.
func NewDOMEngine(form *html.Node, options ...EngineOption) (*DOMEngine, error) {
	if form == nil {
		return nil, errors.New("validation: form element is nil")
	}
	e := &DOMEngine{
		form:         form,
		ns:           DefaultNamespace,
		inputs:       DefaultInputs,
		excluded:     DefaultExcluded,
		errorClass:   DefaultErrorClass,
		successClass: DefaultSuccessClass,
		fields:       make(map[*html.Node]*Field),
	}
	for _, rule := range BuiltinRules() {
		e.rules = append(e.rules, ruleEntry{id: e.nextRuleID(), rule: rule})
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if _, err := dom.Compile(e.inputs); err != nil {
		return nil, err
	}
	return e, nil
}

// DefaultExcluded skips buttons, hidden inputs and disabled controls.
func DefaultExcluded(node *html.Node) bool {
	switch dom.InputType(node) {
	case "button", "submit", "reset", "hidden", "image":
		return true
	}
	return dom.IsDisabled(node)
}

func (e *DOMEngine) nextRuleID() int {
	e.ruleSeq++
	return e.ruleSeq
}

// Form implements Engine.
func (e *DOMEngine) Form() *html.Node { return e.form }

// Namespace implements Engine.
func (e *DOMEngine) Namespace() string { return e.ns }

// Inputs implements Engine.
func (e *DOMEngine) Inputs() string { return e.inputs }

// AddRule implements Engine.
func (e *DOMEngine) AddRule(rule Rule) func() {
	if rule == nil {
		return func() {}
	}
	e.mu.Lock()
	id := e.nextRuleID()
	e.rules = append(e.rules, ruleEntry{id: id, rule: rule})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, entry := range e.rules {
				if entry.id == id {
					e.rules = append(e.rules[:i:i], e.rules[i+1:]...)
					return
				}
			}
		})
	}
}

// OnFieldError implements Engine.
func (e *DOMEngine) OnFieldError(fn func(*Field)) func() {
	return e.fieldFailed.Subscribe(fn)
}

// OnFormError implements Engine.
func (e *DOMEngine) OnFormError(fn func([]*Field)) func() {
	return e.formFailed.Subscribe(fn)
}

// Fields implements Engine.
func (e *DOMEngine) Fields() []*Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshLocked()
}

// Field returns the field bound to node, if any.
func (e *DOMEngine) Field(node *html.Node) (*Field, bool) {
	for _, field := range e.Fields() {
		for _, member := range field.members {
			if member == node {
				return field, true
			}
		}
	}
	return nil, false
}

func (e *DOMEngine) isExcluded(node *html.Node) bool {
	if e.excluded(node) {
		return true
	}
	if !e.visibleOnly {
		return false
	}
	for current := node; current != nil && current != e.form.Parent; current = current.Parent {
		if dom.HasAttr(current, "hidden") {
			return true
		}
	}
	return false
}

// refreshLocked rebinds fields from the current tree. Field state survives
// across refreshes as long as the element stays in the form.
func (e *DOMEngine) refreshLocked() []*Field {
	nodes, err := dom.QueryAll(e.form, e.inputs)
	if err != nil {
		return nil
	}

	seen := make(map[*html.Node]struct{}, len(nodes))
	groups := make(map[string]*Field)
	out := make([]*Field, 0, len(nodes))

	for _, node := range nodes {
		if e.isExcluded(node) {
			continue
		}
		kind := dom.InputType(node)
		name := dom.AttrOr(node, "name", "")
		if (kind == "checkbox" || kind == "radio") && name != "" {
			key := kind + ":" + name
			if owner, ok := groups[key]; ok {
				owner.members = append(owner.members, node)
				continue
			}
		}

		field, ok := e.fields[node]
		if !ok {
			e.idSeq++
			field = newField(node, e.ns, fmt.Sprintf("fw-id-%d", e.idSeq))
			e.fields[node] = field
		}
		field.members = []*html.Node{node}
		seen[node] = struct{}{}
		if (kind == "checkbox" || kind == "radio") && name != "" {
			groups[kind+":"+name] = field
		}
		out = append(out, field)
	}

	for node, field := range e.fields {
		if _, ok := seen[node]; !ok {
			dom.Detach(field.ui)
			delete(e.fields, node)
		}
	}
	return out
}

func (e *DOMEngine) sortedRulesLocked() []Rule {
	entries := append([]ruleEntry(nil), e.rules...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rule.Priority() > entries[j].rule.Priority()
	})
	out := make([]Rule, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.rule)
	}
	return out
}

// Validate implements Engine.
func (e *DOMEngine) Validate(ctx context.Context) error {
	return e.run(ctx, "", true)
}

// WhenValid implements Engine.
func (e *DOMEngine) WhenValid(ctx context.Context, group string) error {
	return e.run(ctx, group, false)
}

// WhenValidate implements Engine.
func (e *DOMEngine) WhenValidate(ctx context.Context, group string) error {
	return e.run(ctx, group, true)
}

// Check implements Engine.
func (e *DOMEngine) Check(ctx context.Context, field *Field) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	return check(ctx, field, e.sortedRulesLocked())
}

func (e *DOMEngine) run(ctx context.Context, group string, render bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	fields := e.refreshLocked()
	rules := e.sortedRulesLocked()

	var failed []*Field
	var names []string
	for _, field := range fields {
		if group != "" && field.Group() != group {
			continue
		}
		results, err := check(ctx, field, rules)
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("validation: field %q: %w", field.Name(), err)
		}
		if render {
			field.setResults(results)
			e.render(field)
		}
		if len(results) > 0 {
			failed = append(failed, field)
			names = append(names, field.Name())
		}
	}

	var invalid []*Field
	if render && len(failed) > 0 {
		for _, field := range fields {
			if !field.Valid() {
				invalid = append(invalid, field)
			}
		}
	}
	e.mu.Unlock()

	if len(failed) == 0 {
		return nil
	}
	if render {
		for _, field := range failed {
			e.fieldFailed.Publish(field)
		}
		e.formFailed.Publish(invalid)
	}
	return &InvalidError{Group: group, Fields: names}
}

func check(ctx context.Context, field *Field, rules []Rule) ([]Result, error) {
	var applicable []Rule
	required := false
	for _, rule := range rules {
		if !rule.Applies(field) {
			continue
		}
		if rule.Name() == "required" {
			required = true
		}
		applicable = append(applicable, rule)
	}
	if len(applicable) == 0 {
		return nil, nil
	}
	if !required && field.Empty() && !field.Options().ValidateIfEmpty {
		return nil, nil
	}

	var results []Result
	for i := 0; i < len(applicable); {
		priority := applicable[i].Priority()
		for ; i < len(applicable) && applicable[i].Priority() == priority; i++ {
			rule := applicable[i]
			ok, err := rule.Validate(ctx, field)
			if err != nil {
				return nil, err
			}
			if !ok {
				results = append(results, Result{Rule: rule.Name(), Message: rule.Message(field)})
			}
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return nil, nil
}

func (e *DOMEngine) render(field *Field) {
	results := field.Results()
	node := field.node

	if len(results) == 0 {
		for _, member := range field.members {
			dom.RemoveClass(member, e.errorClass)
			dom.AddClass(member, e.successClass)
			dom.RemoveAttr(member, "aria-invalid")
		}
		if field.ui != nil {
			dom.RemoveChildren(field.ui)
			dom.RemoveClass(field.ui, "filled")
		}
		return
	}

	for _, member := range field.members {
		dom.RemoveClass(member, e.successClass)
		dom.AddClass(member, e.errorClass)
		dom.SetAttr(member, "aria-invalid", "true")
	}
	if field.ui == nil {
		field.ui = dom.NewElement("ul", "id", field.errorsID, "class", "fw-errors-list", "aria-live", "assertive")
	}
	if field.ui.Parent == nil {
		anchor := field.members[len(field.members)-1]
		if anchor.Parent == nil {
			anchor = node
		}
		dom.InsertAfter(anchor, field.ui)
	}
	dom.RemoveChildren(field.ui)
	dom.AddClass(field.ui, "filled")
	for _, res := range results {
		item := dom.NewElement("li", "class", "fw-"+res.Rule+"-error")
		dom.SetText(item, res.Message)
		field.ui.AppendChild(item)
	}
}

// Reset implements Engine.
func (e *DOMEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, field := range e.fields {
		field.setResults(nil)
		for _, member := range field.members {
			dom.RemoveClass(member, e.errorClass)
			dom.RemoveClass(member, e.successClass)
			dom.RemoveAttr(member, "aria-invalid")
		}
		dom.Detach(field.ui)
		field.ui = nil
	}
}
