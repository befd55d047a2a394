package validation

import (
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
)

// Result is one failed constraint on a field.
type Result struct {
	Rule    string
	Message string
}

// FieldOptions is the per-field options bag rules may consult.
type FieldOptions struct {
	// ServerMessage is the message shown by the server rule.
	ServerMessage string
	// ValidateIfEmpty forces every applicable rule to run on an empty value.
	ValidateIfEmpty bool
}

// Field is one validated unit: a single control, or a checkbox/radio group
// sharing a name.
type Field struct {
	node     *html.Node
	members  []*html.Node
	ns       string
	errorsID string

	mu      sync.Mutex
	options FieldOptions
	results []Result
	memo    map[string]any
	ui      *html.Node
}

func newField(node *html.Node, ns, errorsID string) *Field {
	return &Field{
		node:     node,
		members:  []*html.Node{node},
		ns:       ns,
		errorsID: errorsID,
	}
}

// Element returns the field's primary element.
func (f *Field) Element() *html.Node {
	return f.node
}

// Elements returns every element bound to the field.
func (f *Field) Elements() []*html.Node {
	return append([]*html.Node(nil), f.members...)
}

// Name returns the element's name attribute.
func (f *Field) Name() string {
	return dom.AttrOr(f.node, "name", "")
}

// Attr reads a namespaced attribute from the primary element.
func (f *Field) Attr(key string) (string, bool) {
	return dom.Attr(f.node, f.ns+key)
}

// Group returns the group the field is tagged with, or "".
func (f *Field) Group() string {
	value, _ := f.Attr(GroupAttribute)
	return value
}

// ErrorsID is the id of the rendered errors list, suitable for
// aria-describedby.
func (f *Field) ErrorsID() string {
	return f.errorsID
}

// Multiple reports whether the field carries a set of values rather than a
// single string: checkbox and radio groups, and multi-selects.
func (f *Field) Multiple() bool {
	switch dom.InputType(f.node) {
	case "checkbox", "radio":
		return true
	}
	return dom.IsMultiSelect(f.node)
}

// Comparable reports whether the field exposes a single current value that
// can be compared across validation passes. File inputs and multi-value
// controls cannot.
func (f *Field) Comparable() bool {
	if f.Multiple() {
		return false
	}
	switch dom.Tag(f.node) {
	case "textarea", "select":
		return true
	case "input":
		return dom.InputType(f.node) != "file"
	}
	return false
}

// Values returns the current values across every bound element.
func (f *Field) Values() []string {
	var out []string
	for _, member := range f.members {
		out = append(out, dom.Values(member)...)
	}
	return out
}

// Value returns the first current value, or "".
func (f *Field) Value() string {
	values := f.Values()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Empty reports whether the field has no meaningful value.
func (f *Field) Empty() bool {
	if f.Multiple() {
		return len(f.Values()) == 0
	}
	return strings.TrimSpace(f.Value()) == ""
}

// Options returns a copy of the options bag.
func (f *Field) Options() FieldOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.options
}

// UpdateOptions mutates the options bag.
func (f *Field) UpdateOptions(fn func(*FieldOptions)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.options)
}

// Results returns the failed constraints of the last rendered pass.
func (f *Field) Results() []Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Result(nil), f.results...)
}

// FailedRules lists the names of the failed constraints in order.
func (f *Field) FailedRules() []string {
	results := f.Results()
	if len(results) == 0 {
		return nil
	}
	out := make([]string, 0, len(results))
	for _, res := range results {
		out = append(out, res.Rule)
	}
	return out
}

// Messages lists the messages of the failed constraints.
func (f *Field) Messages() []string {
	results := f.Results()
	if len(results) == 0 {
		return nil
	}
	out := make([]string, 0, len(results))
	for _, res := range results {
		out = append(out, res.Message)
	}
	return out
}

// Valid reports whether the last rendered pass left the field without
// failures. Fields never validated are valid.
func (f *Field) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results) == 0
}

func (f *Field) setResults(results []Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = results
}

// Load reads per-field state kept by rules between passes.
func (f *Field) Load(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.memo[key]
	return value, ok
}

// Store writes per-field rule state.
func (f *Field) Store(key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memo == nil {
		f.memo = make(map[string]any)
	}
	f.memo[key] = value
}

// Forget drops per-field rule state.
func (f *Field) Forget(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memo, key)
}
