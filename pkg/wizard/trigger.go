package wizard

import (
	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
)

type triggerKind int

const (
	triggerNone triggerKind = iota
	triggerSelector
	triggerCallback
	triggerReference
)

// Trigger locates a step's continue or back control. The zero value resolves
// to nothing.
type Trigger struct {
	kind     triggerKind
	selector string
	callback func(step *html.Node) *html.Node
	node     *html.Node
}

// BySelector finds the first descendant of the step matching selector.
func BySelector(selector string) Trigger {
	if selector == "" {
		return Trigger{}
	}
	return Trigger{kind: triggerSelector, selector: selector}
}

// ByCallback asks fn for the control, given the step element.
func ByCallback(fn func(step *html.Node) *html.Node) Trigger {
	if fn == nil {
		return Trigger{}
	}
	return Trigger{kind: triggerCallback, callback: fn}
}

// ByReference uses node as is, for every step.
func ByReference(node *html.Node) Trigger {
	if node == nil {
		return Trigger{}
	}
	return Trigger{kind: triggerReference, node: node}
}

// IsZero reports whether the trigger resolves to nothing.
func (t Trigger) IsZero() bool {
	return t.kind == triggerNone
}

// Resolve returns the control for the given step element, or nil.
func (t Trigger) Resolve(step *html.Node) *html.Node {
	switch t.kind {
	case triggerSelector:
		node, err := dom.Query(step, t.selector)
		if err != nil {
			return nil
		}
		return node
	case triggerCallback:
		return t.callback(step)
	case triggerReference:
		return t.node
	default:
		return nil
	}
}
