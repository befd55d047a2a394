package dom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrNoMatch is returned by Query when the selector matches nothing.
var ErrNoMatch = errors.New("dom: selector matched no element")

// Document couples a parsed HTML tree with the listener registry used to
// deliver user-interaction events to it.
type Document struct {
	root      *html.Node
	listeners *Listeners
}

// NewDocument wraps an existing tree.
func NewDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		listeners: NewListeners(),
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return NewDocument(root), nil
}

// ParseString is Parse over an in-memory string.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Listeners returns the event registry bound to the document.
func (d *Document) Listeners() *Listeners {
	if d == nil {
		return nil
	}
	return d.listeners
}

// Query returns the first element matching selector.
func (d *Document) Query(selector string) (*html.Node, error) {
	return Query(d.root, selector)
}

// QueryAll returns every element matching selector in document order.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	return QueryAll(d.root, selector)
}

// Submit dispatches a native submit event on the form element. The returned
// event reports whether any listener cancelled the default action.
func (d *Document) Submit(ctx context.Context, formNode *html.Node) *Event {
	return d.listeners.Dispatch(ctx, formNode, EventSubmit)
}

// Click dispatches a click event on node.
func (d *Document) Click(ctx context.Context, node *html.Node) *Event {
	return d.listeners.Dispatch(ctx, node, EventClick)
}

// Render writes the current tree as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the tree, mostly for debugging and tests.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Compile validates a selector up front so configuration mistakes surface
// at construction rather than on first use.
func Compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: selector %q: %w", selector, err)
	}
	return sel, nil
}

// QueryAll returns descendants of root matching selector. Like the browser's
// querySelectorAll, root itself is never part of the result.
func QueryAll(root *html.Node, selector string) ([]*html.Node, error) {
	if root == nil {
		return nil, nil
	}
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	matches := sel.MatchAll(root)
	out := make([]*html.Node, 0, len(matches))
	for _, node := range matches {
		if node == root {
			continue
		}
		out = append(out, node)
	}
	return out, nil
}

// Query returns the first descendant of root matching selector.
func Query(root *html.Node, selector string) (*html.Node, error) {
	nodes, err := QueryAll(root, selector)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	return nodes[0], nil
}

// Matches reports whether node itself satisfies selector.
func Matches(node *html.Node, selector string) bool {
	if node == nil {
		return false
	}
	sel, err := Compile(selector)
	if err != nil {
		return false
	}
	return sel.Match(node)
}
