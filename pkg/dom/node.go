package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of key on node.
func Attr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or fallback when absent.
func AttrOr(node *html.Node, key, fallback string) string {
	if value, ok := Attr(node, key); ok {
		return value
	}
	return fallback
}

// HasAttr reports whether node carries key.
func HasAttr(node *html.Node, key string) bool {
	_, ok := Attr(node, key)
	return ok
}

// SetAttr creates or replaces key on node.
func SetAttr(node *html.Node, key, value string) {
	if node == nil {
		return
	}
	key = strings.ToLower(key)
	for i, attr := range node.Attr {
		if attr.Namespace == "" && attr.Key == key {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes key from node.
func RemoveAttr(node *html.Node, key string) {
	if node == nil {
		return
	}
	out := node.Attr[:0]
	for _, attr := range node.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, key) {
			continue
		}
		out = append(out, attr)
	}
	node.Attr = out
}

// Classes returns the class list of node.
func Classes(node *html.Node) []string {
	return strings.Fields(AttrOr(node, "class", ""))
}

// HasClass reports whether class is in node's class list.
func HasClass(node *html.Node, class string) bool {
	for _, existing := range Classes(node) {
		if existing == class {
			return true
		}
	}
	return false
}

// AddClass appends class when missing.
func AddClass(node *html.Node, class string) {
	if node == nil || class == "" || HasClass(node, class) {
		return
	}
	SetAttr(node, "class", strings.TrimSpace(strings.Join(append(Classes(node), class), " ")))
}

// RemoveClass drops class from node's class list.
func RemoveClass(node *html.Node, class string) {
	if node == nil || !HasClass(node, class) {
		return
	}
	kept := make([]string, 0, len(Classes(node)))
	for _, existing := range Classes(node) {
		if existing != class {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(node, "class")
		return
	}
	SetAttr(node, "class", strings.Join(kept, " "))
}

// ToggleClass adds class when on is true and removes it otherwise.
func ToggleClass(node *html.Node, class string, on bool) {
	if on {
		AddClass(node, class)
		return
	}
	RemoveClass(node, class)
}

// Tag returns the lower-case element name, or "" for non-element nodes.
func Tag(node *html.Node) string {
	if node == nil || node.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(node.Data)
}

// InputType returns the normalised type attribute of an input element.
func InputType(node *html.Node) string {
	if Tag(node) != "input" {
		return ""
	}
	kind := strings.ToLower(strings.TrimSpace(AttrOr(node, "type", "text")))
	if kind == "" {
		return "text"
	}
	return kind
}

// Contains reports whether child is node or one of its descendants.
func Contains(node, child *html.Node) bool {
	if node == nil {
		return false
	}
	for current := child; current != nil; current = current.Parent {
		if current == node {
			return true
		}
	}
	return false
}

// Closest walks from node up to the document root and returns the first
// element that satisfies selector.
func Closest(node *html.Node, selector string) *html.Node {
	sel, err := Compile(selector)
	if err != nil {
		return nil
	}
	for current := node; current != nil; current = current.Parent {
		if current.Type == html.ElementNode && sel.Match(current) {
			return current
		}
	}
	return nil
}

// Text returns the concatenated text content of node.
func Text(node *html.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return b.String()
}

// RemoveChildren detaches every child of node.
func RemoveChildren(node *html.Node) {
	if node == nil {
		return
	}
	for node.FirstChild != nil {
		node.RemoveChild(node.FirstChild)
	}
}

// SetText replaces the children of node with a single text node.
func SetText(node *html.Node, text string) {
	if node == nil {
		return
	}
	RemoveChildren(node)
	if text != "" {
		node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// SetInnerHTML parses markup in the context of node and replaces its
// children with the result.
func SetInnerHTML(node *html.Node, markup string) error {
	if node == nil {
		return nil
	}
	RemoveChildren(node)
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	children, err := html.ParseFragment(strings.NewReader(markup), node)
	if err != nil {
		return fmt.Errorf("dom: parse fragment: %w", err)
	}
	for _, child := range children {
		node.AppendChild(child)
	}
	return nil
}

// NewElement builds a detached element with the given attributes, passed as
// alternating key/value pairs.
func NewElement(tag string, attrs ...string) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		node.Attr = append(node.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return node
}

// InsertAfter places node right after ref in ref's parent.
func InsertAfter(ref, node *html.Node) {
	if ref == nil || ref.Parent == nil || node == nil {
		return
	}
	ref.Parent.InsertBefore(node, ref.NextSibling)
}

// Detach removes node from its parent, when it has one.
func Detach(node *html.Node) {
	if node == nil || node.Parent == nil {
		return
	}
	node.Parent.RemoveChild(node)
}
