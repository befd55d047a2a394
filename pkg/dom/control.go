package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// IsDisabled reports whether a control carries the disabled attribute.
func IsDisabled(node *html.Node) bool {
	return HasAttr(node, "disabled")
}

// SetDisabled toggles the disabled attribute.
func SetDisabled(node *html.Node, disabled bool) {
	if disabled {
		SetAttr(node, "disabled", "disabled")
		return
	}
	RemoveAttr(node, "disabled")
}

// IsChecked reports whether a checkbox or radio is checked.
func IsChecked(node *html.Node) bool {
	return HasAttr(node, "checked")
}

// SetChecked toggles the checked attribute.
func SetChecked(node *html.Node, checked bool) {
	if checked {
		SetAttr(node, "checked", "checked")
		return
	}
	RemoveAttr(node, "checked")
}

// IsMultiSelect reports whether node is a <select multiple>.
func IsMultiSelect(node *html.Node) bool {
	return Tag(node) == "select" && HasAttr(node, "multiple")
}

// Option is one <option> of a select element.
type Option struct {
	Label    string
	Value    string
	Selected bool
	node     *html.Node
}

// SelectOptions lists the options of a select element in document order.
func SelectOptions(node *html.Node) []Option {
	if Tag(node) != "select" {
		return nil
	}
	var out []Option
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if Tag(c) == "option" {
				label := strings.TrimSpace(Text(c))
				out = append(out, Option{
					Label:    label,
					Value:    AttrOr(c, "value", label),
					Selected: HasAttr(c, "selected"),
					node:     c,
				})
				continue
			}
			if Tag(c) == "optgroup" {
				walk(c)
			}
		}
	}
	walk(node)
	return out
}

// Values returns the current values of a control the way a browser would
// report them: the checked value for checkboxes and radios, every selected
// option for selects, and the text content for textareas.
func Values(node *html.Node) []string {
	switch Tag(node) {
	case "textarea":
		return []string{Text(node)}
	case "select":
		options := SelectOptions(node)
		var out []string
		for _, opt := range options {
			if opt.Selected {
				out = append(out, opt.Value)
			}
		}
		if len(out) == 0 && !IsMultiSelect(node) && len(options) > 0 {
			out = append(out, options[0].Value)
		}
		return out
	case "input":
		switch InputType(node) {
		case "checkbox", "radio":
			if !IsChecked(node) {
				return nil
			}
			return []string{AttrOr(node, "value", "on")}
		default:
			return []string{AttrOr(node, "value", "")}
		}
	default:
		return nil
	}
}

// Value returns the first value of the control, or "".
func Value(node *html.Node) string {
	values := Values(node)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// SetValue writes a single value into a control.
func SetValue(node *html.Node, value string) {
	switch Tag(node) {
	case "textarea":
		SetText(node, value)
	case "select":
		SetSelected(node, value)
	case "input":
		switch InputType(node) {
		case "checkbox", "radio":
			SetChecked(node, value != "" && value == AttrOr(node, "value", "on"))
		default:
			SetAttr(node, "value", value)
		}
	}
}

// SetSelected marks the options whose values appear in values as selected
// and clears the rest.
func SetSelected(node *html.Node, values ...string) {
	want := make(map[string]struct{}, len(values))
	for _, v := range values {
		want[v] = struct{}{}
	}
	for _, opt := range SelectOptions(node) {
		_, ok := want[opt.Value]
		if ok {
			SetAttr(opt.node, "selected", "selected")
		} else {
			RemoveAttr(opt.node, "selected")
		}
	}
}
