package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-formwizard/pkg/dom"
)

// Extension keys read while building forms.
const (
	StepExtension       = "x-formgen-step"
	OrderExtension      = "x-formgen-order"
	WidgetExtension     = "x-formgen-widget"
	StepTitlesExtension = "x-formgen-step-titles"
)

// Markers placed on generated controls.
const (
	ContinueAttr = "data-wizard-continue"
	BackAttr     = "data-wizard-back"
	SummaryAttr  = "data-form-summary"
)

// FormFromOperation builds a wizard form for the operation operationID of the
// document raw.
func FormFromOperation(ctx context.Context, raw []byte, operationID string) (*dom.Document, error) {
	spec, err := Parse(ctx, raw)
	if err != nil {
		return nil, err
	}
	op, err := FindOperation(spec, operationID)
	if err != nil {
		return nil, err
	}
	return BuildForm(op)
}

type property struct {
	name     string
	schema   *openapi3.Schema
	required bool
	step     int
	order    float64
}

// BuildForm emits a document holding a single form for op. Request body
// properties become controls, grouped into one fieldset[data-step] per
// distinct x-formgen-step value.
func BuildForm(op Operation) (*dom.Document, error) {
	if op.Schema == nil {
		return nil, fmt.Errorf("openapi: operation %q has no request body schema", op.ID)
	}
	props := flatten(op.Schema, "", 0)
	if len(props) == 0 {
		return nil, fmt.Errorf("openapi: operation %q has no request properties", op.ID)
	}
	sort.SliceStable(props, func(i, j int) bool {
		if props[i].step != props[j].step {
			return props[i].step < props[j].step
		}
		if props[i].order != props[j].order {
			return props[i].order < props[j].order
		}
		return props[i].name < props[j].name
	})

	formNode := dom.NewElement("form",
		"action", op.Path,
		"method", strings.ToLower(op.Method),
		"enctype", enctypeFor(op.MediaType),
		"id", op.ID,
	)

	titles := stringList(op.Extensions[StepTitlesExtension])
	var steps [][]property
	for i, prop := range props {
		if i == 0 || prop.step != props[i-1].step {
			steps = append(steps, nil)
		}
		steps[len(steps)-1] = append(steps[len(steps)-1], prop)
	}

	for index, group := range steps {
		fieldset := dom.NewElement("fieldset", "data-step", "")
		legend := fmt.Sprintf("Step %d", index+1)
		if index < len(titles) && titles[index] != "" {
			legend = titles[index]
		}
		appendText(fieldset, "legend", legend)
		for _, prop := range group {
			appendControl(fieldset, prop)
		}
		if index > 0 {
			appendButton(fieldset, BackAttr, "Back")
		}
		if index < len(steps)-1 {
			appendButton(fieldset, ContinueAttr, "Continue")
		}
		formNode.AppendChild(fieldset)
	}

	formNode.AppendChild(dom.NewElement("div", SummaryAttr, ""))
	submit := dom.NewElement("button", "type", "submit")
	dom.SetText(submit, "Submit")
	formNode.AppendChild(submit)

	return dom.NewDocument(wrapDocument(formNode)), nil
}

func wrapDocument(formNode *html.Node) *html.Node {
	root := &html.Node{Type: html.DocumentNode}
	htmlNode := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	root.AppendChild(htmlNode)
	htmlNode.AppendChild(body)
	body.AppendChild(formNode)
	return root
}

// flatten walks object properties depth first. Nested objects produce
// bracketed names (address[city]) and inherit the parent's step.
func flatten(schema *openapi3.Schema, prefix string, step int) []property {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	var out []property
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		child := ref.Value
		if child.ReadOnly {
			continue
		}
		full := name
		if prefix != "" {
			full = prefix + "[" + name + "]"
		}
		childStep := step
		if value, ok := number(child.Extensions[StepExtension]); ok {
			childStep = int(value)
		}
		if schemaType(child) == "object" && len(child.Properties) > 0 {
			out = append(out, flatten(child, full, childStep)...)
			continue
		}
		order, _ := number(child.Extensions[OrderExtension])
		out = append(out, property{
			name:     full,
			schema:   child,
			required: required[name],
			step:     childStep,
			order:    order,
		})
	}
	return out
}

func appendControl(parent *html.Node, prop property) {
	id := controlID(prop.name)
	schema := prop.schema
	kind := schemaType(schema)

	if kind == "boolean" {
		label := dom.NewElement("label")
		input := dom.NewElement("input", "type", "checkbox", "name", prop.name, "value", "true", "id", id)
		if prop.required {
			dom.SetAttr(input, "required", "")
		}
		if def, ok := schema.Default.(bool); ok && def {
			dom.SetChecked(input, true)
		}
		label.AppendChild(input)
		label.AppendChild(&html.Node{Type: html.TextNode, Data: " " + title(prop)})
		parent.AppendChild(label)
		return
	}

	labelNode := dom.NewElement("label", "for", id)
	dom.SetText(labelNode, title(prop))
	parent.AppendChild(labelNode)

	var control *html.Node
	switch {
	case kind == "array" && schema.Items != nil && schema.Items.Value != nil && len(schema.Items.Value.Enum) > 0:
		control = selectNode(prop.name, id, schema.Items.Value.Enum, true)
	case len(schema.Enum) > 0:
		control = selectNode(prop.name, id, schema.Enum, false)
	case widget(schema) == "textarea":
		control = dom.NewElement("textarea", "name", prop.name, "id", id)
		if def, ok := schema.Default.(string); ok {
			dom.SetText(control, def)
		}
	default:
		control = dom.NewElement("input", "type", inputType(schema), "name", prop.name, "id", id)
		if schema.Default != nil {
			dom.SetAttr(control, "value", fmt.Sprint(schema.Default))
		}
		if schema.Min != nil {
			dom.SetAttr(control, "min", formatNumber(*schema.Min))
		}
		if schema.Max != nil {
			dom.SetAttr(control, "max", formatNumber(*schema.Max))
		}
	}

	if prop.required {
		dom.SetAttr(control, "required", "")
	}
	if schema.MinLength > 0 {
		dom.SetAttr(control, "minlength", strconv.FormatUint(schema.MinLength, 10))
	}
	if schema.MaxLength != nil {
		dom.SetAttr(control, "maxlength", strconv.FormatUint(*schema.MaxLength, 10))
	}
	if schema.Pattern != "" {
		dom.SetAttr(control, "pattern", schema.Pattern)
	}
	if schema.Description != "" {
		dom.SetAttr(control, "title", schema.Description)
	}
	parent.AppendChild(control)
}

func selectNode(name, id string, values []any, multiple bool) *html.Node {
	node := dom.NewElement("select", "name", name, "id", id)
	if multiple {
		dom.SetAttr(node, "multiple", "")
	}
	for _, value := range values {
		text := fmt.Sprint(value)
		option := dom.NewElement("option", "value", text)
		dom.SetText(option, text)
		node.AppendChild(option)
	}
	return node
}

func appendText(parent *html.Node, tag, text string) {
	node := dom.NewElement(tag)
	dom.SetText(node, text)
	parent.AppendChild(node)
}

func appendButton(parent *html.Node, marker, text string) {
	button := dom.NewElement("button", "type", "button", marker, "")
	dom.SetText(button, text)
	parent.AppendChild(button)
}

func inputType(schema *openapi3.Schema) string {
	switch schemaType(schema) {
	case "integer", "number":
		return "number"
	}
	switch schema.Format {
	case "email":
		return "email"
	case "password":
		return "password"
	case "date":
		return "date"
	case "date-time":
		return "datetime-local"
	case "uri", "url":
		return "url"
	case "binary":
		return "file"
	}
	return "text"
}

func enctypeFor(mediaType string) string {
	switch mediaType {
	case "application/json", "multipart/form-data":
		return mediaType
	}
	return "application/x-www-form-urlencoded"
}

func title(prop property) string {
	if prop.schema.Title != "" {
		return prop.schema.Title
	}
	name := prop.name
	if idx := strings.LastIndex(name, "["); idx >= 0 {
		name = strings.TrimSuffix(name[idx+1:], "]")
	}
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func controlID(name string) string {
	replacer := strings.NewReplacer("[", "-", "]", "")
	return "fw-" + replacer.Replace(name)
}

func widget(schema *openapi3.Schema) string {
	value, _ := schema.Extensions[WidgetExtension].(string)
	return value
}

func schemaType(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil {
		return ""
	}
	values := schema.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out
}
