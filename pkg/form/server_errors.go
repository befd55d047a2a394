package form

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/transport"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// DefaultErrorExtractor reads the conventional `errors` object of a JSON
// response. String values are used as is, lists are joined with ", ".
// Anything else yields an empty map.
func DefaultErrorExtractor(resp *transport.Response) map[string]string {
	if resp == nil {
		return nil
	}
	payload, ok := resp.Data.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := payload["errors"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		messages := normalizeMessages(messagesOf(value))
		if len(messages) == 0 {
			continue
		}
		out[key] = strings.Join(messages, ", ")
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func messagesOf(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return []string{typed}
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, messagesOf(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var out []string
		for _, key := range keys {
			out = append(out, messagesOf(typed[key])...)
		}
		return out
	default:
		return []string{fmt.Sprint(typed)}
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// isFormLevelKey reports keys servers use for errors that belong to the
// whole form.
func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", "_", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

// fieldIndex resolves server error keys to fields by their resolved name:
// the name attribute, or the custom name attribute for unnamed controls.
type fieldIndex struct {
	byName map[string]*validation.Field
	byPath map[string]*validation.Field
}

func (f *Form) indexFields() fieldIndex {
	idx := fieldIndex{
		byName: make(map[string]*validation.Field),
		byPath: make(map[string]*validation.Field),
	}
	for _, field := range f.engine.Fields() {
		name := f.fieldName(field)
		if name == "" {
			continue
		}
		if _, exists := idx.byName[name]; !exists {
			idx.byName[name] = field
		}
		path := strings.Join(parsePathSegments(name), ".")
		if _, exists := idx.byPath[path]; path != "" && !exists {
			idx.byPath[path] = field
		}
	}
	return idx
}

func (f *Form) fieldName(field *validation.Field) string {
	if name := field.Name(); name != "" {
		return name
	}
	value, _ := dom.Attr(field.Element(), f.opts.customNameAttr)
	return value
}

// lookup matches key exactly first, then by path: JSON pointer and bracket
// notation are accepted, and wrapper segments such as "data" or "body" and
// array indices are tolerated.
func (idx fieldIndex) lookup(key string) (*validation.Field, bool) {
	if field, ok := idx.byName[key]; ok {
		return field, true
	}
	segments := parsePathSegments(key)
	if len(segments) == 0 {
		return nil, false
	}
	for _, variant := range buildSegmentVariants(segments) {
		if field, ok := idx.byPath[strings.Join(variant, ".")]; ok {
			return field, true
		}
	}
	return nil, false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func buildSegmentVariants(segments []string) [][]string {
	var variants [][]string
	seen := make(map[string]struct{}, 4)

	appendVariant := func(candidate []string) {
		if len(candidate) == 0 {
			return
		}
		key := strings.Join(candidate, ".")
		if _, exists := seen[key]; exists {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, append([]string(nil), candidate...))
	}

	appendVariant(segments)
	noWrappers := dropWrapperSegments(segments)
	appendVariant(noWrappers)
	appendVariant(stripNumericSegments(segments))
	appendVariant(stripNumericSegments(noWrappers))
	return variants
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 1 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "attributes":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}
