package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/transport"
)

// Supported form encodings.
const (
	EnctypeURLEncoded = "application/x-www-form-urlencoded"
	EnctypeMultipart  = "multipart/form-data"
	EnctypeJSON       = "application/json"
)

// HiddenField is a name/value pair appended to every request body. Use the
// helpers (CSRFToken, AuthToken, VersionField) for the common cases.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken carries an anti-forgery token under the backend's input name
// (for example "_csrf" or "csrf_token").
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// AuthToken carries an authentication token or session hint.
func AuthToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField carries a version used for optimistic locking.
func VersionField(name string, version any) HiddenField {
	return Hidden(name, version)
}

// HiddenFieldsFromMap converts a map into hidden fields sorted by name so
// bodies stay deterministic. Empty names are dropped.
func HiddenFieldsFromMap(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, Hidden(name, fields[name]))
	}
	return out
}

// Entry is one serialized name/value pair.
type Entry struct {
	Name  string
	Value string
}

// Entries lists the successful controls of the form in document order, the
// way a browser serializes them, followed by the configured hidden fields.
// File inputs are not included.
func (f *Form) Entries() []Entry {
	var out []Entry
	for _, node := range f.controls() {
		name := dom.AttrOr(node, "name", "")
		if dom.InputType(node) == "file" {
			continue
		}
		for _, value := range dom.Values(node) {
			out = append(out, Entry{Name: name, Value: normalizeNewlines(value)})
		}
	}
	for _, field := range f.opts.hidden {
		if field.Name == "" {
			continue
		}
		out = append(out, Entry{Name: field.Name, Value: field.Value})
	}
	return out
}

func (f *Form) controls() []*html.Node {
	nodes, err := dom.QueryAll(f.element, "input, select, textarea")
	if err != nil {
		return nil
	}
	out := nodes[:0]
	for _, node := range nodes {
		if dom.AttrOr(node, "name", "") == "" || dom.IsDisabled(node) {
			continue
		}
		switch dom.InputType(node) {
		case "submit", "button", "reset", "image":
			continue
		}
		out = append(out, node)
	}
	return out
}

func normalizeNewlines(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	return strings.ReplaceAll(value, "\n", "\r\n")
}

// DataObject collapses the entries into a map keeping the first value of
// each name. Server frameworks render a hidden fallback input after each
// checkbox; first-wins keeps the checkbox value when it is checked.
func (f *Form) DataObject() map[string]string {
	out := make(map[string]string)
	for _, entry := range f.Entries() {
		if _, exists := out[entry.Name]; exists {
			continue
		}
		out[entry.Name] = entry.Value
	}
	return out
}

// EncodeURLValues joins entries as percent-encoded key=value pairs in order.
func EncodeURLValues(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, encodeComponent(entry.Name)+"="+encodeComponent(entry.Value))
	}
	return strings.Join(parts, "&")
}

func encodeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// BuildRequest serializes the form according to its enctype.
func (f *Form) BuildRequest() (transport.Request, error) {
	req := transport.Request{
		Method: "POST",
		URL:    f.action,
	}
	switch f.enctype {
	case EnctypeURLEncoded:
		req.ContentType = EnctypeURLEncoded
		req.Body = []byte(EncodeURLValues(f.Entries()))
	case EnctypeJSON:
		body, err := json.Marshal(f.DataObject())
		if err != nil {
			return transport.Request{}, fmt.Errorf("form: encode json: %w", err)
		}
		req.ContentType = EnctypeJSON
		req.Body = body
	default:
		body, contentType, err := f.multipartBody()
		if err != nil {
			return transport.Request{}, err
		}
		req.ContentType = contentType
		req.Body = body
	}
	return req, nil
}

func (f *Form) multipartBody() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, entry := range f.Entries() {
		if err := writer.WriteField(entry.Name, entry.Value); err != nil {
			return nil, "", fmt.Errorf("form: multipart field %q: %w", entry.Name, err)
		}
	}
	if f.opts.fileOpener != nil {
		for _, node := range f.controls() {
			if dom.InputType(node) != "file" {
				continue
			}
			if err := f.writeFilePart(writer, node); err != nil {
				return nil, "", err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("form: multipart close: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func (f *Form) writeFilePart(writer *multipart.Writer, node *html.Node) error {
	name := dom.AttrOr(node, "name", "")
	value := dom.AttrOr(node, "value", "")
	if value == "" {
		return nil
	}
	src, err := f.opts.fileOpener(name, value)
	if err != nil {
		return fmt.Errorf("form: open file for %q: %w", name, err)
	}
	defer src.Close()

	part, err := writer.CreateFormFile(name, path.Base(value))
	if err != nil {
		return fmt.Errorf("form: multipart file %q: %w", name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("form: copy file %q: %w", name, err)
	}
	return nil
}
