package openapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrOperationNotFound is returned when no operation carries the requested id.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// Operation is one request-bearing operation of a document.
type Operation struct {
	ID         string
	Method     string
	Path       string
	Summary    string
	MediaType  string
	Schema     *openapi3.Schema
	Extensions map[string]any
}

var requestMediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// Operations lists the operations of spec sorted by id. Operations without an
// operationId are keyed as "<method>:<path>".
func Operations(spec *openapi3.T) []Operation {
	if spec == nil || spec.Paths == nil {
		return nil
	}
	var out []Operation
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			out = append(out, newOperation(method, path, op))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindOperation returns the operation with id.
func FindOperation(spec *openapi3.T, id string) (Operation, error) {
	for _, op := range Operations(spec) {
		if op.ID == id {
			return op, nil
		}
	}
	return Operation{}, fmt.Errorf("%w: %q", ErrOperationNotFound, id)
}

func newOperation(method, path string, op *openapi3.Operation) Operation {
	id := op.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	out := Operation{
		ID:         id,
		Method:     strings.ToUpper(method),
		Path:       path,
		Summary:    op.Summary,
		Extensions: op.Extensions,
	}
	out.MediaType, out.Schema = requestSchema(op.RequestBody)
	return out
}

func requestSchema(body *openapi3.RequestBodyRef) (string, *openapi3.Schema) {
	if body == nil || body.Value == nil {
		return "", nil
	}
	content := body.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mediaType, mt.Schema.Value
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return key, mt.Schema.Value
		}
	}
	return "", nil
}
