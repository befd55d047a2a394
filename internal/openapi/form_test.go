package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/dom"
)

const signupDocument = `{
  "openapi": "3.0.3",
  "info": {"title": "Accounts", "version": "1.0.0"},
  "paths": {
    "/accounts": {
      "post": {
        "operationId": "createAccount",
        "x-formgen-step-titles": ["Account", "Details"],
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["email", "plan"],
                "properties": {
                  "email": {"type": "string", "format": "email"},
                  "nickname": {"type": "string", "minLength": 3, "maxLength": 20},
                  "id": {"type": "string", "readOnly": true},
                  "plan": {"type": "string", "enum": ["free", "pro"], "x-formgen-step": 1},
                  "newsletter": {"type": "boolean", "x-formgen-step": 1},
                  "address": {
                    "type": "object",
                    "x-formgen-step": 1,
                    "required": ["city"],
                    "properties": {
                      "city": {"type": "string", "title": "Town"}
                    }
                  }
                }
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    },
    "/ping": {
      "get": {
        "responses": {"200": {"description": "pong"}}
      }
    }
  }
}`

func namesIn(t *testing.T, doc *dom.Document, selector string) []string {
	t.Helper()
	nodes, err := doc.QueryAll(selector)
	if err != nil {
		t.Fatalf("query %s: %v", selector, err)
	}
	var out []string
	for _, node := range nodes {
		out = append(out, dom.AttrOr(node, "name", ""))
	}
	return out
}

func TestFormFromOperationGroupsSteps(t *testing.T) {
	doc, err := FormFromOperation(context.Background(), []byte(signupDocument), "createAccount")
	if err != nil {
		t.Fatalf("form from operation: %v", err)
	}

	form, err := doc.Query("form")
	if err != nil {
		t.Fatalf("query form: %v", err)
	}
	gotAttrs := []string{
		dom.AttrOr(form, "action", ""),
		dom.AttrOr(form, "method", ""),
		dom.AttrOr(form, "enctype", ""),
	}
	if diff := cmp.Diff([]string{"/accounts", "post", "application/json"}, gotAttrs); diff != "" {
		t.Fatalf("form attributes (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"email", "nickname"}, namesIn(t, doc, "fieldset[data-step]:nth-of-type(1) [name]")); diff != "" {
		t.Fatalf("step 1 controls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"address[city]", "newsletter", "plan"}, namesIn(t, doc, "fieldset[data-step]:nth-of-type(2) [name]")); diff != "" {
		t.Fatalf("step 2 controls (-want +got):\n%s", diff)
	}

	legends, err := doc.QueryAll("legend")
	if err != nil {
		t.Fatalf("query legends: %v", err)
	}
	var gotLegends []string
	for _, legend := range legends {
		gotLegends = append(gotLegends, dom.Text(legend))
	}
	if diff := cmp.Diff([]string{"Account", "Details"}, gotLegends); diff != "" {
		t.Fatalf("legends (-want +got):\n%s", diff)
	}
}

func TestFormFromOperationControls(t *testing.T) {
	doc, err := FormFromOperation(context.Background(), []byte(signupDocument), "createAccount")
	if err != nil {
		t.Fatalf("form from operation: %v", err)
	}

	email, err := doc.Query(`input[name="email"]`)
	if err != nil {
		t.Fatalf("query email: %v", err)
	}
	if dom.InputType(email) != "email" || !dom.HasAttr(email, "required") {
		t.Fatalf("unexpected email control: %v", email.Attr)
	}

	nickname, err := doc.Query(`input[name="nickname"]`)
	if err != nil {
		t.Fatalf("query nickname: %v", err)
	}
	if got := []string{dom.AttrOr(nickname, "minlength", ""), dom.AttrOr(nickname, "maxlength", "")}; !cmp.Equal(got, []string{"3", "20"}) {
		t.Fatalf("nickname length bounds = %v", got)
	}
	if dom.HasAttr(nickname, "required") {
		t.Fatalf("nickname should be optional")
	}

	plan, err := doc.Query(`select[name="plan"]`)
	if err != nil {
		t.Fatalf("query plan: %v", err)
	}
	var options []string
	for _, opt := range dom.SelectOptions(plan) {
		options = append(options, opt.Value)
	}
	if diff := cmp.Diff([]string{"free", "pro"}, options); diff != "" {
		t.Fatalf("plan options (-want +got):\n%s", diff)
	}

	city, err := doc.Query(`label[for="fw-address-city"]`)
	if err != nil {
		t.Fatalf("query city label: %v", err)
	}
	if got := dom.Text(city); got != "Town" {
		t.Fatalf("city label = %q, want Town", got)
	}

	if _, err := doc.Query(`[name="id"]`); !errors.Is(err, dom.ErrNoMatch) {
		t.Fatalf("read only property should be skipped, got %v", err)
	}

	continues, _ := doc.QueryAll("[" + ContinueAttr + "]")
	backs, _ := doc.QueryAll("[" + BackAttr + "]")
	if len(continues) != 1 || len(backs) != 1 {
		t.Fatalf("continue=%d back=%d, want 1 and 1", len(continues), len(backs))
	}
}

func TestFindOperation(t *testing.T) {
	spec, err := Parse(context.Background(), []byte(signupDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var ids []string
	for _, op := range Operations(spec) {
		ids = append(ids, op.ID)
	}
	if diff := cmp.Diff([]string{"createAccount", "get:/ping"}, ids); diff != "" {
		t.Fatalf("operation ids (-want +got):\n%s", diff)
	}

	if _, err := FindOperation(spec, "missing"); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}

	ping, err := FindOperation(spec, "get:/ping")
	if err != nil {
		t.Fatalf("find ping: %v", err)
	}
	if _, err := BuildForm(ping); err == nil {
		t.Fatalf("expected an error for an operation without a request body")
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := Parse(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
