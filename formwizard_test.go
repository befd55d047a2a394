package formwizard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/transport"
)

const accountsDocument = `{
  "openapi": "3.0.3",
  "info": {"title": "Accounts", "version": "1.0.0"},
  "paths": {
    "/accounts": {
      "post": {
        "operationId": "createAccount",
        "requestBody": {
          "content": {
            "application/x-www-form-urlencoded": {
              "schema": {
                "type": "object",
                "required": ["email", "city"],
                "properties": {
                  "email": {"type": "string", "format": "email"},
                  "city": {"type": "string", "x-formgen-step": 1}
                }
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    }
  }
}`

type recorder struct {
	requests []transport.Request
}

func (r *recorder) Send(_ context.Context, req transport.Request) (*transport.Response, error) {
	r.requests = append(r.requests, req)
	return &transport.Response{StatusCode: 201}, nil
}

func TestMountOperationDrivesWizardThroughClicks(t *testing.T) {
	ctx := context.Background()
	client := &recorder{}
	session, err := formwizard.MountOperation(ctx, []byte(accountsDocument), "createAccount", formwizard.WithClient(client))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer session.Destroy()

	if session.Wizard == nil {
		t.Fatalf("expected a wizard for a stepped form")
	}
	if got := len(session.Wizard.Steps()); got != 2 {
		t.Fatalf("steps = %d, want 2", got)
	}

	next, err := session.Document.Query("[data-wizard-continue]")
	if err != nil {
		t.Fatalf("query continue: %v", err)
	}
	session.Document.Click(ctx, next)
	if got := session.Wizard.Current(); got != 0 {
		t.Fatalf("current = %d after rejected continue, want 0", got)
	}

	email, _ := session.Document.Query(`[name="email"]`)
	dom.SetValue(email, "ada@example.com")
	session.Document.Click(ctx, next)
	if got := session.Wizard.Current(); got != 1 {
		t.Fatalf("current = %d, want 1", got)
	}

	city, _ := session.Document.Query(`[name="city"]`)
	dom.SetValue(city, "Paris")
	if err := session.Form.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(client.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(client.requests))
	}
	req := client.requests[0]
	got := []string{req.URL, req.ContentType, string(req.Body)}
	want := []string{"/accounts", "application/x-www-form-urlencoded", "email=ada%40example.com&city=Paris"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("request (-want +got):\n%s", diff)
	}
}

func TestMountSinglePageForm(t *testing.T) {
	doc, err := dom.ParseString(`<form id="contact" action="/old"><input name="msg"><div data-form-summary></div></form>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg := formwizard.DefaultConfig()
	cfg.FormSelector = "#contact"
	cfg.Action = "/contact"
	cfg.HiddenFields = map[string]string{"_csrf": "t0k"}

	client := &recorder{}
	session, err := formwizard.Mount(doc, formwizard.WithConfig(cfg), formwizard.WithClient(client))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if session.Wizard != nil {
		t.Fatalf("expected no wizard for a form without steps")
	}

	msg, _ := doc.Query(`[name="msg"]`)
	dom.SetValue(msg, "hi")
	if err := session.Form.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got := []string{client.requests[0].URL, string(client.requests[0].Body)}
	if diff := cmp.Diff([]string{"/contact", "msg=hi&_csrf=t0k"}, got); diff != "" {
		t.Fatalf("request (-want +got):\n%s", diff)
	}
}

func TestMountWithoutForm(t *testing.T) {
	doc, err := dom.ParseString(`<div></div>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := formwizard.Mount(doc); !errors.Is(err, dom.ErrNoMatch) {
		t.Fatalf("expected dom.ErrNoMatch, got %v", err)
	}
	if _, err := formwizard.Mount(nil); err == nil {
		t.Fatalf("expected error for nil document")
	}
}
