package dom_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/dom"
)

const sampleForm = `<!doctype html><html><body>
<div id="wizard">
  <form id="signup" action="/signup">
    <input name="email" value="a@b.c">
    <input type="checkbox" name="terms" value="yes" checked>
    <input type="checkbox" name="news" value="yes">
    <select name="plan"><option value="free">Free</option><option value="pro" selected>Pro</option></select>
    <select name="tags" multiple><option>a</option><option>b</option></select>
    <textarea name="bio">hello</textarea>
    <button type="submit" id="go">Go</button>
  </form>
</div>
</body></html>`

func mustParse(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(sampleForm)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestQueryAndValues(t *testing.T) {
	doc := mustParse(t)

	got := map[string][]string{}
	for _, sel := range []string{"[name=email]", "[name=terms]", "[name=news]", "[name=plan]", "[name=tags]", "[name=bio]"} {
		node, err := doc.Query(sel)
		if err != nil {
			t.Fatalf("query %s: %v", sel, err)
		}
		got[sel] = dom.Values(node)
	}

	want := map[string][]string{
		"[name=email]": {"a@b.c"},
		"[name=terms]": {"yes"},
		"[name=news]":  nil,
		"[name=plan]":  {"pro"},
		"[name=tags]":  nil,
		"[name=bio]":   {"hello"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	if _, err := doc.Query("[name=missing]"); err == nil {
		t.Fatalf("expected no-match error")
	}
}

func TestSetValueAndClasses(t *testing.T) {
	doc := mustParse(t)
	tags, _ := doc.Query("[name=tags]")
	dom.SetSelected(tags, "a", "b")
	if diff := cmp.Diff([]string{"a", "b"}, dom.Values(tags)); diff != "" {
		t.Fatalf("multi select mismatch (-want +got):\n%s", diff)
	}

	bio, _ := doc.Query("[name=bio]")
	dom.SetValue(bio, "updated")
	if got := dom.Value(bio); got != "updated" {
		t.Fatalf("textarea value = %q", got)
	}

	dom.AddClass(bio, "is-invalid")
	dom.AddClass(bio, "is-invalid")
	if diff := cmp.Diff([]string{"is-invalid"}, dom.Classes(bio)); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
	dom.RemoveClass(bio, "is-invalid")
	if dom.HasAttr(bio, "class") {
		t.Fatalf("expected class attribute to be removed")
	}
}

func TestDispatchCaptureBeforeBubble(t *testing.T) {
	doc := mustParse(t)
	wizard, _ := doc.Query("#wizard")
	form, _ := doc.Query("#signup")

	var order []string
	doc.Listeners().Add(form, dom.EventSubmit, func(_ context.Context, ev *dom.Event) {
		order = append(order, "form-bubble")
	})
	doc.Listeners().Add(wizard, dom.EventSubmit, func(_ context.Context, ev *dom.Event) {
		order = append(order, "wizard-bubble")
	})
	doc.Listeners().AddCapture(form, dom.EventSubmit, func(_ context.Context, ev *dom.Event) {
		order = append(order, "form-capture")
	})

	ev := doc.Submit(context.Background(), form)
	if ev.DefaultPrevented() {
		t.Fatalf("nothing prevented the default action")
	}
	if diff := cmp.Diff([]string{"form-capture", "form-bubble", "wizard-bubble"}, order); diff != "" {
		t.Fatalf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchStopImmediatePropagation(t *testing.T) {
	doc := mustParse(t)
	form, _ := doc.Query("#signup")

	calls := 0
	remove := doc.Listeners().AddCapture(form, dom.EventSubmit, func(_ context.Context, ev *dom.Event) {
		ev.PreventDefault()
		ev.StopImmediatePropagation()
	})
	doc.Listeners().Add(form, dom.EventSubmit, func(_ context.Context, ev *dom.Event) {
		calls++
	})

	ev := doc.Submit(context.Background(), form)
	if !ev.DefaultPrevented() || calls != 0 {
		t.Fatalf("expected stopped event, prevented=%v calls=%d", ev.DefaultPrevented(), calls)
	}

	remove()
	doc.Submit(context.Background(), form)
	if calls != 1 {
		t.Fatalf("expected bubble handler after removal, calls=%d", calls)
	}
}

func TestSetInnerHTMLAndContains(t *testing.T) {
	doc := mustParse(t)
	wizard, _ := doc.Query("#wizard")
	button, _ := doc.Query("#go")
	if !dom.Contains(wizard, button) || dom.Contains(button, wizard) {
		t.Fatalf("containment is wrong")
	}
	if err := dom.SetInnerHTML(wizard, "<p>Please <b>fix</b> this.</p>"); err != nil {
		t.Fatalf("set inner html: %v", err)
	}
	if got := dom.Text(wizard); got != "Please fix this." {
		t.Fatalf("text = %q", got)
	}
	if dom.Contains(wizard, button) {
		t.Fatalf("old children should be detached")
	}
}
