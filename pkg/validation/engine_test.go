package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formwizard/pkg/dom"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

const markup = `<form id="f">
  <fieldset>
    <input name="email" type="email" required data-fw-group="group-0">
    <input name="nick" minlength="3" data-fw-group="group-0">
  </fieldset>
  <fieldset>
    <input name="age" type="number" min="18" data-fw-group="group-1" value="21">
    <input type="checkbox" name="colors" value="red" required data-fw-group="group-1">
    <input type="checkbox" name="colors" value="blue" data-fw-group="group-1">
  </fieldset>
  <input type="hidden" name="token" value="x">
  <input name="off" disabled required>
  <button type="submit">Send</button>
</form>`

func newEngine(t *testing.T, opts ...validation.EngineOption) (*dom.Document, *validation.DOMEngine) {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	form, err := doc.Query("#f")
	if err != nil {
		t.Fatalf("query form: %v", err)
	}
	engine, err := validation.NewDOMEngine(form, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return doc, engine
}

func fieldNames(fields []*validation.Field) []string {
	var out []string
	for _, f := range fields {
		out = append(out, f.Name())
	}
	return out
}

func TestFieldsDiscovery(t *testing.T) {
	_, engine := newEngine(t)
	fields := engine.Fields()
	if diff := cmp.Diff([]string{"email", "nick", "age", "colors"}, fieldNames(fields)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if got := len(fields[3].Elements()); got != 2 {
		t.Fatalf("checkbox group should bind 2 elements, got %d", got)
	}
	if !fields[3].Multiple() || fields[3].Comparable() {
		t.Fatalf("checkbox group should be multiple and not comparable")
	}
	if !fields[0].Comparable() {
		t.Fatalf("text input should be comparable")
	}
}

func TestWhenValidIsSilent(t *testing.T) {
	_, engine := newEngine(t)
	var fieldEvents, formEvents int
	engine.OnFieldError(func(*validation.Field) { fieldEvents++ })
	engine.OnFormError(func([]*validation.Field) { formEvents++ })

	err := engine.WhenValid(context.Background(), "group-0")
	if !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var invalid *validation.InvalidError
	if !errors.As(err, &invalid) || invalid.Group != "group-0" {
		t.Fatalf("expected InvalidError for group-0, got %#v", err)
	}
	if fieldEvents != 0 || formEvents != 0 {
		t.Fatalf("silent pass published events: field=%d form=%d", fieldEvents, formEvents)
	}
	for _, f := range engine.Fields() {
		if !f.Valid() {
			t.Fatalf("silent pass stored results on %s", f.Name())
		}
	}
}

func TestCheckIsSilentAndScopedToOneField(t *testing.T) {
	doc, engine := newEngine(t)
	var events int
	engine.OnFieldError(func(*validation.Field) { events++ })
	ctx := context.Background()

	nick, ok := engine.Field(mustQuery(t, doc, "[name=nick]"))
	if !ok {
		t.Fatalf("nick is not a field")
	}
	dom.SetValue(nick.Element(), "ab")
	results, err := engine.Check(ctx, nick)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var rules []string
	for _, res := range results {
		rules = append(rules, res.Rule)
	}
	if diff := cmp.Diff([]string{"minlength"}, rules); diff != "" {
		t.Fatalf("failed rules (-want +got):\n%s", diff)
	}
	if !nick.Valid() || events != 0 {
		t.Fatalf("check must not store results or publish")
	}

	dom.SetValue(nick.Element(), "abc")
	if results, err := engine.Check(ctx, nick); err != nil || len(results) != 0 {
		t.Fatalf("expected nick to pass, got %v %v", results, err)
	}
}

func mustQuery(t *testing.T, doc *dom.Document, selector string) *html.Node {
	t.Helper()
	node, err := doc.Query(selector)
	if err != nil {
		t.Fatalf("query %s: %v", selector, err)
	}
	return node
}

func TestWhenValidateRendersAndPublishes(t *testing.T) {
	doc, engine := newEngine(t)
	var failedRules [][]string
	var formFailed [][]*html.Node
	engine.OnFieldError(func(f *validation.Field) { failedRules = append(failedRules, f.FailedRules()) })
	engine.OnFormError(func(fields []*validation.Field) {
		var nodes []*html.Node
		for _, f := range fields {
			nodes = append(nodes, f.Element())
		}
		formFailed = append(formFailed, nodes)
	})

	if err := engine.WhenValidate(context.Background(), "group-0"); err == nil {
		t.Fatalf("expected group-0 to fail")
	}
	if diff := cmp.Diff([][]string{{"required"}}, failedRules); diff != "" {
		t.Fatalf("failed rules mismatch (-want +got):\n%s", diff)
	}
	email, _ := doc.Query("[name=email]")
	if len(formFailed) != 1 || len(formFailed[0]) != 1 || formFailed[0][0] != email {
		t.Fatalf("form failure should list the email element, got %v", formFailed)
	}
	if !dom.HasClass(email, validation.DefaultErrorClass) {
		t.Fatalf("email should carry the error class")
	}
	list, err := doc.Query("ul.fw-errors-list")
	if err != nil {
		t.Fatalf("errors list not rendered: %v", err)
	}
	if got := dom.Text(list); got != "This value is required." {
		t.Fatalf("errors list text = %q", got)
	}

	// Empty optional field with minlength is skipped; required one reports.
	nick, _ := doc.Query("[name=nick]")
	if !dom.HasClass(nick, validation.DefaultSuccessClass) {
		t.Fatalf("empty optional field should render as valid")
	}

	dom.SetValue(email, "not-an-email")
	dom.SetValue(nick, "ab")
	failedRules = nil
	_ = engine.WhenValidate(context.Background(), "group-0")
	if diff := cmp.Diff([][]string{{"email"}, {"minlength"}}, failedRules); diff != "" {
		t.Fatalf("failed rules mismatch (-want +got):\n%s", diff)
	}

	dom.SetValue(email, "a@b.co")
	dom.SetValue(nick, "abc")
	if err := engine.WhenValidate(context.Background(), "group-0"); err != nil {
		t.Fatalf("expected group-0 to pass: %v", err)
	}
	if dom.Text(list) != "" || dom.HasClass(email, validation.DefaultErrorClass) {
		t.Fatalf("valid pass should clear rendered errors")
	}
}

func TestGroupScopingAndCheckboxGroup(t *testing.T) {
	doc, engine := newEngine(t)
	if err := engine.WhenValid(context.Background(), "group-1"); err == nil {
		t.Fatalf("expected required checkbox group to fail")
	}
	blue, _ := doc.Query("[value=blue]")
	dom.SetChecked(blue, true)
	if err := engine.WhenValid(context.Background(), "group-1"); err != nil {
		t.Fatalf("any checked member should satisfy required: %v", err)
	}

	age, _ := doc.Query("[name=age]")
	dom.SetValue(age, "12")
	err := engine.WhenValid(context.Background(), "group-1")
	var invalid *validation.InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidError, got %v", err)
	}
	if diff := cmp.Diff([]string{"age"}, invalid.Fields); diff != "" {
		t.Fatalf("invalid fields mismatch (-want +got):\n%s", diff)
	}
}

type priorityRule struct{ calls *int }

func (priorityRule) Name() string                    { return "always" }
func (priorityRule) Priority() int                   { return 2048 }
func (priorityRule) Applies(f *validation.Field) bool { return f.Name() == "email" }
func (r priorityRule) Validate(context.Context, *validation.Field) (bool, error) {
	*r.calls++
	return false, nil
}
func (priorityRule) Message(*validation.Field) string { return "custom" }

func TestAddRulePriorityStopsLowerLevels(t *testing.T) {
	_, engine := newEngine(t)
	calls := 0
	remove := engine.AddRule(priorityRule{calls: &calls})

	var got [][]string
	engine.OnFieldError(func(f *validation.Field) { got = append(got, f.FailedRules()) })
	_ = engine.WhenValidate(context.Background(), "group-0")
	if diff := cmp.Diff([][]string{{"always"}}, got); diff != "" {
		t.Fatalf("higher priority failure should hide required (-want +got):\n%s", diff)
	}

	remove()
	got = nil
	_ = engine.WhenValidate(context.Background(), "group-0")
	if diff := cmp.Diff([][]string{{"required"}}, got); diff != "" {
		t.Fatalf("removed rule still applied (-want +got):\n%s", diff)
	}
	if calls != 1 {
		t.Fatalf("expected one call to the custom rule, got %d", calls)
	}
}

func TestVisibleOnlyAndReset(t *testing.T) {
	doc, engine := newEngine(t, validation.WithVisibleOnly(true))
	fieldsets, _ := doc.QueryAll("fieldset")
	dom.SetAttr(fieldsets[0], "hidden", "")
	if diff := cmp.Diff([]string{"age", "colors"}, fieldNames(engine.Fields())); diff != "" {
		t.Fatalf("hidden fields should be excluded (-want +got):\n%s", diff)
	}

	_ = engine.Validate(context.Background())
	engine.Reset()
	if _, err := doc.Query("ul.fw-errors-list"); err == nil {
		t.Fatalf("reset should remove rendered error lists")
	}
	for _, f := range engine.Fields() {
		if !f.Valid() {
			t.Fatalf("reset should clear results on %s", f.Name())
		}
	}
}

func TestCancelledContext(t *testing.T) {
	_, engine := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := engine.Validate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
