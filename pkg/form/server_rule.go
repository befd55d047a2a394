package form

import (
	"context"

	"github.com/goliatone/go-formwizard/pkg/validation"
)

const (
	// ServerRuleName is the constraint name used for server-side errors. The
	// engine reads the flag from the namespaced attribute of the same name.
	ServerRuleName = "server"
	// ServerRulePriority runs the server rule ahead of every built-in rule.
	ServerRulePriority = 1024

	rejectedValueKey = "serverErrorValue"
)

type seenMarker struct{}

// ServerRule keeps a server-rejected field invalid until its value changes.
// Fields without a comparable value show the rejection once per applied
// error and pass on the following pass.
type ServerRule struct{}

var _ validation.Rule = ServerRule{}

// NewServerRule returns the rule registered by every Form on its engine.
func NewServerRule() ServerRule {
	return ServerRule{}
}

// Name implements validation.Rule.
func (ServerRule) Name() string { return ServerRuleName }

// Priority implements validation.Rule.
func (ServerRule) Priority() int { return ServerRulePriority }

// Applies implements validation.Rule.
func (ServerRule) Applies(f *validation.Field) bool {
	_, ok := f.Attr(ServerRuleName)
	return ok
}

// Validate implements validation.Rule.
func (ServerRule) Validate(ctx context.Context, f *validation.Field) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !f.Comparable() {
		return once(f), nil
	}

	current := f.Value()
	if stored, ok := f.Load(rejectedValueKey); ok {
		rejected, _ := stored.(string)
		return rejected != current, nil
	}
	f.Store(rejectedValueKey, current)
	return false, nil
}

func once(f *validation.Field) bool {
	if stored, ok := f.Load(rejectedValueKey); ok {
		if _, seen := stored.(seenMarker); seen {
			return true
		}
	}
	f.Store(rejectedValueKey, seenMarker{})
	return false
}

// Message implements validation.Rule.
func (ServerRule) Message(f *validation.Field) string {
	return f.Options().ServerMessage
}

// ForgetRejection clears the stored rejected value so the next pass treats
// the field as freshly rejected.
func ForgetRejection(f *validation.Field) {
	f.Forget(rejectedValueKey)
}
