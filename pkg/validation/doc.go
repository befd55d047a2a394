// Package validation binds the controls of an HTML form as fields and
// validates them, whole-form or one group at a time. Constraints come from
// attributes (required, pattern, minlength, ...) plus rules injected per
// engine instance.
package validation
