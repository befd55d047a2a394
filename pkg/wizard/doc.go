// Package wizard layers multi-step navigation on top of a form.Form.
//
// Steps are enumerated from the DOM ([data-step] by default) and every input
// inside a step is tagged with that step's validation group. Moving to step
// t commits only when the groups of all steps before t validate and the
// active step's own check, if any, succeeds. The first step is shown without
// gating.
//
// Native submits are only let through on the last step; on any earlier step
// they turn into a Continue. When the form reports a failed validation, the
// wizard jumps straight to the step holding the first failed element.
package wizard
