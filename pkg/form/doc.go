// Package form drives the submission of one HTML form against a remote
// endpoint.
//
// A Form guards against overlapping submissions, runs the lifecycle hooks,
// serializes the form according to its enctype and hands the request to a
// transport.Client. Validation errors returned by the server are routed back
// into the form's validation.Engine: keys that name a field are rendered
// inline through the "server" rule, the rest are collected into an optional
// summary element.
//
// Validation outcomes are republished on the form's events.Bus so that
// components layered on top (the wizard, terminal hosts) can react without
// calling into the form directly.
package form
