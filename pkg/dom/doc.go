// Package dom provides the small document model the form and wizard
// controllers operate on: a parsed golang.org/x/net/html tree, CSS selector
// queries, attribute/class/value helpers for form controls, and a listener
// registry that delivers submit and click events with capture and bubble
// phases.
package dom
