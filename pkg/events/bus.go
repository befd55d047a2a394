// Package events carries the validation signals a form publishes to the
// components layered on top of it.
package events

import (
	"sync"

	"golang.org/x/net/html"
)

// FieldValidationFailed is published when a single field fails validation.
// FailedValidators lists the failed constraint names in evaluation order.
type FieldValidationFailed struct {
	Element          *html.Node
	FailedValidators []string
}

// FormValidationFailed is published when a whole-form (or group) validation
// pass fails. FailedElements lists every currently invalid field element in
// document order.
type FormValidationFailed struct {
	Form           *html.Node
	FailedElements []*html.Node
}

// SubmissionCompleted is published once per finished submission pipeline.
// Errors holds the extracted server validation errors, Err the transport or
// pipeline failure if any.
type SubmissionCompleted struct {
	Form       *html.Node
	StatusCode int
	Errors     map[string]string
	Err        error
}

// Succeeded reports whether the submission passed both transport and
// server-side validation.
func (s SubmissionCompleted) Succeeded() bool {
	return s.Err == nil && len(s.Errors) == 0
}

// Topic is a typed, ordered list of subscribers.
type Topic[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that unsubscribes it.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, sub := range t.subs {
				if sub.id == id {
					t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish calls every subscriber in subscription order on the caller's
// goroutine. Subscribers added or removed during delivery take effect on the
// next Publish.
func (t *Topic[T]) Publish(event T) {
	t.mu.RLock()
	subs := append([]subscriber[T](nil), t.subs...)
	t.mu.RUnlock()
	for _, sub := range subs {
		sub.fn(event)
	}
}

// Len reports the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Bus groups the topics a form publishes on.
type Bus struct {
	FieldFailed Topic[FieldValidationFailed]
	FormFailed  Topic[FormValidationFailed]
	Submitted   Topic[SubmissionCompleted]
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}
