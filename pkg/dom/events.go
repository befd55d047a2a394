package dom

import (
	"context"
	"sync"

	"golang.org/x/net/html"
)

// Event types dispatched by the host.
const (
	EventSubmit = "submit"
	EventClick  = "click"
)

// Event is delivered to listeners along the propagation path.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node

	defaultPrevented bool
	stopped          bool
	stoppedNow       bool
}

// PreventDefault cancels the host's default action for the event.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener cancelled the default action.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation keeps the event from reaching further nodes; listeners on
// the current node still run.
func (e *Event) StopPropagation() { e.stopped = true }

// StopImmediatePropagation also skips the remaining listeners on the current
// node.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedNow = true
}

// Handler reacts to a dispatched event.
type Handler func(ctx context.Context, ev *Event)

type listenerKey struct {
	node    *html.Node
	typ     string
	capture bool
}

type listener struct {
	id      int
	handler Handler
}

// Listeners is the registry of event handlers keyed by node and event type.
type Listeners struct {
	mu      sync.Mutex
	nextID  int
	entries map[listenerKey][]listener
}

// NewListeners returns an empty registry.
func NewListeners() *Listeners {
	return &Listeners{entries: make(map[listenerKey][]listener)}
}

// Add registers a bubble-phase handler and returns a function that removes it.
func (l *Listeners) Add(node *html.Node, typ string, handler Handler) func() {
	return l.add(listenerKey{node: node, typ: typ}, handler)
}

// AddCapture registers a capture-phase handler. Capture handlers run from the
// root towards the target before any bubble handler.
func (l *Listeners) AddCapture(node *html.Node, typ string, handler Handler) func() {
	return l.add(listenerKey{node: node, typ: typ, capture: true}, handler)
}

func (l *Listeners) add(key listenerKey, handler Handler) func() {
	if l == nil || key.node == nil || handler == nil {
		return func() {}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.entries[key] = append(l.entries[key], listener{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			current := l.entries[key]
			for i, entry := range current {
				if entry.id == id {
					l.entries[key] = append(current[:i:i], current[i+1:]...)
					break
				}
			}
			if len(l.entries[key]) == 0 {
				delete(l.entries, key)
			}
		})
	}
}

func (l *Listeners) snapshot(key listenerKey) []listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]listener(nil), l.entries[key]...)
}

// Dispatch delivers an event of typ to target: capture handlers from the root
// down to the target, then bubble handlers from the target up to the root.
// Handlers run synchronously on the caller's goroutine.
func (l *Listeners) Dispatch(ctx context.Context, target *html.Node, typ string) *Event {
	ev := &Event{Type: typ, Target: target}
	if l == nil || target == nil {
		return ev
	}

	var path []*html.Node
	for node := target; node != nil; node = node.Parent {
		path = append(path, node)
	}

	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		l.invoke(ctx, ev, listenerKey{node: path[i], typ: typ, capture: true})
	}
	for i := 0; i < len(path) && !ev.stopped; i++ {
		l.invoke(ctx, ev, listenerKey{node: path[i], typ: typ})
	}
	ev.CurrentTarget = nil
	return ev
}

func (l *Listeners) invoke(ctx context.Context, ev *Event, key listenerKey) {
	ev.CurrentTarget = key.node
	for _, entry := range l.snapshot(key) {
		entry.handler(ctx, ev)
		if ev.stoppedNow {
			return
		}
	}
}
