// Package event defines the progress events a session publishes to its host.
package event

import (
	"fmt"
	"sync"
)

// Kind tags an Event.
type Kind int

const (
	StatusReplaced Kind = iota
	StatusAppended
	ButtonsDisabled
	ButtonsEnabled
)

func (k Kind) String() string {
	switch k {
	case StatusReplaced:
		return "StatusReplaced"
	case StatusAppended:
		return "StatusAppended"
	case ButtonsDisabled:
		return "ButtonsDisabled"
	case ButtonsEnabled:
		return "ButtonsEnabled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is a single progress notification. Text is only meaningful for the
// two status kinds.
type Event struct {
	Kind Kind
	Text string
}

func (e Event) String() string {
	switch e.Kind {
	case StatusReplaced, StatusAppended:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Text)
	default:
		return e.Kind.String()
	}
}

// Replace builds a StatusReplaced event.
func Replace(text string) Event { return Event{Kind: StatusReplaced, Text: text} }

// Append builds a StatusAppended event.
func Append(text string) Event { return Event{Kind: StatusAppended, Text: text} }

// Appendf builds a StatusAppended event from a format string.
func Appendf(format string, args ...any) Event {
	return Append(fmt.Sprintf(format, args...))
}

// Disable builds a ButtonsDisabled event.
func Disable() Event { return Event{Kind: ButtonsDisabled} }

// Enable builds a ButtonsEnabled event.
func Enable() Event { return Event{Kind: ButtonsEnabled} }

// Sink accepts events from a producer. Implementations must keep emission order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Observer receives events on the host side. Notify may be called from a
// goroutine other than the one that registered the observer, but never
// concurrently with itself.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Notify calls f(e).
func (f ObserverFunc) Notify(e Event) { f(e) }

// Recorder is an Observer and Sink that keeps every event it sees.
// Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify records e.
func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Emit records e.
func (r *Recorder) Emit(e Event) { r.Notify(e) }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Texts returns the text of every status event, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == StatusReplaced || e.Kind == StatusAppended {
			out = append(out, e.Text)
		}
	}
	return out
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
