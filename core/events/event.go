// Package events defines the typed payloads behind every terminal event. The
// engines construct a payload, convert it with Event() and hand it to the
// state manager; observers only ever see the flattened types.Event form.
package events

// Event is a structured state change emitted by a committed transition.
type Event interface {
	EventType() string
}
