package types

// Event represents a typed event emitted during state transitions. Every
// successful mutating operation emits exactly one terminal event; failed
// operations emit none.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
