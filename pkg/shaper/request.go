package shaper

// Request is anything that travels through a drain loop. Only per-item mode
// reads the id; the payload is never inspected.
type Request interface {
	ID() string
}

// Message is the stock Request: a registry key plus an opaque payload.
type Message struct {
	Key     string
	Payload any
}

// ID implements Request.
func (m Message) ID() string { return m.Key }
