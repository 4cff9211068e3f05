package events

// Event represents a structured state change emitted by the engine or the
// token ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (RPC, indexers, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding all events. Components fall
// back to it when no emitter is configured.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Record is the canonical event payload: a type tag plus flat string
// attributes.
type Record struct {
	Type       string
	Attributes map[string]string
}

// EventType implements the Event interface.
func (r *Record) EventType() string {
	if r == nil {
		return ""
	}
	return r.Type
}

// Memory accumulates emitted events in order. It backs tests.
type Memory struct {
	records []*Record
}

// Emit implements the Emitter interface. Non-Record events are wrapped into a
// bare Record carrying only the type tag.
func (m *Memory) Emit(evt Event) {
	if m == nil || evt == nil {
		return
	}
	if rec, ok := evt.(*Record); ok {
		m.records = append(m.records, rec)
		return
	}
	m.records = append(m.records, &Record{Type: evt.EventType()})
}

// Records returns the accumulated events in emission order.
func (m *Memory) Records() []*Record {
	if m == nil {
		return nil
	}
	return m.records
}
