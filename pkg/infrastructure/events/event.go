package events

import (
	"fmt"
	"time"
)

// Aggregate names the kind of record an audit event belongs to
type Aggregate string

const (
	AggregateFormula Aggregate = "formula"
	AggregateProduct Aggregate = "product"
	AggregateUnit    Aggregate = "unit"
)

// Stream returns the audit stream holding every event of one record
func (a Aggregate) Stream(id string) string {
	return string(a) + "-" + id
}

// Event is one entry of the audit trail
type Event interface {
	Type() string
	Aggregate() Aggregate
	AggregateID() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends audit events per stream and fans them out to subscribers
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// ChangeEvent is the stored form of every audit event. Its stream is derived from the
// aggregate, so a formula event can never land in a product stream.
type ChangeEvent struct {
	EventType    string
	Kind         Aggregate
	RecordID     string
	EventData    interface{}
	EventTime    time.Time
	EventVersion int
}

func (e ChangeEvent) Type() string         { return e.EventType }
func (e ChangeEvent) Aggregate() Aggregate { return e.Kind }
func (e ChangeEvent) AggregateID() string  { return e.RecordID }
func (e ChangeEvent) StreamID() string     { return e.Kind.Stream(e.RecordID) }
func (e ChangeEvent) Data() interface{}    { return e.EventData }
func (e ChangeEvent) Timestamp() time.Time { return e.EventTime }
func (e ChangeEvent) Version() int         { return e.EventVersion }

func NewEvent(eventType string, kind Aggregate, recordID string, data interface{}) Event {
	return ChangeEvent{
		EventType:    eventType,
		Kind:         kind,
		RecordID:     recordID,
		EventData:    data,
		EventTime:    time.Now().UTC(),
		EventVersion: 1,
	}
}

func checkStream(streamID string, event Event) error {
	if event.AggregateID() == "" {
		return fmt.Errorf("%s event has no %s id", event.Type(), event.Aggregate())
	}
	if streamID != event.StreamID() {
		return fmt.Errorf("%s event for %s cannot be appended to stream %s", event.Type(), event.StreamID(), streamID)
	}
	return nil
}
