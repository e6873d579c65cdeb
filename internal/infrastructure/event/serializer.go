package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/erp/production/internal/domain/shared"
)

// EventSerializer encodes the domain events it knows about. The registry is
// the set of event types the audit trail accepts.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// Register binds an event type name to its concrete event struct.
// The eventType should match what EventType() returns on the event.
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[eventType] = concreteType(eventInstance)
}

// Serialize encodes a registered event to JSON. Events whose type name is
// unknown, or whose struct differs from the registered one, are rejected.
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	s.mu.RLock()
	want, ok := s.registry[event.EventType()]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unregistered event type: %s", event.EventType())
	}
	if got := concreteType(event); got != want {
		return nil, fmt.Errorf("event type %s is registered as %s, got %s", event.EventType(), want, got)
	}
	return json.Marshal(event)
}

// RegisteredTypes returns all registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func concreteType(event shared.DomainEvent) reflect.Type {
	t := reflect.TypeOf(event)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
