package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	NotifyLevel     int    `json:"notify_level"`
	FilterCount     int    `json:"filter_count"`
	EventBufferSize int    `json:"event_buffer_size"`
	StoreType       string `json:"store_type"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	storeType := "unknown"
	if s.store != nil {
		storeType = "store"
		if comp, ok := s.store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
	}

	return ServiceState{
		NotifyLevel:     s.notifyLevel,
		FilterCount:     s.filters.Len(),
		EventBufferSize: s.eventBufferSize,
		StoreType:       storeType,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "dispatcher"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
