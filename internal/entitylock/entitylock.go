// Package entitylock provides a lazily-populated per-entity mutex map,
// serializing appends and consolidation for one entity_id at a time
// without serializing unrelated entities against each other (spec §6
// "lazily populated mapping of entity_id to mutex, shared ownership").
package entitylock

import "sync"

// Map is a sync.Map of entity_id → *sync.Mutex, safe for concurrent use.
type Map struct {
	locks sync.Map
}

// Lock returns the mutex for entityID, creating it on first use, and locks
// it. Callers must call the returned unlock function exactly once.
func (m *Map) Lock(entityID string) (unlock func()) {
	value, _ := m.locks.LoadOrStore(entityID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
