package frame

import (
	"sync"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/coordinator"
)

// Master is the single shared context of a frame family. It owns the
// coordinator task table and a small key/value store shared by the
// siblings. State lives exactly as long as the master handle.
type Master struct {
	id    string
	tasks coordinator.Table

	mu    sync.RWMutex
	store map[string]any
}

// newMaster is called by Family; masters are never created directly.
func newMaster() *Master {
	return &Master{id: uuid.New().String()}
}

// ID returns the master's unique identifier.
func (m *Master) ID() string {
	return m.id
}

// Tasks returns the shared task table hosted by this master.
func (m *Master) Tasks() *coordinator.Table {
	return &m.tasks
}

// Set stores a shared value visible to every sibling frame.
func (m *Master) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = make(map[string]any)
	}
	m.store[key] = value
}

// Get reads a shared value.
func (m *Master) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.store[key]
	return v, ok
}
