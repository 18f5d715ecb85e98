package cache

import (
	"context"
	"slices"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Memory ist ein LRU-Cache fester Groesse.
// Das aelteste Element steht vorne in der geordneten Map. Vektoren werden
// beim Schreiben und Lesen kopiert.
type Memory struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[string, []float32]
	size    int
}

// NewMemory erstellt einen LRU-Cache mit maximal size Eintraegen
func NewMemory(size int) *Memory {
	return &Memory{
		entries: orderedmap.New[string, []float32](),
		size:    max(1, size),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	_ = m.entries.MoveToBack(key)
	return slices.Clone(vec), true
}

func (m *Memory) Set(_ context.Context, key string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, present := m.entries.Set(key, slices.Clone(vec)); present {
		_ = m.entries.MoveToBack(key)
		return
	}

	for m.entries.Len() > m.size {
		oldest := m.entries.Oldest()
		m.entries.Delete(oldest.Key)
	}
}

// Len gibt die Anzahl gespeicherter Eintraege zurueck
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.entries.Len()
}
